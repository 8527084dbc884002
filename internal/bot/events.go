package bot

// EventType — тип входящего события от чат-платформы.
type EventType string

const (
	EventUserStarted    EventType = "user_started"
	EventTextReceived   EventType = "text_received"
	EventChoiceSelected EventType = "choice_selected"
)

// Event — одно входящее событие: команда /start, свободный текст
// или нажатие кнопки.
type Event struct {
	ID       string
	Type     EventType
	UserID   int64
	Text     string
	ChoiceID string
}

// Идентификаторы кнопок. Выбор истории кодируется как "start_<id>".
const (
	ChoiceCreateStory    = "create_story"
	ChoiceListStories    = "list_stories"
	ChoicePlayStory      = "play_story"
	ChoiceAddCharacter   = "add_character"
	ChoiceListCharacters = "list_characters"
	ChoiceFinishStory    = "finish_story"
	ChoiceKnownYes       = "known_yes"
	ChoiceKnownNo        = "known_no"

	choiceStartPrefix = "start_"
)
