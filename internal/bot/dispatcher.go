package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/service"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/transport"
)

// Dispatcher маршрутизирует входящие события в сервисы ядра.
//
// События одного пользователя обрабатываются строго по очереди
// (per-user mutex), события разных пользователей — параллельно.
// Медленный вызов генератора для одного игрока не блокирует остальных.
type Dispatcher struct {
	transport    transport.Transport
	authoring    *service.AuthoringService
	stories      *service.StoryService
	conversation *service.ConversationService
	authorID     int64
	eventTimeout time.Duration
	logger       *zap.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
	wg        sync.WaitGroup
}

// NewDispatcher создает диспетчер событий.
func NewDispatcher(
	tr transport.Transport,
	authoring *service.AuthoringService,
	stories *service.StoryService,
	conversation *service.ConversationService,
	authorID int64,
	eventTimeout time.Duration,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		transport:    tr,
		authoring:    authoring,
		stories:      stories,
		conversation: conversation,
		authorID:     authorID,
		eventTimeout: eventTimeout,
		logger:       logger.Named("Dispatcher"),
	}
}

// Dispatch принимает событие и обрабатывает его асинхронно.
// Возврат управления не означает завершения обработки.
func (d *Dispatcher) Dispatch(ev Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		lock := d.userLock(ev.UserID)
		lock.Lock()
		defer lock.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), d.eventTimeout)
		defer cancel()

		d.handle(ctx, ev)
	}()
}

// Wait дожидается завершения всех обрабатываемых событий (graceful shutdown).
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) userLock(userID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userLocks == nil {
		d.userLocks = make(map[int64]*sync.Mutex)
	}
	lock, ok := d.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		d.userLocks[userID] = lock
	}
	return lock
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	log := d.logger.With(
		zap.String("eventID", ev.ID),
		zap.String("eventType", string(ev.Type)),
		zap.Int64("userID", ev.UserID),
	)

	switch ev.Type {
	case EventUserStarted:
		d.sendMainMenu(ctx, ev.UserID, textWelcome)
	case EventChoiceSelected:
		d.handleChoice(ctx, ev)
	case EventTextReceived:
		d.handleText(ctx, ev)
	default:
		log.Warn("Unknown event type ignored")
	}
}

// --- Меню ---

func (d *Dispatcher) mainMenuChoices(userID int64) []transport.Choice {
	var choices []transport.Choice
	if userID == d.authorID {
		choices = append(choices, transport.Choice{ID: ChoiceCreateStory, Label: "➕ Создать историю"})
	}
	choices = append(choices,
		transport.Choice{ID: ChoiceListStories, Label: "📚 Список историй"},
		transport.Choice{ID: ChoicePlayStory, Label: "▶️ Начать историю"},
	)
	return choices
}

func characterMenuChoices() []transport.Choice {
	return []transport.Choice{
		{ID: ChoiceAddCharacter, Label: "➕ Добавить персонажа"},
		{ID: ChoiceListCharacters, Label: "👥 Список персонажей"},
		{ID: ChoiceFinishStory, Label: "✅ Создать историю"},
	}
}

func knownChoices() []transport.Choice {
	return []transport.Choice{
		{ID: ChoiceKnownYes, Label: "Знакомый"},
		{ID: ChoiceKnownNo, Label: "Незнакомый"},
	}
}

func (d *Dispatcher) sendMainMenu(ctx context.Context, userID int64, prompt string) {
	d.presentChoices(ctx, userID, prompt, d.mainMenuChoices(userID))
}

// --- Кнопки ---

func (d *Dispatcher) handleChoice(ctx context.Context, ev Event) {
	switch {
	case ev.ChoiceID == ChoiceCreateStory:
		d.startAuthoring(ctx, ev.UserID)
	case ev.ChoiceID == ChoiceAddCharacter:
		d.beginCharacter(ctx, ev.UserID)
	case ev.ChoiceID == ChoiceListCharacters:
		d.listCharacters(ctx, ev.UserID)
	case ev.ChoiceID == ChoiceFinishStory:
		d.finishStory(ctx, ev.UserID)
	case ev.ChoiceID == ChoiceKnownYes:
		d.finishCharacter(ctx, ev.UserID, models.KnownStatusFamiliar)
	case ev.ChoiceID == ChoiceKnownNo:
		d.finishCharacter(ctx, ev.UserID, models.KnownStatusStranger)
	case ev.ChoiceID == ChoiceListStories:
		d.listStories(ctx, ev.UserID)
	case ev.ChoiceID == ChoicePlayStory:
		d.playStory(ctx, ev.UserID)
	case strings.HasPrefix(ev.ChoiceID, choiceStartPrefix):
		d.selectStory(ctx, ev)
	default:
		d.logger.Warn("Unknown choice ignored",
			zap.Int64("userID", ev.UserID),
			zap.String("choiceID", ev.ChoiceID),
		)
	}
}

func (d *Dispatcher) startAuthoring(ctx context.Context, userID int64) {
	if err := d.authoring.Start(ctx, userID); err != nil {
		if errors.Is(err, models.ErrPermissionDenied) {
			d.sendText(ctx, userID, textPermissionDenied)
			return
		}
		d.logger.Error("Failed to start authoring", zap.Int64("userID", userID), zap.Error(err))
		d.sendText(ctx, userID, textAuthoringFailed)
		return
	}
	d.sendText(ctx, userID, stepPrompts[models.StepTitle])
}

func (d *Dispatcher) beginCharacter(ctx context.Context, userID int64) {
	if err := d.authoring.BeginCharacter(ctx, userID); err != nil {
		switch {
		case errors.Is(err, models.ErrCharacterLimit):
			// Лимит достигнут: сообщаем и остаемся в меню персонажей
			d.sendText(ctx, userID, textCharacterLimit)
		case errors.Is(err, models.ErrNoDraft):
			d.logger.Warn("add_character without active draft", zap.Int64("userID", userID))
		default:
			d.logger.Error("Failed to begin character", zap.Int64("userID", userID), zap.Error(err))
		}
		return
	}
	d.sendText(ctx, userID, stepPrompts[models.StepCharName])
}

func (d *Dispatcher) listCharacters(ctx context.Context, userID int64) {
	characters, err := d.authoring.Characters(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNoDraft) {
			d.logger.Error("Failed to list draft characters", zap.Int64("userID", userID), zap.Error(err))
		}
		return
	}

	if len(characters) == 0 {
		d.sendText(ctx, userID, textNoCharactersYet)
		return
	}

	var b strings.Builder
	b.WriteString("👥 Персонажи:\n\n")
	for i, c := range characters {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, c.Name, c.Role)
	}
	d.sendText(ctx, userID, b.String())
}

func (d *Dispatcher) finishCharacter(ctx context.Context, userID int64, known models.KnownStatus) {
	if _, err := d.authoring.FinishCharacter(ctx, userID, known); err != nil {
		if !errors.Is(err, models.ErrNoDraft) {
			d.logger.Error("Failed to finish character", zap.Int64("userID", userID), zap.Error(err))
		}
		return
	}
	d.sendText(ctx, userID, textCharacterAdded)
	d.presentChoices(ctx, userID, textContinue, characterMenuChoices())
}

func (d *Dispatcher) finishStory(ctx context.Context, userID int64) {
	storyID, err := d.authoring.Commit(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNoDraft) {
			d.logger.Warn("finish_story without active draft", zap.Int64("userID", userID))
			return
		}
		// Единая ошибка авторинга: частичных результатов у коммита не бывает
		d.logger.Error("Story commit failed", zap.Int64("userID", userID), zap.Error(err))
		d.sendText(ctx, userID, textAuthoringFailed)
		return
	}

	d.logger.Info("Story published", zap.Int64("userID", userID), zap.Int64("storyID", storyID))
	d.sendText(ctx, userID, textStoryCreated)
	d.sendMainMenu(ctx, userID, textMainMenu)
}

func (d *Dispatcher) listStories(ctx context.Context, userID int64) {
	stories, err := d.stories.List(ctx)
	if err != nil {
		d.logger.Error("Failed to list stories", zap.Int64("userID", userID), zap.Error(err))
		return
	}

	if len(stories) == 0 {
		d.sendText(ctx, userID, textNoStories)
		return
	}

	var b strings.Builder
	b.WriteString("📚 Истории:\n\n")
	for _, s := range stories {
		fmt.Fprintf(&b, "%d. %s\n", s.ID, s.Title)
	}
	d.sendText(ctx, userID, b.String())
}

func (d *Dispatcher) playStory(ctx context.Context, userID int64) {
	stories, err := d.stories.List(ctx)
	if err != nil {
		d.logger.Error("Failed to list stories", zap.Int64("userID", userID), zap.Error(err))
		return
	}

	if len(stories) == 0 {
		d.sendText(ctx, userID, textNoStories)
		return
	}

	choices := make([]transport.Choice, 0, len(stories))
	for _, s := range stories {
		choices = append(choices, transport.Choice{
			ID:    choiceStartPrefix + strconv.FormatInt(s.ID, 10),
			Label: s.Title,
		})
	}
	d.presentChoices(ctx, userID, textPickStory, choices)
}

func (d *Dispatcher) selectStory(ctx context.Context, ev Event) {
	rawID := strings.TrimPrefix(ev.ChoiceID, choiceStartPrefix)
	storyID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		d.logger.Warn("Malformed story choice id",
			zap.Int64("userID", ev.UserID),
			zap.String("choiceID", ev.ChoiceID),
		)
		return
	}

	story, err := d.stories.Select(ctx, ev.UserID, storyID)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			d.sendText(ctx, ev.UserID, textStoryNotFound)
			return
		}
		d.logger.Error("Failed to select story",
			zap.Int64("userID", ev.UserID),
			zap.Int64("storyID", storyID),
			zap.Error(err),
		)
		return
	}

	d.sendText(ctx, ev.UserID, fmt.Sprintf(
		"📖 История: %s\n\n%s\n\n✍️ Напишите первое сообщение...",
		story.Title, story.StartScene,
	))
}

// --- Свободный текст ---

func (d *Dispatcher) handleText(ctx context.Context, ev Event) {
	step, drafting, err := d.authoring.CurrentStep(ctx, ev.UserID)
	if err != nil {
		d.logger.Error("Failed to read draft state", zap.Int64("userID", ev.UserID), zap.Error(err))
		return
	}

	if drafting && step.AwaitsText() {
		d.handleAuthoringText(ctx, ev)
		return
	}

	reply, handled, err := d.conversation.HandleMessage(ctx, ev.UserID, ev.Text)
	if err != nil {
		d.logger.Error("Conversation pipeline failed", zap.Int64("userID", ev.UserID), zap.Error(err))
		return
	}
	if !handled {
		// Нет активной игры: сообщение молча игнорируется
		return
	}
	d.sendText(ctx, ev.UserID, reply)
}

func (d *Dispatcher) handleAuthoringText(ctx context.Context, ev Event) {
	next, err := d.authoring.HandleText(ctx, ev.UserID, ev.Text)
	if err != nil {
		d.logger.Error("Failed to handle authoring input", zap.Int64("userID", ev.UserID), zap.Error(err))
		return
	}

	switch next {
	case models.StepCharacterMenu:
		d.presentChoices(ctx, ev.UserID, textCharacterMenu, characterMenuChoices())
	case models.StepCharKnown:
		d.presentChoices(ctx, ev.UserID, textKnownQuestion, knownChoices())
	default:
		d.sendText(ctx, ev.UserID, stepPrompts[next])
	}
}

// --- Исходящие действия ---

func (d *Dispatcher) sendText(ctx context.Context, userID int64, text string) {
	if err := d.transport.SendText(ctx, userID, text); err != nil {
		d.logger.Error("Failed to send text", zap.Int64("userID", userID), zap.Error(err))
	}
}

func (d *Dispatcher) presentChoices(ctx context.Context, userID int64, prompt string, choices []transport.Choice) {
	if err := d.transport.PresentChoices(ctx, userID, prompt, choices); err != nil {
		d.logger.Error("Failed to present choices", zap.Int64("userID", userID), zap.Error(err))
	}
}
