package models

// DraftStep — текущий шаг мастера создания истории.
// Явное перечисление вместо строковых меток состояния:
// переходы описаны таблицей в сервисе авторинга.
type DraftStep string

const (
	StepIdle            DraftStep = "idle"
	StepTitle           DraftStep = "title"
	StepDescription     DraftStep = "description"
	StepHeroPast        DraftStep = "hero_past"
	StepStartScene      DraftStep = "start_scene"
	StepCharacterMenu   DraftStep = "character_menu"
	StepCharName        DraftStep = "char_name"
	StepCharAge         DraftStep = "char_age"
	StepCharRole        DraftStep = "char_role"
	StepCharPersonality DraftStep = "char_personality"
	StepCharKnown       DraftStep = "char_known"
)

// AwaitsText сообщает, ожидает ли шаг свободный текстовый ввод.
func (s DraftStep) AwaitsText() bool {
	switch s {
	case StepTitle, StepDescription, StepHeroPast, StepStartScene,
		StepCharName, StepCharAge, StepCharRole, StepCharPersonality:
		return true
	}
	return false
}

// CharacterDraft — персонаж, собираемый пятишаговым подмастером.
// Возраст хранится отдельно и склеивается с ролью только при коммите.
type CharacterDraft struct {
	Name        string      `json:"name"`
	Age         string      `json:"age"`
	Role        string      `json:"role"`
	Personality string      `json:"personality"`
	Known       KnownStatus `json:"known"`
}

// StoryDraft — незакоммиченное состояние мастера для одного автора.
// Живет только в session store между началом мастера и коммитом.
type StoryDraft struct {
	Step        DraftStep        `json:"step"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	HeroPast    string           `json:"hero_past"`
	StartScene  string           `json:"start_scene"`
	Characters  []CharacterDraft `json:"characters"`
	// Pending — персонаж, который собирается прямо сейчас.
	Pending CharacterDraft `json:"pending"`
}
