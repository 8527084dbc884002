package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

func testStory() *models.Story {
	return &models.Story{
		ID:          3,
		Title:       "Хижина",
		Description: "Заброшенная хижина в лесу",
		HeroPast:    "Герой потерял брата год назад",
		StartScene:  "Ты просыпаешься от стука в окно",
	}
}

func TestPromptBuildSections(t *testing.T) {
	b := NewPromptBuilder("llama-3.1-8b-instant", 3000, zap.NewNop())

	characters := []models.Character{
		{Name: "Макс", Role: "лесник (30 лет)", Personality: "мрачный", Known: models.KnownStatusStranger},
		{Name: "Аня", Role: "сестра (25 лет)", Personality: "тревожная", Known: models.KnownStatusFamiliar},
	}
	history := []models.DialogueMessage{
		{Sender: models.SenderCharacter, Text: "Ты просыпаешься от стука в окно"},
		{Sender: models.SenderPlayer, Text: "Кто там?"},
	}

	prompt := b.Build(testStory(), characters, history, "Кто там?")

	assert.Contains(t, prompt, "Ты — AI-движок Horror-Studio.")
	assert.Contains(t, prompt, "История: Хижина")
	assert.Contains(t, prompt, "Заброшенная хижина в лесу")
	assert.Contains(t, prompt, "Герой потерял брата год назад")
	assert.Contains(t, prompt, "- Макс (лесник (30 лет)), характер: мрачный, статус: незнакомый")
	assert.Contains(t, prompt, "- Аня (сестра (25 лет)), характер: тревожная, статус: знакомый")
	assert.Contains(t, prompt, "Персонаж: Ты просыпаешься от стука в окно")
	assert.Contains(t, prompt, "Игрок: Кто там?")
	assert.Contains(t, prompt, "Сообщение игрока:\nКто там?")
}

func TestPromptBudgetDropsOldestFirst(t *testing.T) {
	// Без кодировки размер оценивается по байтам: детерминированно для теста
	b := &PromptBuilder{enc: nil, tokenBudget: 400, logger: zap.NewNop()}

	var history []models.DialogueMessage
	for i := 0; i < 20; i++ {
		history = append(history, models.DialogueMessage{
			Sender: models.SenderPlayer,
			Text:   fmt.Sprintf("Сообщение номер %d из длинного разговора в хижине", i),
		})
	}

	prompt := b.Build(testStory(), nil, history, "Что дальше?")

	// Старые реплики выпали, самая свежая и ввод игрока остались
	assert.NotContains(t, prompt, "Сообщение номер 0 ")
	assert.Contains(t, prompt, "Сообщение номер 19 ")
	assert.Contains(t, prompt, "Сообщение игрока:\nЧто дальше?")
}

func TestPromptBudgetKeepsFrameWhenHistoryEmpty(t *testing.T) {
	// Даже при нулевом бюджете рамка промпта не режется: выпадает только окно
	b := &PromptBuilder{enc: nil, tokenBudget: 1, logger: zap.NewNop()}

	history := []models.DialogueMessage{
		{Sender: models.SenderPlayer, Text: strings.Repeat("страх ", 100)},
	}

	prompt := b.Build(testStory(), nil, history, "Бегу")

	assert.NotContains(t, prompt, "страх")
	assert.Contains(t, prompt, "История: Хижина")
	assert.Contains(t, prompt, "Сообщение игрока:\nБегу")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "жуть", truncateRunes("жуть", 10))
	assert.Equal(t, "жу", truncateRunes("жуть", 2))
	assert.Equal(t, "жуть", truncateRunes("жуть", 0))
	assert.Equal(t, "", truncateRunes("", 5))
}

func TestFormatCharacterRole(t *testing.T) {
	assert.Equal(t, "лесник (30 лет)", formatCharacterRole(models.CharacterDraft{Role: "лесник", Age: "30"}))
	assert.Equal(t, "лесник", formatCharacterRole(models.CharacterDraft{Role: "лесник"}))
}
