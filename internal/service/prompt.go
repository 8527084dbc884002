package service

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

// Главный промпт Horror-Studio: фиксированная рамка движка, факты истории,
// список персонажей, окно переписки и новое сообщение игрока.
const promptTemplate = `Ты — AI-движок Horror-Studio.
Ты пишешь хоррор историю в формате настоящей переписки.

История: %s

Описание автора (основа сюжета):
%s

Прошлое главного героя:
%s

Персонажи:
%s
Последние сообщения переписки:
%s
Правила:
- Игрок — главный герой, он единственный реальный человек.
- Все остальные персонажи отвечают как живые люди в чате.
- Сообщения короткие, как в Telegram.
- Атмосфера хоррора, напряжение.
- Диалог должен быть логичным, связанным, не мусорным.
- Не пиши слишком длинные рассказы — это переписка.

Сообщение игрока:
%s

Ответ:
(Напиши 1-3 сообщения от персонажей, как переписку)`

// PromptBuilder собирает запрос к генератору и ограничивает его размер
// токен-бюджетом, отбрасывая самые старые сообщения окна.
type PromptBuilder struct {
	enc         *tiktoken.Tiktoken
	tokenBudget int
	logger      *zap.Logger
}

// NewPromptBuilder создает билдер промптов. Если для модели нет известной
// кодировки, используется cl100k_base; без кодировки размер оценивается
// по числу байт.
func NewPromptBuilder(model string, tokenBudget int, logger *zap.Logger) *PromptBuilder {
	log := logger.Named("PromptBuilder")

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		log.Debug("No tiktoken encoding for model, falling back to cl100k_base",
			zap.String("model", model), zap.Error(err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Warn("Failed to load cl100k_base encoding, approximating token counts", zap.Error(err))
			enc = nil
		}
	}

	return &PromptBuilder{
		enc:         enc,
		tokenBudget: tokenBudget,
		logger:      log,
	}
}

// Build составляет промпт. Окно истории обрезается с головы (самые старые
// реплики стареют первыми) до тех пор, пока промпт не уложится в бюджет.
func (b *PromptBuilder) Build(
	story *models.Story,
	characters []models.Character,
	history []models.DialogueMessage,
	userMessage string,
) string {
	prompt := b.render(story, characters, history, userMessage)
	for b.countTokens(prompt) > b.tokenBudget && len(history) > 0 {
		history = history[1:]
		prompt = b.render(story, characters, history, userMessage)
	}
	return prompt
}

func (b *PromptBuilder) render(
	story *models.Story,
	characters []models.Character,
	history []models.DialogueMessage,
	userMessage string,
) string {
	var charText strings.Builder
	for _, c := range characters {
		fmt.Fprintf(&charText, "- %s (%s), характер: %s, статус: %s\n", c.Name, c.Role, c.Personality, c.Known)
	}

	var historyText strings.Builder
	for _, m := range history {
		label := "Персонаж"
		if m.Sender == models.SenderPlayer {
			label = "Игрок"
		}
		fmt.Fprintf(&historyText, "%s: %s\n", label, m.Text)
	}

	return fmt.Sprintf(promptTemplate,
		story.Title,
		story.Description,
		story.HeroPast,
		charText.String(),
		historyText.String(),
		userMessage,
	)
}

func (b *PromptBuilder) countTokens(s string) int {
	if b.enc == nil {
		// Грубая оценка: ~4 байта на токен
		return len(s) / 4
	}
	return len(b.enc.Encode(s, nil, nil))
}
