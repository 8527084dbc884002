package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/ai"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/repository"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/session"
)

// FallbackAIReply — фиксированный ответ игроку при недоступности генератора.
const FallbackAIReply = "⚠️ Ошибка AI ответа. Проверь ключ и доступность провайдера."

// ConversationService превращает сообщение игрока в реплику персонажа,
// используя ограниченное окно памяти диалога.
type ConversationService struct {
	sessions     session.Store
	stories      repository.StoryRepository
	characters   repository.CharacterRepository
	messages     repository.MessageRepository
	generator    ai.Client
	prompts      *PromptBuilder
	historyLimit int
	maxFieldLen  int
	aiTimeout    time.Duration
	logger       *zap.Logger
}

// NewConversationService создает движок переписки.
func NewConversationService(
	sessions session.Store,
	stories repository.StoryRepository,
	characters repository.CharacterRepository,
	messages repository.MessageRepository,
	generator ai.Client,
	prompts *PromptBuilder,
	historyLimit int,
	maxFieldLen int,
	aiTimeout time.Duration,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		sessions:     sessions,
		stories:      stories,
		characters:   characters,
		messages:     messages,
		generator:    generator,
		prompts:      prompts,
		historyLimit: historyLimit,
		maxFieldLen:  maxFieldLen,
		aiTimeout:    aiTimeout,
		logger:       logger.Named("ConversationService"),
	}
}

// HandleMessage обрабатывает входящее сообщение игрока.
//
// Без активной игровой сессии сообщение молча игнорируется — это штатное
// поведение, а не ошибка: handled=false, реплика пустая.
//
// Ход игрока записывается в лог до чтения окна, поэтому окно всегда
// включает новое сообщение. При сбое или таймауте генератора возвращается
// фиксированный fallback-текст, ход персонажа не записывается, а ход
// игрока остается в логе — контекст не теряется для следующей попытки.
func (s *ConversationService) HandleMessage(ctx context.Context, userID int64, text string) (string, bool, error) {
	storyID, active, err := s.sessions.ActiveStory(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if !active {
		s.logger.Debug("Message ignored: no active play session", zap.Int64("userID", userID))
		return "", false, nil
	}

	text = truncateRunes(text, s.maxFieldLen)

	if err := s.messages.Append(ctx, userID, storyID, models.SenderPlayer, text); err != nil {
		return "", true, err
	}

	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return "", true, err
	}

	characters, err := s.characters.ListByStory(ctx, storyID)
	if err != nil {
		return "", true, err
	}

	history, err := s.messages.Recent(ctx, userID, storyID, s.historyLimit)
	if err != nil {
		return "", true, err
	}

	prompt := s.prompts.Build(story, characters, history, text)

	genCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	reply, usage, err := s.generator.Generate(genCtx, strconv.FormatInt(userID, 10), prompt)
	if err != nil {
		// Ошибка терминальна только для этого хода: следующий ввод игрока
		// сам повторит весь пайплайн.
		s.logger.Warn("Generator call failed, returning fallback",
			zap.Int64("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err),
		)
		return FallbackAIReply, true, nil
	}

	s.logger.Debug("Generator reply received",
		zap.Int64("userID", userID),
		zap.Int64("storyID", storyID),
		zap.Int("totalTokens", usage.TotalTokens),
	)

	if err := s.messages.Append(ctx, userID, storyID, models.SenderCharacter, reply); err != nil {
		// Ответ уже сгенерирован: доставляем его игроку, потерю записи
		// в логе только фиксируем.
		s.logger.Error("Failed to persist character reply",
			zap.Int64("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err),
		)
	}

	return reply, true, nil
}
