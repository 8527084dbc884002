package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/repository"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/session"
)

// StoryService — список историй и запуск игровой сессии.
type StoryService struct {
	sessions session.Store
	stories  repository.StoryRepository
	messages repository.MessageRepository
	logger   *zap.Logger
}

// NewStoryService создает сервис выбора историй.
func NewStoryService(
	sessions session.Store,
	stories repository.StoryRepository,
	messages repository.MessageRepository,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		sessions: sessions,
		stories:  stories,
		messages: messages,
		logger:   logger.Named("StoryService"),
	}
}

// List возвращает все истории в порядке создания.
// Пустой список — валидное состояние ("историй пока нет").
func (s *StoryService) List(ctx context.Context) ([]models.StorySummary, error) {
	return s.stories.List(ctx)
}

// Select назначает игроку активную историю и записывает вступительную
// сцену нулевым ходом диалога от имени персонажа. Несуществующий id
// возвращает models.ErrStoryNotFound без изменения состояния.
func (s *StoryService) Select(ctx context.Context, userID, storyID int64) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SetActiveStory(ctx, userID, storyID); err != nil {
		return nil, fmt.Errorf("failed to set active story: %w", err)
	}

	// Вступительная сцена — всегда нулевой ход записанной переписки
	if err := s.messages.Append(ctx, userID, storyID, models.SenderCharacter, story.StartScene); err != nil {
		return nil, fmt.Errorf("failed to record start scene: %w", err)
	}

	s.logger.Info("Play session started",
		zap.Int64("userID", userID),
		zap.Int64("storyID", storyID),
		zap.String("title", story.Title),
	)
	return story, nil
}
