package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/repository"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, q repository.Querier, story *models.Story) (int64, error) {
	args := m.Called(ctx, q, story)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StoryRepository) List(ctx context.Context) ([]models.StorySummary, error) {
	args := m.Called(ctx)
	stories, _ := args.Get(0).([]models.StorySummary)
	return stories, args.Error(1)
}

func (m *StoryRepository) GetByID(ctx context.Context, id int64) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

// Mock CharacterRepository
type CharacterRepository struct {
	mock.Mock
}

func (m *CharacterRepository) Create(ctx context.Context, q repository.Querier, character *models.Character) error {
	args := m.Called(ctx, q, character)
	return args.Error(0)
}

func (m *CharacterRepository) ListByStory(ctx context.Context, storyID int64) ([]models.Character, error) {
	args := m.Called(ctx, storyID)
	characters, _ := args.Get(0).([]models.Character)
	return characters, args.Error(1)
}

// Mock MessageRepository
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Append(ctx context.Context, userID, storyID int64, sender models.Sender, text string) error {
	args := m.Called(ctx, userID, storyID, sender, text)
	return args.Error(0)
}

func (m *MessageRepository) Recent(ctx context.Context, userID, storyID int64, limit int) ([]models.DialogueMessage, error) {
	args := m.Called(ctx, userID, storyID, limit)
	messages, _ := args.Get(0).([]models.DialogueMessage)
	return messages, args.Error(1)
}

// Mock TxManager: выполняет fn сразу, без реальной транзакции.
type TxManager struct {
	mock.Mock
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(q repository.Querier) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(nil)
}
