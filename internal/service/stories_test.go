package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
	repoMocks "github.com/reanayou-arch/Horror-Studio-Bot/internal/repository/mocks"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/service"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/session"
)

func TestStoryList(t *testing.T) {
	ctx := context.Background()
	storyRepo := new(repoMocks.StoryRepository)
	svc := service.NewStoryService(session.NewMemoryStore(zap.NewNop()), storyRepo, new(repoMocks.MessageRepository), zap.NewNop())

	summaries := []models.StorySummary{
		{ID: 1, Title: "Хижина"},
		{ID: 2, Title: "Подвал"},
	}
	storyRepo.On("List", mock.Anything).Return(summaries, nil).Once()

	got, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, summaries, got)
	storyRepo.AssertExpectations(t)
}

func TestStorySelectNotFound(t *testing.T) {
	ctx := context.Background()
	userID := int64(777)
	sessions := session.NewMemoryStore(zap.NewNop())
	storyRepo := new(repoMocks.StoryRepository)
	messageRepo := new(repoMocks.MessageRepository)
	svc := service.NewStoryService(sessions, storyRepo, messageRepo, zap.NewNop())

	storyRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, models.ErrStoryNotFound).Once()

	_, err := svc.Select(ctx, userID, 99)
	require.ErrorIs(t, err, models.ErrStoryNotFound)

	// Активная сессия не назначена, нулевой ход не записан
	_, active, err := sessions.ActiveStory(ctx, userID)
	require.NoError(t, err)
	assert.False(t, active)
	messageRepo.AssertNotCalled(t, "Append")
}

func TestStorySelectStartsSession(t *testing.T) {
	ctx := context.Background()
	userID := int64(777)
	sessions := session.NewMemoryStore(zap.NewNop())
	storyRepo := new(repoMocks.StoryRepository)
	messageRepo := new(repoMocks.MessageRepository)
	svc := service.NewStoryService(sessions, storyRepo, messageRepo, zap.NewNop())

	story := &models.Story{
		ID:         3,
		Title:      "Хижина",
		StartScene: "Ты просыпаешься от стука в окно",
	}
	storyRepo.On("GetByID", mock.Anything, int64(3)).Return(story, nil).Once()
	// Вступительная сцена — нулевой ход от имени персонажа
	messageRepo.On("Append", mock.Anything, userID, int64(3), models.SenderCharacter, story.StartScene).Return(nil).Once()

	got, err := svc.Select(ctx, userID, 3)
	require.NoError(t, err)
	assert.Equal(t, story, got)

	storyID, active, err := sessions.ActiveStory(ctx, userID)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, int64(3), storyID)

	storyRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}
