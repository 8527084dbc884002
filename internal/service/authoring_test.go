package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const (
	testAuthorID   = int64(111)
	testStrangerID = int64(222)
)

func newAuthoringService(
	sessions session.Store,
	storyRepo *repoMocks.StoryRepository,
	characterRepo *repoMocks.CharacterRepository,
	txManager *repoMocks.TxManager,
) *service.AuthoringService {
	return service.NewAuthoringService(
		testAuthorID, sessions, storyRepo, characterRepo, txManager, 2000, zap.NewNop(),
	)
}

func TestAuthoringStartPermission(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(zap.NewNop())
	storyRepo := new(repoMocks.StoryRepository)
	characterRepo := new(repoMocks.CharacterRepository)
	txManager := new(repoMocks.TxManager)
	svc := newAuthoringService(sessions, storyRepo, characterRepo, txManager)

	// Не-автор получает отказ, состояние не меняется
	err := svc.Start(ctx, testStrangerID)
	require.ErrorIs(t, err, models.ErrPermissionDenied)

	step, drafting, err := svc.CurrentStep(ctx, testStrangerID)
	require.NoError(t, err)
	assert.False(t, drafting)
	assert.Equal(t, models.StepIdle, step)

	// Никаких обращений к хранилищу при отказе
	storyRepo.AssertNotCalled(t, "Create")
	characterRepo.AssertNotCalled(t, "Create")
	txManager.AssertNotCalled(t, "WithinTx")
}

func TestAuthoringFullWizard(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(zap.NewNop())
	storyRepo := new(repoMocks.StoryRepository)
	characterRepo := new(repoMocks.CharacterRepository)
	txManager := new(repoMocks.TxManager)
	svc := newAuthoringService(sessions, storyRepo, characterRepo, txManager)

	require.NoError(t, svc.Start(ctx, testAuthorID))

	// Линейная часть: четыре поля истории подряд
	next, err := svc.HandleText(ctx, testAuthorID, "Хижина")
	require.NoError(t, err)
	assert.Equal(t, models.StepDescription, next)

	next, err = svc.HandleText(ctx, testAuthorID, "Заброшенная хижина в лесу")
	require.NoError(t, err)
	assert.Equal(t, models.StepHeroPast, next)

	next, err = svc.HandleText(ctx, testAuthorID, "Герой потерял брата год назад")
	require.NoError(t, err)
	assert.Equal(t, models.StepStartScene, next)

	next, err = svc.HandleText(ctx, testAuthorID, "Ты просыпаешься от стука в окно")
	require.NoError(t, err)
	assert.Equal(t, models.StepCharacterMenu, next)

	// Подмастер персонажа: имя, возраст, роль, характер, затем бинарный выбор
	require.NoError(t, svc.BeginCharacter(ctx, testAuthorID))

	next, err = svc.HandleText(ctx, testAuthorID, "Макс")
	require.NoError(t, err)
	assert.Equal(t, models.StepCharAge, next)

	next, err = svc.HandleText(ctx, testAuthorID, "30")
	require.NoError(t, err)
	assert.Equal(t, models.StepCharRole, next)

	next, err = svc.HandleText(ctx, testAuthorID, "лесник")
	require.NoError(t, err)
	assert.Equal(t, models.StepCharPersonality, next)

	next, err = svc.HandleText(ctx, testAuthorID, "мрачный, немногословный")
	require.NoError(t, err)
	assert.Equal(t, models.StepCharKnown, next)

	count, err := svc.FinishCharacter(ctx, testAuthorID, models.KnownStatusStranger)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	characters, err := svc.Characters(ctx, testAuthorID)
	require.NoError(t, err)
	require.Len(t, characters, 1)
	assert.Equal(t, "Макс", characters[0].Name)
	assert.Equal(t, models.KnownStatusStranger, characters[0].Known)

	// Коммит: история и персонаж уходят в одну транзакцию
	txManager.On("WithinTx", mock.Anything, mock.Anything).Return(nil).Once()
	storyRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(story *models.Story) bool {
		assert.Equal(t, "Хижина", story.Title)
		assert.Equal(t, "Заброшенная хижина в лесу", story.Description)
		assert.Equal(t, "Герой потерял брата год назад", story.HeroPast)
		assert.Equal(t, "Ты просыпаешься от стука в окно", story.StartScene)
		return true
	})).Return(int64(42), nil).Once()
	characterRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(c *models.Character) bool {
		assert.Equal(t, int64(42), c.StoryID)
		assert.Equal(t, "Макс", c.Name)
		// Возраст склеивается с ролью при коммите
		assert.Equal(t, "лесник (30 лет)", c.Role)
		assert.Equal(t, "мрачный, немногословный", c.Personality)
		assert.Equal(t, models.KnownStatusStranger, c.Known)
		return true
	})).Return(nil).Once()

	storyID, err := svc.Commit(ctx, testAuthorID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), storyID)

	// Черновик очищен после коммита
	_, drafting, err := svc.CurrentStep(ctx, testAuthorID)
	require.NoError(t, err)
	assert.False(t, drafting)

	storyRepo.AssertExpectations(t)
	characterRepo.AssertExpectations(t)
	txManager.AssertExpectations(t)
}

func TestAuthoringCharacterLimit(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(zap.NewNop())
	svc := newAuthoringService(sessions, new(repoMocks.StoryRepository), new(repoMocks.CharacterRepository), new(repoMocks.TxManager))

	// Черновик уже с полным составом персонажей
	draft := &models.StoryDraft{Step: models.StepCharacterMenu}
	for i := 0; i < models.MaxCharactersPerStory; i++ {
		draft.Characters = append(draft.Characters, models.CharacterDraft{
			Name: fmt.Sprintf("Персонаж %d", i+1),
		})
	}
	require.NoError(t, sessions.SaveDraft(ctx, testAuthorID, draft))

	err := svc.BeginCharacter(ctx, testAuthorID)
	require.ErrorIs(t, err, models.ErrCharacterLimit)

	// Состояние не изменилось: мастер остался в меню персонажей
	step, drafting, err := svc.CurrentStep(ctx, testAuthorID)
	require.NoError(t, err)
	assert.True(t, drafting)
	assert.Equal(t, models.StepCharacterMenu, step)

	characters, err := svc.Characters(ctx, testAuthorID)
	require.NoError(t, err)
	assert.Len(t, characters, models.MaxCharactersPerStory)
}

func TestAuthoringCommitRollback(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(zap.NewNop())
	storyRepo := new(repoMocks.StoryRepository)
	characterRepo := new(repoMocks.CharacterRepository)
	txManager := new(repoMocks.TxManager)
	svc := newAuthoringService(sessions, storyRepo, characterRepo, txManager)

	draft := &models.StoryDraft{
		Step:  models.StepCharacterMenu,
		Title: "Хижина",
		Characters: []models.CharacterDraft{
			{Name: "Макс", Role: "лесник"},
		},
	}
	require.NoError(t, sessions.SaveDraft(ctx, testAuthorID, draft))

	// Транзакция откатилась целиком
	txManager.On("WithinTx", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	_, err := svc.Commit(ctx, testAuthorID)
	require.Error(t, err)

	// Черновик сохранился: автор может повторить коммит
	step, drafting, err := svc.CurrentStep(ctx, testAuthorID)
	require.NoError(t, err)
	assert.True(t, drafting)
	assert.Equal(t, models.StepCharacterMenu, step)

	txManager.AssertExpectations(t)
}

func TestAuthoringTextTruncation(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(zap.NewNop())
	storyRepo := new(repoMocks.StoryRepository)
	characterRepo := new(repoMocks.CharacterRepository)
	txManager := new(repoMocks.TxManager)
	// Маленький лимит поля, чтобы проверить обрезку по рунам
	svc := service.NewAuthoringService(
		testAuthorID, sessions, storyRepo, characterRepo, txManager, 10, zap.NewNop(),
	)

	require.NoError(t, svc.Start(ctx, testAuthorID))

	longTitle := strings.Repeat("ж", 50)
	_, err := svc.HandleText(ctx, testAuthorID, longTitle)
	require.NoError(t, err)

	draft, ok, err := sessions.Draft(ctx, testAuthorID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("ж", 10), draft.Title)
}

func TestAuthoringNoDraft(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(zap.NewNop())
	svc := newAuthoringService(sessions, new(repoMocks.StoryRepository), new(repoMocks.CharacterRepository), new(repoMocks.TxManager))

	_, err := svc.HandleText(ctx, testAuthorID, "текст без мастера")
	assert.ErrorIs(t, err, models.ErrNoDraft)

	err = svc.BeginCharacter(ctx, testAuthorID)
	assert.ErrorIs(t, err, models.ErrNoDraft)

	_, err = svc.FinishCharacter(ctx, testAuthorID, models.KnownStatusFamiliar)
	assert.ErrorIs(t, err, models.ErrNoDraft)

	_, err = svc.Commit(ctx, testAuthorID)
	assert.ErrorIs(t, err, models.ErrNoDraft)
}
