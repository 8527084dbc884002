package session_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/session"
)

// RedisStoreIntegrationSuite гоняет хранилище сессий на реальном Redis.
type RedisStoreIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	rdContainer *tcredis.RedisContainer
	redisClient *redis.Client
	store       session.Store
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.store = session.NewRedisStore(s.redisClient, zap.NewNop())
}

func (s *RedisStoreIntegrationSuite) TearDownSuite() {
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushAll(s.ctx).Err())
}

func (s *RedisStoreIntegrationSuite) TestDraftRoundTrip() {
	userID := int64(111)

	_, ok, err := s.store.Draft(s.ctx, userID)
	s.Require().NoError(err)
	s.False(ok)

	draft := &models.StoryDraft{
		Step:        models.StepCharacterMenu,
		Title:       "Хижина",
		Description: "Заброшенная хижина в лесу",
		HeroPast:    "Герой потерял брата",
		StartScene:  "Стук в окно",
		Characters: []models.CharacterDraft{
			{Name: "Макс", Age: "30", Role: "лесник", Personality: "мрачный", Known: models.KnownStatusStranger},
		},
		Pending: models.CharacterDraft{Name: "Аня"},
	}
	s.Require().NoError(s.store.SaveDraft(s.ctx, userID, draft))

	got, ok, err := s.store.Draft(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().True(ok)
	// Состояние мастера переживает сериализацию целиком
	s.Equal(draft, got)

	s.Require().NoError(s.store.ClearDraft(s.ctx, userID))
	_, ok, err = s.store.Draft(s.ctx, userID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreIntegrationSuite) TestClearDraftIdempotent() {
	s.Require().NoError(s.store.ClearDraft(s.ctx, 404))
}

func (s *RedisStoreIntegrationSuite) TestActiveStory() {
	userID := int64(777)

	_, active, err := s.store.ActiveStory(s.ctx, userID)
	s.Require().NoError(err)
	s.False(active)

	s.Require().NoError(s.store.SetActiveStory(s.ctx, userID, 3))

	storyID, active, err := s.store.ActiveStory(s.ctx, userID)
	s.Require().NoError(err)
	s.True(active)
	s.Equal(int64(3), storyID)

	// Переключение затирает прежний выбор
	s.Require().NoError(s.store.SetActiveStory(s.ctx, userID, 5))
	storyID, _, err = s.store.ActiveStory(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(int64(5), storyID)
}

func (s *RedisStoreIntegrationSuite) TestUsersIsolated() {
	s.Require().NoError(s.store.SetActiveStory(s.ctx, 1, 3))

	_, active, err := s.store.ActiveStory(s.ctx, 2)
	s.Require().NoError(err)
	s.False(active)
}
