package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

// Compile-time check
var _ Store = (*redisStore)(nil)

type redisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore создает Redis-реализацию хранилища сессий.
// Черновики сериализуются в JSON; TTL не ставим — жизненный цикл
// черновика завершает коммит или перезапуск мастера.
func NewRedisStore(client *redis.Client, logger *zap.Logger) Store {
	return &redisStore{
		client: client,
		logger: logger.Named("RedisSessionStore"),
	}
}

func draftKey(userID int64) string {
	return fmt.Sprintf("draft:%d", userID)
}

func activeStoryKey(userID int64) string {
	return fmt.Sprintf("active_story:%d", userID)
}

func (s *redisStore) Draft(ctx context.Context, userID int64) (*models.StoryDraft, bool, error) {
	data, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		s.logger.Error("Failed to get draft from redis", zap.Int64("userID", userID), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get draft from redis: %w", err)
	}

	var draft models.StoryDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		s.logger.Error("Failed to unmarshal draft", zap.Int64("userID", userID), zap.Error(err))
		return nil, false, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, true, nil
}

func (s *redisStore) SaveDraft(ctx context.Context, userID int64, draft *models.StoryDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	if err := s.client.Set(ctx, draftKey(userID), data, 0).Err(); err != nil {
		s.logger.Error("Failed to save draft to redis", zap.Int64("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to save draft to redis: %w", err)
	}
	return nil
}

func (s *redisStore) ClearDraft(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		s.logger.Error("Failed to clear draft in redis", zap.Int64("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to clear draft in redis: %w", err)
	}
	return nil
}

func (s *redisStore) ActiveStory(ctx context.Context, userID int64) (int64, bool, error) {
	val, err := s.client.Get(ctx, activeStoryKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		s.logger.Error("Failed to get active story from redis", zap.Int64("userID", userID), zap.Error(err))
		return 0, false, fmt.Errorf("failed to get active story from redis: %w", err)
	}

	storyID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupted active story value %q: %w", val, err)
	}
	return storyID, true, nil
}

func (s *redisStore) SetActiveStory(ctx context.Context, userID, storyID int64) error {
	if err := s.client.Set(ctx, activeStoryKey(userID), strconv.FormatInt(storyID, 10), 0).Err(); err != nil {
		s.logger.Error("Failed to set active story in redis",
			zap.Int64("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to set active story in redis: %w", err)
	}
	return nil
}
