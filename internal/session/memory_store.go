package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

// Compile-time check
var _ Store = (*memoryStore)(nil)

type memoryStore struct {
	mu            sync.RWMutex
	drafts        map[int64]*models.StoryDraft
	activeStories map[int64]int64
	logger        *zap.Logger
}

// NewMemoryStore создает in-memory хранилище сессий.
func NewMemoryStore(logger *zap.Logger) Store {
	return &memoryStore{
		drafts:        make(map[int64]*models.StoryDraft),
		activeStories: make(map[int64]int64),
		logger:        logger.Named("MemorySessionStore"),
	}
}

func (s *memoryStore) Draft(_ context.Context, userID int64) (*models.StoryDraft, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts[userID]
	if !ok {
		return nil, false, nil
	}
	// Возвращаем копию: вызывающий меняет черновик и сохраняет его явно
	cp := *draft
	cp.Characters = append([]models.CharacterDraft(nil), draft.Characters...)
	return &cp, true, nil
}

func (s *memoryStore) SaveDraft(_ context.Context, userID int64, draft *models.StoryDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *draft
	cp.Characters = append([]models.CharacterDraft(nil), draft.Characters...)
	s.drafts[userID] = &cp
	return nil
}

func (s *memoryStore) ClearDraft(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, userID)
	s.logger.Debug("Draft cleared", zap.Int64("userID", userID))
	return nil
}

func (s *memoryStore) ActiveStory(_ context.Context, userID int64) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storyID, ok := s.activeStories[userID]
	return storyID, ok, nil
}

func (s *memoryStore) SetActiveStory(_ context.Context, userID, storyID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeStories[userID] = storyID
	return nil
}
