// Package session хранит эфемерное состояние пользователей:
// черновики мастера создания истории и указатель активной истории игрока.
// Записи приватны для каждого user id; дисциплина single-writer-per-key
// обеспечивается диспетчером, который сериализует события одного пользователя.
package session

import (
	"context"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

// Store — хранилище сессий. Реализации: in-memory (по умолчанию)
// и Redis (сессии переживают рестарт процесса).
type Store interface {
	// Draft возвращает черновик автора и признак его наличия.
	Draft(ctx context.Context, userID int64) (*models.StoryDraft, bool, error)
	// SaveDraft сохраняет черновик, перезаписывая прежний.
	SaveDraft(ctx context.Context, userID int64, draft *models.StoryDraft) error
	// ClearDraft удаляет черновик (коммит или отказ от мастера).
	ClearDraft(ctx context.Context, userID int64) error

	// ActiveStory возвращает id истории, которую игрок сейчас проходит.
	ActiveStory(ctx context.Context, userID int64) (int64, bool, error)
	// SetActiveStory назначает игроку активную историю,
	// затирая предыдущий выбор.
	SetActiveStory(ctx context.Context, userID, storyID int64) error
}
