package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

const (
	insertMessageQuery = `
        INSERT INTO messages (user_id, story_id, sender, text)
        VALUES ($1, $2, $3, $4)
    `
	// Выборка идет от новых к старым, хронологию восстанавливаем на месте.
	recentMessagesQuery = `
        SELECT id, user_id, story_id, sender, text, created_at
        FROM messages
        WHERE user_id = $1 AND story_id = $2
        ORDER BY id DESC
        LIMIT $3
    `
)

// Compile-time check
var _ MessageRepository = (*pgMessageRepository)(nil)

type pgMessageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgMessageRepository создает PostgreSQL-реализацию MessageRepository.
func NewPgMessageRepository(db *pgxpool.Pool, logger *zap.Logger) MessageRepository {
	return &pgMessageRepository{
		db:     db,
		logger: logger.Named("PgMessageRepo"),
	}
}

// Append дописывает одну реплику в лог диалога.
func (r *pgMessageRepository) Append(ctx context.Context, userID, storyID int64, sender models.Sender, text string) error {
	_, err := r.db.Exec(ctx, insertMessageQuery, userID, storyID, string(sender), text)
	if err != nil {
		r.logger.Error("Failed to append dialogue message",
			zap.Int64("userID", userID),
			zap.Int64("storyID", storyID),
			zap.String("sender", string(sender)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Recent возвращает до limit последних сообщений в хронологическом порядке.
// Контракт для вызывающих: окно всегда отсортировано от старых к новым.
func (r *pgMessageRepository) Recent(ctx context.Context, userID, storyID int64, limit int) ([]models.DialogueMessage, error) {
	var messages []models.DialogueMessage
	if err := pgxscan.Select(ctx, r.db, &messages, recentMessagesQuery, userID, storyID, limit); err != nil {
		r.logger.Error("Failed to load recent messages",
			zap.Int64("userID", userID),
			zap.Int64("storyID", storyID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}

	// Разворачиваем newest-first в хронологический порядок
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
