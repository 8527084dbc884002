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
	insertCharacterQuery = `
        INSERT INTO characters (story_id, name, role, personality, known)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	listCharactersByStoryQuery = `
        SELECT id, story_id, name, role, personality, known, created_at
        FROM characters
        WHERE story_id = $1
        ORDER BY id
    `
)

// Compile-time check
var _ CharacterRepository = (*pgCharacterRepository)(nil)

type pgCharacterRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgCharacterRepository создает PostgreSQL-реализацию CharacterRepository.
func NewPgCharacterRepository(db *pgxpool.Pool, logger *zap.Logger) CharacterRepository {
	return &pgCharacterRepository{
		db:     db,
		logger: logger.Named("PgCharacterRepo"),
	}
}

// Create вставляет персонажа. Персонаж никогда не существует без
// родительской истории, поэтому запись обычно идет в транзакции коммита.
func (r *pgCharacterRepository) Create(ctx context.Context, q Querier, character *models.Character) error {
	var id int64
	err := q.QueryRow(ctx, insertCharacterQuery,
		character.StoryID, character.Name, character.Role, character.Personality, string(character.Known),
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert character",
			zap.Int64("storyID", character.StoryID),
			zap.String("name", character.Name),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert character: %w", err)
	}

	character.ID = id
	return nil
}

// ListByStory возвращает всех персонажей истории в порядке добавления.
func (r *pgCharacterRepository) ListByStory(ctx context.Context, storyID int64) ([]models.Character, error) {
	var characters []models.Character
	if err := pgxscan.Select(ctx, r.db, &characters, listCharactersByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to list characters", zap.Int64("storyID", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list characters for story %d: %w", storyID, err)
	}
	return characters, nil
}
