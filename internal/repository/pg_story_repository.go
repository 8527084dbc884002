package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

const (
	storyFields = `id, title, description, hero_past, start_scene, created_at`

	insertStoryQuery = `
        INSERT INTO stories (title, description, hero_past, start_scene)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	listStoriesQuery = `SELECT id, title FROM stories ORDER BY id`

	getStoryByIDQuery = `
        SELECT ` + storyFields + `
        FROM stories
        WHERE id = $1
    `
)

// Compile-time check to ensure pgStoryRepository implements the interface
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository создает PostgreSQL-реализацию StoryRepository.
func NewPgStoryRepository(db *pgxpool.Pool, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

// Create вставляет новую историю. Запись идет через переданный Querier,
// чтобы коммит черновика мог выполняться в одной транзакции с персонажами.
func (r *pgStoryRepository) Create(ctx context.Context, q Querier, story *models.Story) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, insertStoryQuery,
		story.Title, story.Description, story.HeroPast, story.StartScene,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert story", zap.String("title", story.Title), zap.Error(err))
		return 0, fmt.Errorf("failed to insert story: %w", err)
	}

	story.ID = id
	r.logger.Info("Story created", zap.Int64("storyID", id), zap.String("title", story.Title))
	return id, nil
}

// List возвращает все истории в порядке вставки (по id).
func (r *pgStoryRepository) List(ctx context.Context) ([]models.StorySummary, error) {
	var stories []models.StorySummary
	if err := pgxscan.Select(ctx, r.db, &stories, listStoriesQuery); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// GetByID возвращает историю по id или models.ErrStoryNotFound.
func (r *pgStoryRepository) GetByID(ctx context.Context, id int64) (*models.Story, error) {
	var story models.Story
	err := pgxscan.Get(ctx, r.db, &story, getStoryByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story not found", zap.Int64("storyID", id))
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Int64("storyID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get story %d: %w", id, err)
	}
	return &story, nil
}
