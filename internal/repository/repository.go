package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

// Querier — общий интерфейс для *pgxpool.Pool и pgx.Tx.
// Позволяет выполнять запросы как в пуле, так и внутри транзакции.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager выполняет функцию внутри одной транзакции БД.
// Используется для атомарного коммита истории вместе с персонажами.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(q Querier) error) error
}

// StoryRepository — durable-хранилище историй.
type StoryRepository interface {
	// Create вставляет историю и возвращает присвоенный id.
	// Принимает Querier, чтобы запись могла идти в транзакции.
	Create(ctx context.Context, q Querier, story *models.Story) (int64, error)
	// List возвращает (id, title) всех историй в порядке id.
	List(ctx context.Context) ([]models.StorySummary, error)
	// GetByID возвращает историю или models.ErrStoryNotFound.
	GetByID(ctx context.Context, id int64) (*models.Story, error)
}

// CharacterRepository — durable-хранилище персонажей.
type CharacterRepository interface {
	Create(ctx context.Context, q Querier, character *models.Character) error
	ListByStory(ctx context.Context, storyID int64) ([]models.Character, error)
}

// MessageRepository — append-only лог диалогов.
type MessageRepository interface {
	Append(ctx context.Context, userID, storyID int64, sender models.Sender, text string) error
	// Recent возвращает не более limit последних сообщений пары
	// (пользователь, история) в хронологическом порядке независимо
	// от порядка выборки из БД.
	Recent(ctx context.Context, userID, storyID int64, limit int) ([]models.DialogueMessage, error)
}
