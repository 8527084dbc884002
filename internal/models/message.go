package models

import "time"

// Sender — кто написал сообщение в диалоге.
type Sender string

const (
	SenderPlayer    Sender = "player"
	SenderCharacter Sender = "character"
)

// DialogueMessage — одна реплика диалога (игрок, история).
// Лог append-only: записи не изменяются и не удаляются,
// порядок задается только id.
type DialogueMessage struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	StoryID   int64     `db:"story_id"`
	Sender    Sender    `db:"sender"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}
