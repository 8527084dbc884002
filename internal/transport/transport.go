// Package transport — исходящая сторона чат-платформы.
// Ядро не знает про конкретный мессенджер: ему достаточно уметь
// отправить текст и предложить выбор из подписанных вариантов.
package transport

import "context"

// Choice — один подписанный вариант выбора (кнопка).
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Transport доставляет исходящие действия пользователю.
type Transport interface {
	SendText(ctx context.Context, userID int64, text string) error
	PresentChoices(ctx context.Context, userID int64, prompt string, choices []Choice) error
}
