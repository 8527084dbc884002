package models

import "time"

// MaxCharactersPerStory — жесткий лимит персонажей в одной истории.
// Проверяется на этапе черновика, а не при коммите.
const MaxCharactersPerStory = 15

// Story — авторский сценарий: название, описание для ИИ,
// прошлое главного героя и вступительная сцена.
// После создания история неизменяема.
type Story struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	HeroPast    string    `db:"hero_past"`
	StartScene  string    `db:"start_scene"`
	CreatedAt   time.Time `db:"created_at"`
}

// StorySummary — сокращенная версия Story для списков выбора.
type StorySummary struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

// KnownStatus показывает, знаком ли персонаж главному герою.
type KnownStatus string

const (
	KnownStatusFamiliar KnownStatus = "знакомый"
	KnownStatusStranger KnownStatus = "незнакомый"
)

// Character — неигровой персонаж, привязанный к истории.
// Его реплики пишет генератор.
type Character struct {
	ID          int64       `db:"id"`
	StoryID     int64       `db:"story_id"`
	Name        string      `db:"name"`
	Role        string      `db:"role"`
	Personality string      `db:"personality"`
	Known       KnownStatus `db:"known"`
	CreatedAt   time.Time   `db:"created_at"`
}
