package models

import "time"

// NewsCategories accepted for news.
var NewsCategories = []string{"Académica", "Administrativa", "Evento", "General"}

// News is a published article.
type News struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"titulo"`
	Content     string    `db:"content" json:"contenido"`
	Image       string    `db:"image" json:"imagen,omitempty"`
	Author      string    `db:"author" json:"autor"`
	Category    string    `db:"category" json:"categoria"`
	Featured    bool      `db:"featured" json:"destacada"`
	Active      bool      `db:"active" json:"activa"`
	PublishedAt time.Time `db:"published_at" json:"fechaPublicacion"`
	CreatedBy   *string   `db:"created_by" json:"creadoPor,omitempty"`
	UpdatedBy   *string   `db:"updated_by" json:"actualizadoPor,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewsFilter captures list filters.
type NewsFilter struct {
	Category string
	Featured *bool
	PageQuery
}
