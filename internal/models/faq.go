package models

import "time"

// FAQCategories accepted for FAQs, in display order.
var FAQCategories = []string{"Inscripción", "Programas", "Pagos", "General", "Servicios", "Requisitos", "Horarios"}

// FAQ is a frequently asked question.
type FAQ struct {
	ID         string    `db:"id" json:"id"`
	Question   string    `db:"question" json:"pregunta"`
	Answer     string    `db:"answer" json:"respuesta"`
	Category   string    `db:"category" json:"categoria"`
	SortOrder  int       `db:"sort_order" json:"orden"`
	Active     bool      `db:"active" json:"activo"`
	Views      int       `db:"views" json:"vistas"`
	Helpful    int       `db:"helpful" json:"util"`
	NotHelpful int       `db:"not_helpful" json:"noUtil"`
	CreatedBy  *string   `db:"created_by" json:"creadoPor,omitempty"`
	UpdatedBy  *string   `db:"updated_by" json:"actualizadoPor,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// FAQGroup is the public grouping by category.
type FAQGroup struct {
	Category string `json:"categoria"`
	FAQs     []FAQ  `json:"faqs"`
}

// GroupFAQs groups by category preserving the input order inside each group
// and the first-seen order of categories.
func GroupFAQs(items []FAQ) []FAQGroup {
	index := make(map[string]int)
	groups := make([]FAQGroup, 0)
	for _, f := range items {
		i, ok := index[f.Category]
		if !ok {
			i = len(groups)
			index[f.Category] = i
			groups = append(groups, FAQGroup{Category: f.Category})
		}
		groups[i].FAQs = append(groups[i].FAQs, f)
	}
	return groups
}

// FAQFilter captures list filters.
type FAQFilter struct {
	Category   string
	Active     *bool
	PublicOnly bool
	PageQuery
}

// FAQStats summarises the FAQ catalogue.
type FAQStats struct {
	Total      int            `json:"total"`
	Active     int            `json:"activas"`
	ByCategory map[string]int `json:"porCategoria"`
	TopViewed  []FAQ          `json:"masVistas"`
}
