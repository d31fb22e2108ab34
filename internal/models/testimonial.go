package models

import "time"

// Testimonial is a graduate's review. It is public only when approved and active.
type Testimonial struct {
	ID          string     `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"nombre"`
	LastName    string     `db:"last_name" json:"apellido"`
	Email       string     `db:"email" json:"email"`
	Photo       string     `db:"photo" json:"foto,omitempty"`
	Body        string     `db:"body" json:"testimonio"`
	Program     string     `db:"program" json:"programa"`
	Cohort      string     `db:"cohort" json:"promocion"`
	Occupation  string     `db:"occupation" json:"ocupacionActual,omitempty"`
	Company     string     `db:"company" json:"empresaActual,omitempty"`
	Rating      int        `db:"rating" json:"calificacion"`
	Featured    bool       `db:"featured" json:"destacado"`
	Approved    bool       `db:"approved" json:"aprobado"`
	Active      bool       `db:"active" json:"activo"`
	PublishedAt *time.Time `db:"published_at" json:"fechaPublicacion"`
	ApprovedBy  *string    `db:"approved_by" json:"aprobadoPor"`
	ApprovedAt  *time.Time `db:"approved_at" json:"fechaAprobacion"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// Public reports whether the testimonial may be shown on the site.
func (t Testimonial) Public() bool {
	return t.Approved && t.Active
}

// TestimonialView adds the full name.
type TestimonialView struct {
	Testimonial
	FullName string `json:"nombreCompleto"`
}

// View projects the derived fields.
func (t Testimonial) View() TestimonialView {
	return TestimonialView{Testimonial: t, FullName: t.FirstName + " " + t.LastName}
}

// TestimonialViews projects a slice.
func TestimonialViews(items []Testimonial) []TestimonialView {
	out := make([]TestimonialView, len(items))
	for i, t := range items {
		out[i] = t.View()
	}
	return out
}

// TestimonialFilter captures list filters. PublicOnly restricts to approved and active.
type TestimonialFilter struct {
	Featured   *bool
	Approved   *bool
	Active     *bool
	Program    string
	PublicOnly bool
	PageQuery
}
