package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DurationUnit is the unit a program's length is expressed in.
type DurationUnit string

const (
	DurationMonths    DurationUnit = "meses"
	DurationYears     DurationUnit = "años"
	DurationSemesters DurationUnit = "semestres"
)

// Months converts a duration to months. Semesters count as 6, years as 12.
func (u DurationUnit) Months(value int) int {
	switch u {
	case DurationSemesters:
		return value * 6
	case DurationYears:
		return value * 12
	default:
		return value
	}
}

// Modality values.
const (
	ModalityOnsite  = "Presencial"
	ModalityVirtual = "Virtual"
	ModalityBlended = "Semipresencial"
)

// ProgramDuration is the program length.
type ProgramDuration struct {
	Value int          `db:"value" json:"valor"`
	Unit  DurationUnit `db:"unit" json:"unidad"`
}

// ProgramCosts holds fees. Total is derived on every write.
type ProgramCosts struct {
	EnrollmentFee float64 `db:"enrollment_fee" json:"matricula"`
	MonthlyFee    float64 `db:"monthly_fee" json:"mensualidad"`
	Total         float64 `db:"total_cost" json:"totalPrograma"`
	Currency      string  `db:"currency" json:"moneda"`
}

// ProgramEnrollment tracks availability and seat accounting. A nil SeatsAvailable means unlimited.
type ProgramEnrollment struct {
	Open           bool       `db:"open" json:"disponible"`
	SeatsAvailable *int       `db:"seats_available" json:"cuposDisponibles"`
	SeatsTaken     int        `db:"seats_taken" json:"cuposOcupados"`
	StartsAt       *time.Time `db:"starts_at" json:"fechaInicio,omitempty"`
	EndsAt         *time.Time `db:"ends_at" json:"fechaCierre,omitempty"`
}

// Program is an academic offering.
type Program struct {
	ID              string            `db:"id" json:"id"`
	Name            string            `db:"name" json:"nombre"`
	Code            string            `db:"code" json:"codigo"`
	Description     string            `db:"description" json:"descripcion"`
	Duration        ProgramDuration   `db:"duration" json:"duracion"`
	Modality        string            `db:"modality" json:"modalidad"`
	Schedule        string            `db:"schedule" json:"jornada"`
	Requirements    pq.StringArray    `db:"requirements" json:"requisitos"`
	Objectives      string            `db:"objectives" json:"objetivos"`
	GraduateProfile string            `db:"graduate_profile" json:"perfilEgresado"`
	Competencies    pq.StringArray    `db:"competencies" json:"competencias"`
	JobField        string            `db:"job_field" json:"campoLaboral"`
	Subjects        pq.StringArray    `db:"subjects" json:"materias"`
	Image           string            `db:"image" json:"imagen"`
	Costs           ProgramCosts      `db:"costs" json:"costos"`
	Enrollment      ProgramEnrollment `db:"enrollment" json:"inscripcion"`
	Active          bool              `db:"active" json:"activo"`
	Featured        bool              `db:"featured" json:"destacado"`
	SortOrder       int               `db:"sort_order" json:"orden"`
	CreatedBy       *string           `db:"created_by" json:"creadoPor,omitempty"`
	UpdatedBy       *string           `db:"updated_by" json:"actualizadoPor,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updatedAt"`
}

// RecalculateTotal sets Costs.Total = enrollment fee + monthly fee * months.
func (p *Program) RecalculateTotal() {
	months := p.Duration.Unit.Months(p.Duration.Value)
	p.Costs.Total = p.Costs.EnrollmentFee + p.Costs.MonthlyFee*float64(months)
}

// SeatsRemaining is nil for unlimited programs.
func (p Program) SeatsRemaining() *int {
	if p.Enrollment.SeatsAvailable == nil {
		return nil
	}
	remaining := *p.Enrollment.SeatsAvailable - p.Enrollment.SeatsTaken
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// HasSeats reports whether another seat can be consumed.
func (p Program) HasSeats() bool {
	if p.Enrollment.SeatsAvailable == nil {
		return true
	}
	return p.Enrollment.SeatsTaken < *p.Enrollment.SeatsAvailable
}

// DurationText renders "6 meses".
func (p Program) DurationText() string {
	return fmt.Sprintf("%d %s", p.Duration.Value, p.Duration.Unit)
}

// ProgramView adds request-time derived fields.
type ProgramView struct {
	Program
	SeatsRemaining *int   `json:"cuposRestantes"`
	HasSeats       bool   `json:"tieneCupos"`
	DurationText   string `json:"duracionTexto"`
}

// View projects the derived fields.
func (p Program) View() ProgramView {
	return ProgramView{
		Program:        p,
		SeatsRemaining: p.SeatsRemaining(),
		HasSeats:       p.HasSeats(),
		DurationText:   p.DurationText(),
	}
}

// ProgramViews projects a slice.
func ProgramViews(items []Program) []ProgramView {
	out := make([]ProgramView, len(items))
	for i, p := range items {
		out[i] = p.View()
	}
	return out
}

// ProgramFilter captures list filters. PublicOnly restricts to active programs.
type ProgramFilter struct {
	Modality   string
	Featured   *bool
	Available  *bool
	Active     *bool
	PublicOnly bool
	PageQuery
}
