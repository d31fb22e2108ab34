package models

import "time"

// EventTypes accepted for events.
var EventTypes = []string{"Académico", "Cultural", "Deportivo", "Institucional", "Social"}

// Event is a public institutional event. A nil MaxCapacity means unlimited.
type Event struct {
	ID                   string    `db:"id" json:"id"`
	Name                 string    `db:"name" json:"nombre"`
	Description          string    `db:"description" json:"descripcion"`
	Date                 time.Time `db:"event_date" json:"fecha"`
	StartTime            string    `db:"start_time" json:"horaInicio"`
	EndTime              string    `db:"end_time" json:"horaFin,omitempty"`
	Location             string    `db:"location" json:"lugar"`
	Image                string    `db:"image" json:"imagen,omitempty"`
	Type                 string    `db:"type" json:"tipo"`
	MaxCapacity          *int      `db:"max_capacity" json:"capacidadMaxima"`
	RegisteredCount      int       `db:"registered_count" json:"inscritosCount"`
	RequiresRegistration bool      `db:"requires_registration" json:"requiereInscripcion"`
	Featured             bool      `db:"featured" json:"destacado"`
	Active               bool      `db:"active" json:"activo"`
	Organizer            string    `db:"organizer" json:"organizador"`
	CreatedBy            *string   `db:"created_by" json:"creadoPor,omitempty"`
	UpdatedBy            *string   `db:"updated_by" json:"actualizadoPor,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

// IsPast reports whether the event date is before now.
func (e Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// IsFull reports whether a bounded event has no room left.
func (e Event) IsFull() bool {
	return e.MaxCapacity != nil && e.RegisteredCount >= *e.MaxCapacity
}

// SeatsRemaining is nil when the event is unbounded.
func (e Event) SeatsRemaining() *int {
	if e.MaxCapacity == nil {
		return nil
	}
	remaining := *e.MaxCapacity - e.RegisteredCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// EventView adds request-time derived fields.
type EventView struct {
	Event
	Past           bool `json:"esPasado"`
	Full           bool `json:"estaLleno"`
	SeatsRemaining *int `json:"cuposRestantes"`
}

// View projects the derived fields at now.
func (e Event) View(now time.Time) EventView {
	return EventView{Event: e, Past: e.IsPast(now), Full: e.IsFull(), SeatsRemaining: e.SeatsRemaining()}
}

// EventViews projects a slice.
func EventViews(items []Event, now time.Time) []EventView {
	out := make([]EventView, len(items))
	for i, e := range items {
		out[i] = e.View(now)
	}
	return out
}

// EventFilter captures list filters. Upcoming limits to events dated from now.
type EventFilter struct {
	Type     string
	Featured *bool
	Upcoming bool
	PageQuery
}
