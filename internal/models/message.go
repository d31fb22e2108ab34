package models

import "time"

// MessageTypes accepted for contact messages.
var MessageTypes = []string{"consulta", "sugerencia", "queja", "felicitacion", "otro"}

// Message is a contact form submission.
type Message struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"nombre"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"telefono,omitempty"`
	Subject       string     `db:"subject" json:"asunto"`
	Body          string     `db:"body" json:"mensaje"`
	Type          string     `db:"type" json:"tipo"`
	Read          bool       `db:"is_read" json:"leido"`
	Replied       bool       `db:"replied" json:"respondido"`
	Important     bool       `db:"important" json:"importante"`
	Archived      bool       `db:"archived" json:"archivado"`
	Reply         string     `db:"reply" json:"respuesta,omitempty"`
	RepliedBy     *string    `db:"replied_by" json:"respondidoPor"`
	RepliedAt     *time.Time `db:"replied_at" json:"fechaRespuesta"`
	InternalNotes string     `db:"internal_notes" json:"notasInternas,omitempty"`
	IPAddress     string     `db:"ip_address" json:"ip,omitempty"`
	UserAgent     string     `db:"user_agent" json:"navegador,omitempty"`
	Active        bool       `db:"active" json:"activo"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// MessageFilter captures list filters.
type MessageFilter struct {
	Read      *bool
	Replied   *bool
	Type      string
	Important *bool
	Archived  *bool
	PageQuery
}

// MessageStats summarises the inbox.
type MessageStats struct {
	Total     int            `json:"total"`
	Unread    int            `json:"noLeidos"`
	Unreplied int            `json:"sinResponder"`
	Important int            `json:"importantes"`
	Archived  int            `json:"archivados"`
	ByType    map[string]int `json:"porTipo"`
	ByMonth   []MonthCount   `json:"porMes"`
}

// MonthCount is a per-month total, month formatted as YYYY-MM.
type MonthCount struct {
	Month string `db:"month" json:"mes"`
	Count int    `db:"count" json:"total"`
}

// MessageCounters is the single-row aggregate behind MessageStats.
type MessageCounters struct {
	Total     int `db:"total"`
	Unread    int `db:"unread"`
	Unreplied int `db:"unreplied"`
	Important int `db:"important"`
	Archived  int `db:"archived"`
}
