package models

import "time"

// EnrollmentStatus is the lifecycle state of an application.
type EnrollmentStatus string

const (
	EnrollmentPending      EnrollmentStatus = "pendiente"
	EnrollmentInReview     EnrollmentStatus = "en_revision"
	EnrollmentApproved     EnrollmentStatus = "aprobado"
	EnrollmentRejected     EnrollmentStatus = "rechazado"
	EnrollmentMatriculated EnrollmentStatus = "matriculado"
	EnrollmentCancelled    EnrollmentStatus = "cancelado"
)

// EnrollmentStatuses lists every state in lifecycle order.
var EnrollmentStatuses = []EnrollmentStatus{
	EnrollmentPending, EnrollmentInReview, EnrollmentApproved,
	EnrollmentRejected, EnrollmentMatriculated, EnrollmentCancelled,
}

// OpenEnrollmentStatuses block a second application for the same person.
var OpenEnrollmentStatuses = []EnrollmentStatus{EnrollmentPending, EnrollmentInReview, EnrollmentApproved}

var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentPending:  {EnrollmentInReview, EnrollmentApproved, EnrollmentRejected, EnrollmentCancelled},
	EnrollmentInReview: {EnrollmentApproved, EnrollmentRejected, EnrollmentCancelled},
	EnrollmentApproved: {EnrollmentRejected, EnrollmentCancelled},
	EnrollmentRejected: {},
}

// Terminal reports whether no further change is allowed.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentMatriculated || s == EnrollmentCancelled
}

// CanTransitionTo reports whether a manual status change is allowed.
// Re-setting the current state is allowed outside terminal states so notes can be edited.
// Matriculated is only reachable through matriculation.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	if s.Terminal() || next == EnrollmentMatriculated {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range enrollmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Priority of an application.
type Priority string

const (
	PriorityLow    Priority = "baja"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

// Enrollment is a public application to join a program.
type Enrollment struct {
	ID                string           `db:"id" json:"id"`
	FullName          string           `db:"full_name" json:"nombreCompleto"`
	Document          Document         `db:"document" json:"documento"`
	Email             string           `db:"email" json:"email"`
	Phone             string           `db:"phone" json:"telefono"`
	BirthDate         *time.Time       `db:"birth_date" json:"fechaNacimiento,omitempty"`
	Gender            string           `db:"gender" json:"genero"`
	Address           Address          `db:"address" json:"direccion"`
	ProgramID         string           `db:"program_id" json:"programa"`
	ProgramName       string           `db:"program_name" json:"programaNombre,omitempty"`
	PreferredSchedule string           `db:"preferred_schedule" json:"jornadaPreferida"`
	EducationLevel    string           `db:"education_level" json:"nivelEducativo"`
	CurrentlyWorking  bool             `db:"currently_working" json:"trabajaActualmente"`
	CurrentCompany    string           `db:"current_company" json:"empresaActual,omitempty"`
	Motivation        string           `db:"motivation" json:"motivacion"`
	Referral          string           `db:"referral" json:"comoSeEntero"`
	EmergencyContact  EmergencyContact `db:"emergency" json:"contactoEmergencia"`
	Status            EnrollmentStatus `db:"status" json:"estado"`
	Priority          Priority         `db:"priority" json:"prioridad"`
	SubmittedAt       time.Time        `db:"submitted_at" json:"fechaSolicitud"`
	ReviewedAt        *time.Time       `db:"reviewed_at" json:"fechaRevision"`
	RespondedAt       *time.Time       `db:"responded_at" json:"fechaRespuesta"`
	MatriculatedAt    *time.Time       `db:"matriculated_at" json:"fechaMatricula"`
	AdminNotes        string           `db:"admin_notes" json:"observacionesAdmin,omitempty"`
	RejectionReason   string           `db:"rejection_reason" json:"motivoRechazo,omitempty"`
	ReviewedBy        *string          `db:"reviewed_by" json:"revisadoPor"`
	StudentID         *string          `db:"student_id" json:"estudianteCreado"`
	Active            bool             `db:"active" json:"activo"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
}

// Matriculated reports whether a student was already produced.
func (e Enrollment) Matriculated() bool {
	return e.StudentID != nil && *e.StudentID != ""
}

// ToStudent derives the student record created on matriculation.
func (e Enrollment) ToStudent(now time.Time) *Student {
	given, family := SplitFullName(e.FullName)
	return &Student{
		FirstName:        given,
		LastName:         family,
		Document:         e.Document,
		Email:            e.Email,
		Phone:            e.Phone,
		BirthDate:        e.BirthDate,
		Gender:           e.Gender,
		Address:          e.Address,
		ProgramID:        e.ProgramID,
		Status:           StudentActive,
		Schedule:         e.PreferredSchedule,
		EnrolledAt:       now,
		EmergencyContact: e.EmergencyContact,
		Active:           true,
	}
}

// EnrollmentView adds request-time derived fields.
type EnrollmentView struct {
	Enrollment
	Age          *int   `json:"edad"`
	FullDocument string `json:"documentoCompleto"`
}

// View projects the derived fields.
func (e Enrollment) View() EnrollmentView {
	return EnrollmentView{Enrollment: e, Age: AgeAt(e.BirthDate, time.Now()), FullDocument: e.Document.String()}
}

// EnrollmentViews projects a slice.
func EnrollmentViews(items []Enrollment) []EnrollmentView {
	out := make([]EnrollmentView, len(items))
	for i, e := range items {
		out[i] = e.View()
	}
	return out
}

// EnrollmentFilter captures list filters.
type EnrollmentFilter struct {
	Status    EnrollmentStatus
	ProgramID string
	Priority  Priority
	PageQuery
}

// EnrollmentStats summarises applications by status and program.
type EnrollmentStats struct {
	Total     int                      `json:"total"`
	ByStatus  map[EnrollmentStatus]int `json:"porEstado"`
	ByProgram []ProgramEnrollmentCount `json:"porPrograma"`
}

// ProgramEnrollmentCount is one row of the per-program breakdown.
type ProgramEnrollmentCount struct {
	ProgramID   string `db:"program_id" json:"programaId"`
	ProgramName string `db:"program_name" json:"programa"`
	Count       int    `db:"count" json:"total"`
}

// StatusCount is a grouped count row.
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}
