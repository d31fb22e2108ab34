package models

import "time"

// StudentStatus is the academic state of a student.
type StudentStatus string

const (
	StudentActive    StudentStatus = "activo"
	StudentInactive  StudentStatus = "inactivo"
	StudentGraduated StudentStatus = "graduado"
	StudentWithdrawn StudentStatus = "retirado"
	StudentSuspended StudentStatus = "suspendido"
)

// Valid reports whether the status is known.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentInactive, StudentGraduated, StudentWithdrawn, StudentSuspended:
		return true
	}
	return false
}

// Student is a matriculated learner. AccessCodeHash is write-only and never serialised.
type Student struct {
	ID               string           `db:"id" json:"id"`
	FirstName        string           `db:"first_name" json:"nombre"`
	LastName         string           `db:"last_name" json:"apellido"`
	Document         Document         `db:"document" json:"documento"`
	Email            string           `db:"email" json:"email"`
	Phone            string           `db:"phone" json:"telefono"`
	BirthDate        *time.Time       `db:"birth_date" json:"fechaNacimiento,omitempty"`
	Gender           string           `db:"gender" json:"genero"`
	Address          Address          `db:"address" json:"direccion"`
	ProgramID        string           `db:"program_id" json:"programa"`
	ProgramName      string           `db:"program_name" json:"-"`
	StudentCode      string           `db:"student_code" json:"codigoEstudiante"`
	AccessCodeHash   string           `db:"access_code_hash" json:"-"`
	Status           StudentStatus    `db:"status" json:"estado"`
	Schedule         string           `db:"schedule" json:"jornada"`
	EnrolledAt       time.Time        `db:"enrolled_at" json:"fechaInscripcion"`
	StartDate        *time.Time       `db:"start_date" json:"fechaInicio"`
	GraduatedAt      *time.Time       `db:"graduated_at" json:"fechaGraduacion"`
	EmergencyContact EmergencyContact `db:"emergency" json:"contactoEmergencia"`
	Photo            string           `db:"photo" json:"foto,omitempty"`
	Notes            string           `db:"notes" json:"observaciones,omitempty"`
	Active           bool             `db:"active" json:"activo"`
	LastAccess       *time.Time       `db:"last_access" json:"ultimoAcceso"`
	CreatedBy        *string          `db:"created_by" json:"creadoPor,omitempty"`
	UpdatedBy        *string          `db:"updated_by" json:"actualizadoPor,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// FullName joins given and family names.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// CanSignIn reports whether the student may authenticate.
func (s Student) CanSignIn() bool {
	return s.Active && s.Status == StudentActive
}

// StudentView adds request-time derived fields.
type StudentView struct {
	Student
	FullNameText string `json:"nombreCompleto"`
	Age          *int   `json:"edad"`
	FullDocument string `json:"documentoCompleto"`
	ProgramText  string `json:"programaNombre,omitempty"`
}

// View projects the derived fields.
func (s Student) View() StudentView {
	return StudentView{
		Student:      s,
		FullNameText: s.FullName(),
		Age:          AgeAt(s.BirthDate, time.Now()),
		FullDocument: s.Document.String(),
		ProgramText:  s.ProgramName,
	}
}

// StudentViews projects a slice.
func StudentViews(items []Student) []StudentView {
	out := make([]StudentView, len(items))
	for i, s := range items {
		out[i] = s.View()
	}
	return out
}

// StudentFilter captures list filters.
type StudentFilter struct {
	Status    StudentStatus
	ProgramID string
	Schedule  string
	PageQuery
}

// Matriculation is the one-time response of matriculation or direct registration.
// AccessCode is the plaintext credential and is never stored.
type Matriculation struct {
	Student    StudentView `json:"estudiante"`
	AccessCode string      `json:"codigoAccesoTemporal"`
	Message    string      `json:"mensaje,omitempty"`
}
