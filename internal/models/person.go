package models

import (
	"strings"
	"time"
)

// DocumentType enumerates accepted identity documents.
type DocumentType string

const (
	DocumentCC       DocumentType = "CC"
	DocumentTI       DocumentType = "TI"
	DocumentCE       DocumentType = "CE"
	DocumentPassport DocumentType = "Pasaporte"
)

// Document is an identity document.
type Document struct {
	Type   DocumentType `db:"type" json:"tipo" validate:"required,oneof=CC TI CE Pasaporte"`
	Number string       `db:"number" json:"numero" validate:"required,max=30"`
}

// String renders "CC 123456".
func (d Document) String() string {
	return strings.TrimSpace(string(d.Type) + " " + d.Number)
}

// Address is a postal address. Only the city and department are required for applications.
type Address struct {
	Street     string `db:"street" json:"calle"`
	City       string `db:"city" json:"ciudad"`
	Department string `db:"department" json:"departamento"`
	PostalCode string `db:"postal_code" json:"codigoPostal,omitempty"`
}

// EmergencyContact is who to call for a student or applicant.
type EmergencyContact struct {
	Name     string `db:"name" json:"nombre" validate:"required"`
	Relation string `db:"relation" json:"relacion" validate:"required"`
	Phone    string `db:"phone" json:"telefono" validate:"required"`
}

// Genders accepted on personal records.
var Genders = []string{"Masculino", "Femenino", "Otro", "Prefiero no decir"}

// Schedules accepted for programs, students and applications.
var Schedules = []string{"Diurna", "Nocturna", "Mixta", "Fines de semana"}

// AgeAt returns whole years between birth and now, or nil when birth is unknown.
func AgeAt(birth *time.Time, now time.Time) *int {
	if birth == nil || birth.IsZero() {
		return nil
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return &age
}

// SplitFullName splits on whitespace: the first token is the given name, the rest the family name.
func SplitFullName(full string) (given, family string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
