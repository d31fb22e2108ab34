package service

import (
	"database/sql"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fundalink/fundalink-api/internal/repository"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

const minSearchLength = 3

// Field-specific messages for unique constraints.
var duplicateMessages = map[string]string{
	"users_email_key":              "El email ya está registrado",
	"programs_name_key":            "Ya existe un programa con ese nombre",
	"programs_code_key":            "Ya existe un programa con ese código",
	"students_email_key":           "Ya existe un estudiante con este email",
	"students_document_number_key": "Ya existe un estudiante con este número de documento",
}

// Collisions on generated values; the caller may simply retry.
var retryableConstraints = map[string]bool{
	"students_student_code_key":     true,
	"students_access_code_hash_key": true,
	"enrollments_student_key":       true,
}

func validationError(err error) *appErrors.Error {
	return appErrors.Invalid(err, validation.Describe(err))
}

func businessRule(message string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrBusinessRule, message)
}

func retryable(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrRetryable.Code, appErrors.ErrRetryable.Status, message)
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, mongo.ErrNoDocuments)
}

// lookupError maps a missing row to NOT_FOUND and anything else to INTERNAL_ERROR.
func lookupError(err error, notFound, internal string) *appErrors.Error {
	if isNotFound(err) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

// writeError translates unique violations and transaction conflicts before falling back to lookupError.
func writeError(err error, notFound, internal string) *appErrors.Error {
	if constraint, ok := repository.UniqueViolation(err); ok {
		if retryableConstraints[constraint] {
			return retryable(err, "Conflicto al generar códigos únicos, intenta nuevamente")
		}
		msg, known := duplicateMessages[constraint]
		if !known {
			msg = appErrors.ErrDuplicate.Message
		}
		return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, msg)
	}
	if repository.IsSerializationFailure(err) {
		return retryable(err, appErrors.ErrRetryable.Message)
	}
	return lookupError(err, notFound, internal)
}

// searchTerm trims the query and enforces the minimum length.
func searchTerm(raw string) (string, error) {
	term := strings.TrimSpace(raw)
	if len([]rune(term)) < minSearchLength {
		return "", appErrors.Clone(appErrors.ErrValidation, "La búsqueda debe tener al menos 3 caracteres")
	}
	return term, nil
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
