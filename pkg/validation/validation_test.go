package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"nombre" validate:"notblank"`
	Email string `json:"email" validate:"required,email"`
}

func TestDefaultUsesJSONNames(t *testing.T) {
	err := Default().Struct(sample{Name: "   "})
	require.Error(t, err)

	msg := Describe(err)
	assert.Contains(t, msg, "nombre no puede estar vacío")
	assert.Contains(t, msg, "email")
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestDescribeFallback(t *testing.T) {
	assert.Equal(t, "Datos inválidos", Describe(errors.New("boom")))
}

func TestValidPayload(t *testing.T) {
	assert.NoError(t, Default().Struct(sample{Name: "Ana", Email: "ana@example.com"}))
}
