package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestNewPaginationCeil(t *testing.T) {
	p := NewPagination(45, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(0, 1, 20).TotalPages)
	assert.Equal(t, 1, NewPagination(20, 1, 20).TotalPages)
}

func TestPageQueryNormalize(t *testing.T) {
	q := PageQuery{}.Normalize(20)
	assert.Equal(t, PageQuery{Page: 1, Limit: 20}, q)

	q = PageQuery{Page: 3, Limit: 500}.Normalize(20)
	assert.Equal(t, MaxPageSize, q.Limit)
	assert.Equal(t, 200, q.Offset())
}

func TestEnrollmentTransitions(t *testing.T) {
	cases := []struct {
		from, to EnrollmentStatus
		allowed  bool
	}{
		{EnrollmentPending, EnrollmentInReview, true},
		{EnrollmentPending, EnrollmentApproved, true},
		{EnrollmentInReview, EnrollmentPending, false},
		{EnrollmentApproved, EnrollmentCancelled, true},
		{EnrollmentApproved, EnrollmentInReview, false},
		{EnrollmentApproved, EnrollmentMatriculated, false},
		{EnrollmentRejected, EnrollmentRejected, true},
		{EnrollmentRejected, EnrollmentApproved, false},
		{EnrollmentMatriculated, EnrollmentMatriculated, false},
		{EnrollmentCancelled, EnrollmentPending, false},
		{EnrollmentInReview, EnrollmentInReview, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestProgramTotalAndSeats(t *testing.T) {
	p := Program{
		Duration: ProgramDuration{Value: 2, Unit: DurationSemesters},
		Costs:    ProgramCosts{EnrollmentFee: 100000, MonthlyFee: 50000},
	}
	p.RecalculateTotal()
	assert.Equal(t, float64(700000), p.Costs.Total)

	p.Duration = ProgramDuration{Value: 1, Unit: DurationYears}
	p.RecalculateTotal()
	assert.Equal(t, float64(700000), p.Costs.Total)

	assert.True(t, p.HasSeats())
	assert.Nil(t, p.SeatsRemaining())

	p.Enrollment.SeatsAvailable = intPtr(10)
	p.Enrollment.SeatsTaken = 10
	assert.False(t, p.HasSeats())
	assert.Equal(t, 0, *p.View().SeatsRemaining)
	assert.Equal(t, "1 años", p.View().DurationText)
}

func TestEnrollmentToStudentSplitsName(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e := Enrollment{
		FullName:          "  María José   Pérez Gómez ",
		Document:          Document{Type: DocumentCC, Number: "1020"},
		ProgramID:         "prog-1",
		PreferredSchedule: "Nocturna",
	}
	s := e.ToStudent(now)
	assert.Equal(t, "María", s.FirstName)
	assert.Equal(t, "José Pérez Gómez", s.LastName)
	assert.Equal(t, StudentActive, s.Status)
	assert.Equal(t, "Nocturna", s.Schedule)
	assert.Equal(t, now, s.EnrolledAt)
	assert.True(t, s.Active)
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, *AgeAt(&birth, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, *AgeAt(&birth, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, AgeAt(nil, time.Now()))
}

func TestEventDerivedFields(t *testing.T) {
	now := time.Now()
	e := Event{Date: now.Add(-time.Hour), MaxCapacity: intPtr(2), RegisteredCount: 2}
	v := e.View(now)
	assert.True(t, v.Past)
	assert.True(t, v.Full)
	assert.Equal(t, 0, *v.SeatsRemaining)
}

func TestGroupFAQsKeepsOrder(t *testing.T) {
	groups := GroupFAQs([]FAQ{
		{ID: "1", Category: "Pagos"},
		{ID: "2", Category: "General"},
		{ID: "3", Category: "Pagos"},
	})
	assert.Len(t, groups, 2)
	assert.Equal(t, "Pagos", groups[0].Category)
	assert.Len(t, groups[0].FAQs, 2)
}

func TestStudentViewHidesAccessCode(t *testing.T) {
	s := Student{FirstName: "Ana", LastName: "Ruiz", AccessCodeHash: "$2a$10$hash", Document: Document{Type: DocumentTI, Number: "9"}}
	v := s.View()
	assert.Equal(t, "Ana Ruiz", v.FullNameText)
	assert.Equal(t, "TI 9", v.FullDocument)

	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "$2a$10$hash")
	assert.Contains(t, string(raw), `"nombreCompleto":"Ana Ruiz"`)
}
