package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/export"
)

const exportDateLayout = "2006-01-02"

type enrollmentExportSource interface {
	ListForExport(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error)
}

type studentExportSource interface {
	ListForExport(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders enrollment and student listings as CSV or PDF.
type ExportService struct {
	enrollments enrollmentExportSource
	students    studentExportSource
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(enrollments enrollmentExportSource, students studentExportSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{enrollments: enrollments, students: students, logger: logger, now: time.Now}
}

// Enrollments exports applications matching filter.
func (s *ExportService) Enrollments(ctx context.Context, filter models.EnrollmentFilter, rawFormat string) (*ExportFile, error) {
	format, err := parseExportFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	items, err := s.enrollments.ListForExport(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al exportar inscripciones")
	}

	table := export.Table{
		Title: "Inscripciones",
		Columns: []export.Column{
			{Title: "Fecha", Width: 1}, {Title: "Nombre", Width: 2}, {Title: "Documento", Width: 1.4},
			{Title: "Email", Width: 2}, {Title: "Teléfono", Width: 1.2}, {Title: "Programa", Width: 2},
			{Title: "Jornada", Width: 1}, {Title: "Estado", Width: 1}, {Title: "Prioridad", Width: 0.8},
		},
		Rows: make([][]string, 0, len(items)),
	}
	for _, e := range items {
		table.Rows = append(table.Rows, []string{
			e.SubmittedAt.Format(exportDateLayout), e.FullName, e.Document.String(),
			e.Email, e.Phone, e.ProgramName,
			e.PreferredSchedule, string(e.Status), string(e.Priority),
		})
	}
	return s.render(table, format, "inscripciones")
}

// Students exports students matching filter.
func (s *ExportService) Students(ctx context.Context, filter models.StudentFilter, rawFormat string) (*ExportFile, error) {
	format, err := parseExportFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	items, err := s.students.ListForExport(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al exportar estudiantes")
	}

	table := export.Table{
		Title: "Estudiantes",
		Columns: []export.Column{
			{Title: "Código", Width: 1.2}, {Title: "Nombre", Width: 2}, {Title: "Documento", Width: 1.4},
			{Title: "Email", Width: 2}, {Title: "Programa", Width: 2}, {Title: "Jornada", Width: 1},
			{Title: "Estado", Width: 1}, {Title: "Inscripción", Width: 1}, {Title: "Edad", Width: 0.6},
		},
		Rows: make([][]string, 0, len(items)),
	}
	for _, st := range items {
		age := ""
		if a := models.AgeAt(st.BirthDate, s.now()); a != nil {
			age = strconv.Itoa(*a)
		}
		table.Rows = append(table.Rows, []string{
			st.StudentCode, st.FullName(), st.Document.String(),
			st.Email, st.ProgramName, st.Schedule,
			string(st.Status), st.EnrolledAt.Format(exportDateLayout), age,
		})
	}
	return s.render(table, format, "estudiantes")
}

func (s *ExportService) render(table export.Table, format export.Format, base string) (*ExportFile, error) {
	data, err := export.For(format).Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al generar el archivo")
	}
	s.logger.Info("export rendered",
		zap.String("dataset", base),
		zap.String("format", string(format)),
		zap.Int("rows", len(table.Rows)),
	)
	return &ExportFile{
		Filename:    format.Filename(base, s.now().Format("20060102")),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func parseExportFormat(raw string) (export.Format, error) {
	format, err := export.ParseFormat(raw)
	if err != nil {
		return "", appErrors.Invalid(err, "Formato no soportado. Use csv o pdf")
	}
	return format, nil
}
