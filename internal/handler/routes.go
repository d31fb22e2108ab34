package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/middleware"
	"github.com/fundalink/fundalink-api/internal/models"
)

var (
	superAdmin = middleware.Staff(models.RoleSuperAdmin)
	backOffice = middleware.Staff(models.RoleAdmin, models.RoleSuperAdmin)
	content    = middleware.Staff(models.RoleEditor, models.RoleAdmin, models.RoleSuperAdmin)
)

// Route is one entry of the API policy table.
type Route struct {
	Method   string
	Path     string
	Rule     middleware.Rule
	Audit    string
	Resource string
	Handler  gin.HandlerFunc
}

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Programs     *ProgramHandler
	Enrollments  *EnrollmentHandler
	Students     *StudentHandler
	Messages     *MessageHandler
	FAQs         *FAQHandler
	Testimonials *TestimonialHandler
	Events       *EventHandler
	News         *NewsHandler
	Institution  *InstitutionHandler
}

// Routes returns the policy table. Paths are relative to the API prefix.
func (h Handlers) Routes() []Route {
	return []Route{
		// usuarios
		{Method: http.MethodPost, Path: "/usuarios/login", Rule: middleware.Public, Handler: h.Auth.Login},
		{Method: http.MethodGet, Path: "/usuarios/perfil", Rule: middleware.AnyStaff, Handler: h.Auth.Profile},
		{Method: http.MethodPut, Path: "/usuarios/cambiar-password", Rule: middleware.AnyStaff, Handler: h.Auth.ChangePassword},
		{Method: http.MethodPost, Path: "/usuarios/registro", Rule: superAdmin, Audit: models.AuditActionUserCreate, Resource: "usuarios", Handler: h.Users.Register},
		{Method: http.MethodGet, Path: "/usuarios", Rule: superAdmin, Handler: h.Users.List},
		{Method: http.MethodPut, Path: "/usuarios/:id", Rule: superAdmin, Audit: models.AuditActionUserUpdate, Resource: "usuarios", Handler: h.Users.Update},
		{Method: http.MethodDelete, Path: "/usuarios/:id", Rule: superAdmin, Audit: models.AuditActionDelete, Resource: "usuarios", Handler: h.Users.Deactivate},

		// programas
		{Method: http.MethodGet, Path: "/programas", Rule: middleware.Public, Handler: h.Programs.List},
		{Method: http.MethodGet, Path: "/programas/disponibles", Rule: middleware.Public, Handler: h.Programs.Available},
		{Method: http.MethodGet, Path: "/programas/codigo/:codigo", Rule: middleware.Public, Handler: h.Programs.GetByCode},
		{Method: http.MethodGet, Path: "/programas/admin/todos", Rule: backOffice, Handler: h.Programs.ListAdmin},
		{Method: http.MethodGet, Path: "/programas/:id", Rule: middleware.Public, Handler: h.Programs.Get},
		{Method: http.MethodPost, Path: "/programas", Rule: backOffice, Handler: h.Programs.Create},
		{Method: http.MethodPut, Path: "/programas/:id", Rule: backOffice, Handler: h.Programs.Update},
		{Method: http.MethodPut, Path: "/programas/:id/destacado", Rule: backOffice, Handler: h.Programs.SetFeatured},
		{Method: http.MethodPut, Path: "/programas/:id/disponibilidad", Rule: backOffice, Handler: h.Programs.SetAvailability},
		{Method: http.MethodDelete, Path: "/programas/:id", Rule: backOffice, Audit: models.AuditActionDelete, Resource: "programas", Handler: h.Programs.Delete},

		// inscripciones
		{Method: http.MethodPost, Path: "/inscripciones", Rule: middleware.Public, Handler: h.Enrollments.Create},
		{Method: http.MethodGet, Path: "/inscripciones", Rule: backOffice, Handler: h.Enrollments.List},
		{Method: http.MethodGet, Path: "/inscripciones/pendientes", Rule: backOffice, Handler: h.Enrollments.Pending},
		{Method: http.MethodGet, Path: "/inscripciones/estadisticas", Rule: backOffice, Handler: h.Enrollments.Stats},
		{Method: http.MethodGet, Path: "/inscripciones/buscar", Rule: backOffice, Handler: h.Enrollments.Search},
		{Method: http.MethodGet, Path: "/inscripciones/exportar", Rule: backOffice, Handler: h.Enrollments.Export},
		{Method: http.MethodGet, Path: "/inscripciones/:id", Rule: backOffice, Handler: h.Enrollments.Get},
		{Method: http.MethodPut, Path: "/inscripciones/:id/estado", Rule: backOffice, Audit: models.AuditActionEnrollmentStatus, Resource: "inscripciones", Handler: h.Enrollments.UpdateStatus},
		{Method: http.MethodPut, Path: "/inscripciones/:id/prioridad", Rule: backOffice, Handler: h.Enrollments.UpdatePriority},
		// The matriculation audit entry is written by the service with the new student id.
		{Method: http.MethodPost, Path: "/inscripciones/:id/matricular", Rule: backOffice, Handler: h.Enrollments.Matriculate},
		{Method: http.MethodDelete, Path: "/inscripciones/:id", Rule: backOffice, Audit: models.AuditActionDelete, Resource: "inscripciones", Handler: h.Enrollments.Cancel},

		// estudiantes
		{Method: http.MethodPost, Path: "/estudiantes/login", Rule: middleware.Public, Handler: h.Auth.StudentLogin},
		{Method: http.MethodGet, Path: "/estudiantes/perfil", Rule: middleware.Student, Handler: h.Auth.StudentProfile},
		{Method: http.MethodPost, Path: "/estudiantes", Rule: backOffice, Audit: models.AuditActionStudentRegister, Resource: "estudiantes", Handler: h.Students.Register},
		{Method: http.MethodGet, Path: "/estudiantes", Rule: backOffice, Handler: h.Students.List},
		{Method: http.MethodGet, Path: "/estudiantes/buscar", Rule: backOffice, Handler: h.Students.Search},
		{Method: http.MethodGet, Path: "/estudiantes/exportar", Rule: backOffice, Handler: h.Students.Export},
		{Method: http.MethodGet, Path: "/estudiantes/:id", Rule: backOffice, Handler: h.Students.Get},
		{Method: http.MethodPut, Path: "/estudiantes/:id", Rule: backOffice, Handler: h.Students.Update},
		{Method: http.MethodPut, Path: "/estudiantes/:id/estado", Rule: backOffice, Handler: h.Students.UpdateStatus},
		{Method: http.MethodPut, Path: "/estudiantes/:id/resetear-codigo", Rule: backOffice, Audit: models.AuditActionAccessCodeReset, Resource: "estudiantes", Handler: h.Students.ResetAccessCode},
		{Method: http.MethodDelete, Path: "/estudiantes/:id", Rule: backOffice, Audit: models.AuditActionDelete, Resource: "estudiantes", Handler: h.Students.Deactivate},

		// mensajes
		{Method: http.MethodPost, Path: "/mensajes", Rule: middleware.Public, Handler: h.Messages.Create},
		{Method: http.MethodGet, Path: "/mensajes", Rule: backOffice, Handler: h.Messages.List},
		{Method: http.MethodGet, Path: "/mensajes/no-leidos", Rule: backOffice, Handler: h.Messages.Unread},
		{Method: http.MethodGet, Path: "/mensajes/estadisticas", Rule: backOffice, Handler: h.Messages.Stats},
		{Method: http.MethodGet, Path: "/mensajes/buscar", Rule: backOffice, Handler: h.Messages.Search},
		{Method: http.MethodPut, Path: "/mensajes/marcar-leidos", Rule: backOffice, Handler: h.Messages.MarkManyRead},
		{Method: http.MethodGet, Path: "/mensajes/:id", Rule: backOffice, Handler: h.Messages.Get},
		{Method: http.MethodPut, Path: "/mensajes/:id/leido", Rule: backOffice, Handler: h.Messages.MarkRead},
		{Method: http.MethodPut, Path: "/mensajes/:id/importante", Rule: backOffice, Handler: h.Messages.SetImportant},
		{Method: http.MethodPut, Path: "/mensajes/:id/archivar", Rule: backOffice, Handler: h.Messages.Archive},
		{Method: http.MethodPut, Path: "/mensajes/:id/responder", Rule: backOffice, Handler: h.Messages.Reply},
		{Method: http.MethodPut, Path: "/mensajes/:id/notas", Rule: backOffice, Handler: h.Messages.SetNotes},
		{Method: http.MethodDelete, Path: "/mensajes/:id", Rule: backOffice, Audit: models.AuditActionDelete, Resource: "mensajes", Handler: h.Messages.Delete},

		// faqs
		{Method: http.MethodGet, Path: "/faqs", Rule: middleware.Public, Handler: h.FAQs.List},
		{Method: http.MethodGet, Path: "/faqs/buscar", Rule: middleware.Public, Handler: h.FAQs.Search},
		{Method: http.MethodGet, Path: "/faqs/admin/todas", Rule: content, Handler: h.FAQs.ListAdmin},
		{Method: http.MethodGet, Path: "/faqs/admin/estadisticas", Rule: content, Handler: h.FAQs.Stats},
		{Method: http.MethodGet, Path: "/faqs/:id", Rule: middleware.Public, Handler: h.FAQs.Get},
		{Method: http.MethodPut, Path: "/faqs/:id/valorar", Rule: middleware.Public, Handler: h.FAQs.Vote},
		{Method: http.MethodPost, Path: "/faqs", Rule: content, Handler: h.FAQs.Create},
		{Method: http.MethodPut, Path: "/faqs/:id", Rule: content, Handler: h.FAQs.Update},
		{Method: http.MethodPut, Path: "/faqs/:id/orden", Rule: content, Handler: h.FAQs.SetOrder},
		{Method: http.MethodPut, Path: "/faqs/:id/toggle", Rule: content, Handler: h.FAQs.Toggle},
		{Method: http.MethodDelete, Path: "/faqs/:id", Rule: content, Audit: models.AuditActionDelete, Resource: "faqs", Handler: h.FAQs.Delete},

		// testimonios
		{Method: http.MethodGet, Path: "/testimonios", Rule: middleware.Public, Handler: h.Testimonials.List},
		{Method: http.MethodPost, Path: "/testimonios", Rule: middleware.Public, Handler: h.Testimonials.Submit},
		{Method: http.MethodGet, Path: "/testimonios/admin/todos", Rule: backOffice, Handler: h.Testimonials.ListAdmin},
		{Method: http.MethodGet, Path: "/testimonios/admin/pendientes", Rule: backOffice, Handler: h.Testimonials.Pending},
		{Method: http.MethodGet, Path: "/testimonios/:id", Rule: middleware.Public, Handler: h.Testimonials.Get},
		{Method: http.MethodPut, Path: "/testimonios/:id", Rule: backOffice, Handler: h.Testimonials.Update},
		{Method: http.MethodPut, Path: "/testimonios/:id/aprobar", Rule: backOffice, Handler: h.Testimonials.Approve},
		{Method: http.MethodPut, Path: "/testimonios/:id/rechazar", Rule: backOffice, Handler: h.Testimonials.Reject},
		{Method: http.MethodPut, Path: "/testimonios/:id/destacado", Rule: backOffice, Handler: h.Testimonials.SetFeatured},
		{Method: http.MethodDelete, Path: "/testimonios/:id", Rule: backOffice, Audit: models.AuditActionDelete, Resource: "testimonios", Handler: h.Testimonials.Delete},

		// eventos
		{Method: http.MethodGet, Path: "/eventos", Rule: middleware.Public, Handler: h.Events.List},
		{Method: http.MethodGet, Path: "/eventos/:id", Rule: middleware.Public, Handler: h.Events.Get},
		{Method: http.MethodPost, Path: "/eventos/:id/inscribirse", Rule: middleware.Public, Handler: h.Events.SignUp},
		{Method: http.MethodPost, Path: "/eventos", Rule: content, Handler: h.Events.Create},
		{Method: http.MethodPut, Path: "/eventos/:id", Rule: content, Handler: h.Events.Update},
		{Method: http.MethodDelete, Path: "/eventos/:id", Rule: content, Audit: models.AuditActionDelete, Resource: "eventos", Handler: h.Events.Delete},

		// noticias
		{Method: http.MethodGet, Path: "/noticias", Rule: middleware.Public, Handler: h.News.List},
		{Method: http.MethodGet, Path: "/noticias/:id", Rule: middleware.Public, Handler: h.News.Get},
		{Method: http.MethodPost, Path: "/noticias", Rule: content, Handler: h.News.Create},
		{Method: http.MethodPut, Path: "/noticias/:id", Rule: content, Handler: h.News.Update},
		{Method: http.MethodDelete, Path: "/noticias/:id", Rule: content, Audit: models.AuditActionDelete, Resource: "noticias", Handler: h.News.Delete},

		// informacion
		{Method: http.MethodGet, Path: "/informacion", Rule: middleware.Public, Handler: h.Institution.Get},
		{Method: http.MethodPut, Path: "/informacion", Rule: backOffice, Handler: h.Institution.Update},
		{Method: http.MethodPut, Path: "/informacion/redes-sociales", Rule: backOffice, Handler: h.Institution.MergeSection(models.SectionSocialNetworks)},
		{Method: http.MethodPut, Path: "/informacion/contacto", Rule: backOffice, Handler: h.Institution.MergeSection(models.SectionContact)},
		{Method: http.MethodPut, Path: "/informacion/rectoria", Rule: backOffice, Handler: h.Institution.MergeSection(models.SectionRectorate)},
	}
}

// Register mounts routes on group, placing the policy gate and the optional audit recorder
// in front of each handler.
func Register(group gin.IRoutes, routes []Route, auth middleware.Authenticator, audit middleware.AuditRecorder, logger *zap.Logger) {
	for _, r := range routes {
		chain := []gin.HandlerFunc{middleware.Authorize(auth, r.Rule)}
		if r.Audit != "" {
			chain = append(chain, middleware.Audit(audit, logger, r.Audit, r.Resource))
		}
		chain = append(chain, r.Handler)
		group.Handle(r.Method, r.Path, chain...)
	}
}
