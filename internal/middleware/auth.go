package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/logger"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated principal.
const ContextPrincipalKey = "principal"

const studentRoleName = "estudiante"

// Authenticator resolves a bearer token into an active principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

type ruleKind int

const (
	rulePublic ruleKind = iota
	ruleStaff
	ruleStudent
)

// Rule describes who may call a route.
type Rule struct {
	kind  ruleKind
	roles []models.UserRole
}

// Access rules used by the route table.
var (
	Public   = Rule{kind: rulePublic}
	AnyStaff = Rule{kind: ruleStaff}
	Student  = Rule{kind: ruleStudent}
)

// Staff admits staff users holding one of roles.
func Staff(roles ...models.UserRole) Rule {
	return Rule{kind: ruleStaff, roles: roles}
}

// IsPublic reports whether the rule admits anonymous callers.
func (r Rule) IsPublic() bool {
	return r.kind == rulePublic
}

// Allows reports whether p satisfies the rule.
func (r Rule) Allows(p *models.Principal) bool {
	switch r.kind {
	case rulePublic:
		return true
	case ruleStudent:
		return p != nil && p.Kind == models.PrincipalStudent
	default:
		if !p.IsStaff() {
			return false
		}
		return len(r.roles) == 0 || p.HasRole(r.roles...)
	}
}

// String renders the rule for route listings.
func (r Rule) String() string {
	switch r.kind {
	case rulePublic:
		return "public"
	case ruleStudent:
		return "student"
	}
	if len(r.roles) == 0 {
		return "staff"
	}
	names := make([]string, len(r.roles))
	for i, role := range r.roles {
		names[i] = string(role)
	}
	return "staff(" + strings.Join(names, ",") + ")"
}

// Authorize is the single gate in front of every protected route. Public rules pass through.
func Authorize(auth Authenticator, rule Rule) gin.HandlerFunc {
	if rule.IsPublic() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if !rule.Allows(principal) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("El rol %s no tiene permisos para esta acción", roleName(principal))))
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.PrincipalIDKey, principal.ID)
		c.Next()
	}
}

// CurrentPrincipal returns the principal attached by Authorize.
func CurrentPrincipal(c *gin.Context) (*models.Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*models.Principal)
	return principal, ok && principal != nil
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "No autorizado. Token no proporcionado")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "Token inválido o expirado")
	}
	return strings.TrimSpace(parts[1]), nil
}

func roleName(p *models.Principal) string {
	if p == nil {
		return "desconocido"
	}
	if p.Kind == models.PrincipalStudent {
		return studentRoleName
	}
	return string(p.Role)
}
