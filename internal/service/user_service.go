package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

const defaultUserPageSize = 20

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	Deactivate(ctx context.Context, id string) error
}

// CreateUserRequest represents payload for registering staff users.
type CreateUserRequest struct {
	FirstName string          `json:"nombre" validate:"notblank,max=100"`
	LastName  string          `json:"apellido" validate:"notblank,max=100"`
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,min=6"`
	Role      models.UserRole `json:"rol" validate:"omitempty,oneof=superadmin admin editor"`
}

// UpdateUserRequest payload for updating users. The password cannot be changed here.
type UpdateUserRequest struct {
	FirstName *string          `json:"nombre" validate:"omitempty,notblank,max=100"`
	LastName  *string          `json:"apellido" validate:"omitempty,notblank,max=100"`
	Email     *string          `json:"email" validate:"omitempty,email"`
	Role      *models.UserRole `json:"rol" validate:"omitempty,oneof=superadmin admin editor"`
	Active    *bool            `json:"activo"`
}

// UserService handles staff account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.Default()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	filter.PageQuery = filter.PageQuery.Normalize(defaultUserPageSize)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener usuarios")
	}
	return users, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Usuario no encontrado", "Error al obtener usuario")
	}
	return user, nil
}

// Register creates a staff account. The role defaults to editor.
func (s *UserService) Register(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.Role == "" {
		req.Role = models.RoleEditor
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al registrar usuario")
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeError(err, "Usuario no encontrado", "Error al registrar usuario")
	}

	s.logger.Info("staff user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update modifies profile fields, role and the active flag. Users cannot deactivate
// themselves or change their own role.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actorID string) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Usuario no encontrado", "Error al actualizar usuario")
	}
	if id == actorID {
		if req.Active != nil && !*req.Active {
			return nil, businessRule("No puedes desactivar tu propia cuenta")
		}
		if req.Role != nil && *req.Role != user.Role {
			return nil, businessRule("No puedes cambiar tu propio rol")
		}
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, writeError(err, "Usuario no encontrado", "Error al actualizar usuario")
	}
	return user, nil
}

// Deactivate soft deletes a user. Users cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return businessRule("No puedes desactivar tu propia cuenta")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "Usuario no encontrado", "Error al desactivar usuario")
	}
	return nil
}

// CreateSuperAdmin bootstraps a superadmin account from the admin CLI.
func (s *UserService) CreateSuperAdmin(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Role = models.RoleSuperAdmin
	return s.Register(ctx, req)
}

// ResetPassword replaces a staff password from the admin CLI.
func (s *UserService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < 6 {
		return appErrors.Clone(appErrors.ErrValidation, "La contraseña debe tener mínimo 6 caracteres")
	}
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return lookupError(err, "Usuario no encontrado", "Error al cambiar contraseña")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "Error al cambiar contraseña")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Internal(err, "Error al cambiar contraseña")
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing.ID != excludeID {
		return appErrors.Clone(appErrors.ErrDuplicate, "El email ya está registrado")
	}
	if err != nil && !isNotFound(err) {
		return appErrors.Internal(err, "Error al validar email")
	}
	return nil
}
