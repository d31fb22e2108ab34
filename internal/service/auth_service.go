package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type authStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByCode(ctx context.Context, code string) (*models.Student, error)
	UpdateLastAccess(ctx context.Context, id string, ts time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService authenticates staff and students and resolves request principals.
type AuthService struct {
	users     authUserRepository
	students  authStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, students authStudentRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.Default()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{users: users, students: students, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates a staff user.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "Por favor ingresa email y contraseña")
	}

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Credenciales inválidas")
		}
		return nil, appErrors.Internal(err, "Error al iniciar sesión")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "Usuario inactivo. Contacta al administrador")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Credenciales inválidas")
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	token, err := s.generateAccessToken(principalFromUser(user))
	if err != nil {
		return nil, appErrors.Internal(err, "Error al iniciar sesión")
	}

	return &models.LoginResponse{Token: token, Usuario: user}, nil
}

// StudentLogin authenticates a student with the student code and access code.
func (s *AuthService) StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.StudentLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "Por favor ingresa código de estudiante y código de acceso")
	}

	student, err := s.students.FindByCode(ctx, req.StudentCode)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Credenciales inválidas")
		}
		return nil, appErrors.Internal(err, "Error al iniciar sesión")
	}

	if !student.CanSignIn() {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "Estudiante inactivo. Contacta con la administración")
	}

	accessCode := strings.ToUpper(strings.TrimSpace(req.AccessCode))
	if err := bcrypt.CompareHashAndPassword([]byte(student.AccessCodeHash), []byte(accessCode)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Credenciales inválidas")
	}

	now := s.now().UTC()
	if err := s.students.UpdateLastAccess(ctx, student.ID, now); err != nil {
		s.logger.Warn("failed to update student last access", zap.String("student_id", student.ID), zap.Error(err))
	}
	student.LastAccess = &now

	token, err := s.generateAccessToken(principalFromStudent(student))
	if err != nil {
		return nil, appErrors.Internal(err, "Error al iniciar sesión")
	}

	return &models.StudentLoginResponse{Token: token, Estudiante: student.View()}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "Token inválido o expirado")
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Token inválido o expirado")
	}

	return claims, nil
}

// Authenticate validates the token and loads the principal it names.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.Principal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return s.LoadPrincipal(ctx, claims)
}

// LoadPrincipal re-reads the principal so deactivation takes effect before token expiry.
func (s *AuthService) LoadPrincipal(ctx context.Context, claims *models.Claims) (*models.Principal, error) {
	switch claims.Kind {
	case models.PrincipalUser:
		user, err := s.users.FindByID(ctx, claims.Subject)
		if err != nil {
			if isNotFound(err) {
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Usuario no encontrado")
			}
			return nil, appErrors.Internal(err, "No autorizado")
		}
		if !user.Active {
			return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "Usuario inactivo")
		}
		return principalFromUser(user), nil
	case models.PrincipalStudent:
		student, err := s.students.FindByID(ctx, claims.Subject)
		if err != nil {
			if isNotFound(err) {
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Estudiante no encontrado")
			}
			return nil, appErrors.Internal(err, "No autorizado")
		}
		if !student.CanSignIn() {
			return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "Tu cuenta no está activa")
		}
		return principalFromStudent(student), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Token inválido o expirado")
	}
}

// Profile returns the authenticated staff user.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "Usuario no encontrado", "Error al obtener perfil")
	}
	return user, nil
}

// StudentProfile returns the authenticated student with derived fields.
func (s *AuthService) StudentProfile(ctx context.Context, studentID string) (*models.StudentView, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, lookupError(err, "Estudiante no encontrado", "Error al obtener perfil")
	}
	view := student.View()
	return &view, nil
}

// ChangePassword changes the password for the given staff user.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return lookupError(err, "Usuario no encontrado", "Error al cambiar contraseña")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "Contraseña actual incorrecta")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "Error al cambiar contraseña")
	}

	if err := s.users.UpdatePassword(ctx, userID, string(newHash), s.now().UTC()); err != nil {
		return appErrors.Internal(err, "Error al cambiar contraseña")
	}
	return nil
}

func (s *AuthService) generateAccessToken(p *models.Principal) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.Claims{
		Kind:  p.Kind,
		Role:  p.Role,
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func principalFromUser(u *models.User) *models.Principal {
	return &models.Principal{ID: u.ID, Kind: models.PrincipalUser, Role: u.Role, Email: u.Email, Name: u.FullName()}
}

func principalFromStudent(st *models.Student) *models.Principal {
	return &models.Principal{ID: st.ID, Kind: models.PrincipalStudent, Email: st.Email, Name: st.FullName()}
}
