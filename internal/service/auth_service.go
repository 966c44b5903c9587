package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/pkg/crud"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

const sessionIssuer = "adminkit"

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type loginRecorder interface {
	RecordLogin(userID int64, at time.Time)
}

// AuthConfig defines configuration for session issuing.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
}

// AuthService provides login, session lookup and logout.
type AuthService struct {
	users     authUserRepository
	sessions  sessionStore
	logins    loginRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance. logins and metrics may be nil.
func NewAuthService(users authUserRepository, sessions sessionStore, logins loginRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = crud.NewValidator()
	}
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		logins:    logins,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Login checks credentials, stores a session and returns its signed token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, crud.ValidationError(err, "invalid login payload")
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if user == nil {
		s.metrics.RecordLogin(false)
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLogin(false)
		return nil, appErrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.metrics.RecordLogin(false)
		return nil, appErrors.ErrInactiveAccount
	}

	issuedAt := s.now().UTC()
	session := &models.Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		Name:        user.Name,
		IsSuperuser: user.IsSuperuser,
		IP:          req.IP,
		UserAgent:   req.UserAgent,
		CreatedAt:   issuedAt,
		ExpiresAt:   issuedAt.Add(s.config.TTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to persist session")
	}

	token, err := s.sign(session)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign session token")
	}

	if s.logins != nil {
		s.logins.RecordLogin(user.ID, issuedAt)
	}
	s.metrics.RecordLogin(true)
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("username", user.Username), zap.String("ip", req.IP))

	return &models.LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user.Out()}, nil
}

// Authenticate verifies token and returns the live session it refers to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	if session.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session does not match token")
	}
	return session, nil
}

// Logout deletes the session behind token. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return appErrors.Internal(err, "failed to delete session")
	}
	s.logger.Info("user logged out", zap.Int64("user_id", claims.UserID))
	return nil
}

func (s *AuthService) sign(session *models.Session) (string, error) {
	claims := &models.SessionClaims{
		UserID:   session.UserID,
		Username: session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    sessionIssuer,
			Subject:   fmt.Sprint(session.UserID),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *AuthService) parse(token string) (*models.SessionClaims, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}
	parsed, err := jwt.ParseWithClaims(token, &models.SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	claims, ok := parsed.Claims.(*models.SessionClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}
