package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/pkg/crud"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type userRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Page(ctx context.Context, offset, limit int, orders crud.Sort, filters crud.Filters) (*crud.Page[models.User], error)
	List(ctx context.Context, filters crud.Filters, orders crud.Sort) ([]models.User, error)
	Create(ctx context.Context, rec models.UserRecord) (*models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int64) (string, error)
}

type sessionRevoker interface {
	DeleteForUser(ctx context.Context, userID int64) (int, error)
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	sessions  sessionRevoker
	validator *validator.Validate
	logger    *zap.Logger
	hashCost  int
}

// NewUserService creates an instance of UserService. sessions may be nil, in
// which case existing sessions survive password changes and deletions.
func NewUserService(repo userRepository, sessions sessionRevoker, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = crud.NewValidator()
	}
	return &UserService{repo: repo, sessions: sessions, validator: validate, logger: logger, hashCost: bcrypt.DefaultCost}
}

// List returns one page of users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) (*crud.Page[models.UserOut], error) {
	orders, err := crud.ParseSort(filter.OrderBy)
	if err != nil {
		return nil, err
	}
	offset, limit, err := pageWindow(filter)
	if err != nil {
		return nil, err
	}

	page, err := s.repo.Page(ctx, offset, limit, stableOrder(orders), userFilters(filter))
	if err != nil {
		return nil, s.fail(err, "failed to list users")
	}
	return crud.MapPage(page, models.User.Out), nil
}

// All returns every user matching filter without pagination.
func (s *UserService) All(ctx context.Context, filter models.UserFilter) ([]models.UserOut, error) {
	orders, err := crud.ParseSort(filter.OrderBy)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.List(ctx, userFilters(filter), stableOrder(orders))
	if err != nil {
		return nil, s.fail(err, "failed to list users")
	}
	return crud.Map(users, models.User.Out), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.UserOut, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := user.Out()
	return &out, nil
}

// Create adds a new user.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.UserOut, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, crud.ValidationError(err, "invalid create user payload")
	}
	if err := s.ensureUsernameFree(ctx, req.Username, 0); err != nil {
		return nil, err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user, err := s.repo.Create(ctx, models.UserRecord{
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: hash,
		IsActive:     active,
		Description:  req.Description,
	})
	if err != nil {
		return nil, s.fail(err, "failed to create user")
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	out := user.Out()
	return &out, nil
}

// Update applies the provided fields to a user. Superusers cannot be modified.
func (s *UserService) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.UserOut, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, crud.ValidationError(err, "invalid update user payload")
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsSuperuser {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "superuser accounts cannot be modified")
	}
	if req.Username != nil && *req.Username != user.Username {
		if err := s.ensureUsernameFree(ctx, *req.Username, user.ID); err != nil {
			return nil, err
		}
	}

	patch := models.UserPatch{
		Name:        req.Name,
		Username:    req.Username,
		IsActive:    req.IsActive,
		Description: req.Description,
	}
	if req.Password != nil {
		hash, err := s.hash(*req.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail(err, "failed to update user")
	}

	if req.Password != nil || (req.IsActive != nil && !*req.IsActive) {
		s.revokeSessions(ctx, id)
	}

	out := updated.Out()
	return &out, nil
}

// Delete removes a user. Superusers cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id int64) (string, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if user.IsSuperuser {
		return "", appErrors.Clone(appErrors.ErrPermissionDenied, "superuser accounts cannot be deleted")
	}

	msg, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", s.fail(err, "failed to delete user")
	}

	s.revokeSessions(ctx, id)
	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.String("username", user.Username))
	return msg, nil
}

// EnsureAdmin creates the superuser account if username does not exist yet.
// It reports whether a new account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, name, username, password string) (*models.UserOut, bool, error) {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, s.fail(err, "failed to look up admin")
	}
	if existing != nil {
		out := existing.Out()
		return &out, false, nil
	}

	req := models.CreateUserRequest{Name: name, Username: username, Password: password}
	if err := s.validator.Struct(req); err != nil {
		return nil, false, crud.ValidationError(err, "invalid admin account")
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, false, err
	}

	user, err := s.repo.Create(ctx, models.UserRecord{
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		IsSuperuser:  true,
		IsActive:     true,
	})
	if err != nil {
		return nil, false, s.fail(err, "failed to create admin")
	}

	s.logger.Info("superuser created", zap.String("username", username))
	out := user.Out()
	return &out, true, nil
}

func (s *UserService) load(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(err, "failed to load user")
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("user %d not found", id))
	}
	return user, nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return s.fail(err, "failed to check username uniqueness")
	}
	if existing != nil && existing.ID != selfID {
		return appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	n, err := s.sessions.DeleteForUser(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to revoke sessions", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("sessions revoked", zap.Int64("user_id", userID), zap.Int("count", n))
	}
}

// fail keeps typed errors from lower layers and wraps everything else as internal.
func (s *UserService) fail(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, message)
}

func pageWindow(filter models.UserFilter) (offset, limit int, err error) {
	limit = filter.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		return 0, 0, appErrors.InvalidArgument(fmt.Sprintf("limit must not exceed %d", maxPageSize))
	}

	switch {
	case filter.Offset != nil:
		offset = *filter.Offset
	case filter.Page > 1:
		offset = (filter.Page - 1) * limit
	case filter.Page < 0:
		return 0, 0, appErrors.InvalidArgument("page must be positive")
	}
	return offset, limit, nil
}

// stableOrder appends id ASC unless the caller already sorts by id, so equal
// sort keys cannot reshuffle rows between pages.
func stableOrder(orders crud.Sort) crud.Sort {
	for _, o := range orders {
		if o.Field == "id" {
			return orders
		}
	}
	out := make(crud.Sort, 0, len(orders)+1)
	out = append(out, orders...)
	return append(out, crud.Order{Field: "id", Direction: crud.Asc})
}

func userFilters(f models.UserFilter) crud.Filters {
	filters := crud.Filters{}
	if f.Name != "" {
		filters["name"] = crud.Like(f.Name)
	}
	if f.Username != "" {
		filters["username"] = crud.Eq(f.Username)
	}
	if f.IsSuperuser != nil {
		filters["is_superuser"] = crud.Eq(*f.IsSuperuser)
	}
	if f.IsActive != nil {
		filters["is_active"] = crud.Eq(*f.IsActive)
	}
	return filters
}
