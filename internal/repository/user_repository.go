package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/pkg/crud"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

const pqUniqueViolation = "23505"

// UserSchema describes the users table to the query builder. password_hash is
// selectable but neither filterable nor sortable.
var UserSchema = crud.Schema{
	Table:      "users",
	PrimaryKey: "id",
	Columns: []string{
		"id", "name", "username", "password_hash", "is_superuser", "is_active",
		"description", "last_login", "created_at", "updated_at",
	},
	Fields: map[string]string{
		"id":           "id",
		"name":         "name",
		"username":     "username",
		"is_superuser": "is_superuser",
		"is_active":    "is_active",
		"last_login":   "last_login",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	},
	UpdatedAt: "updated_at",
}

// UserRepository provides database access for user management.
type UserRepository struct {
	users *crud.Builder[models.User]
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db sqlx.ExtContext, opts ...crud.Option) *UserRepository {
	return &UserRepository{users: crud.New[models.User](db, UserSchema, opts...)}
}

// FindByID returns the user with id, or nil when absent.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.users.GetByKey(ctx, id)
}

// FindByUsername returns the user with the given login name, or nil when absent.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.users.Get(ctx, crud.Filters{"username": crud.Eq(username)})
}

// Page returns one page of users matching filters.
func (r *UserRepository) Page(ctx context.Context, offset, limit int, orders crud.Sort, filters crud.Filters) (*crud.Page[models.User], error) {
	return r.users.Page(ctx, offset, limit, orders, filters)
}

// List returns every user matching filters.
func (r *UserRepository) List(ctx context.Context, filters crud.Filters, orders crud.Sort) ([]models.User, error) {
	return r.users.List(ctx, filters, orders)
}

// Count returns the number of users matching filters.
func (r *UserRepository) Count(ctx context.Context, filters crud.Filters) (int, error) {
	return r.users.Count(ctx, filters)
}

// Create inserts a user row.
func (r *UserRepository) Create(ctx context.Context, rec models.UserRecord) (*models.User, error) {
	user, err := r.users.Create(ctx, rec)
	if err != nil {
		return nil, mapConstraint(err)
	}
	return user, nil
}

// Update applies patch to the user with id.
func (r *UserRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := r.users.Update(ctx, id, patch)
	if err != nil {
		return nil, mapConstraint(err)
	}
	return user, nil
}

// Delete removes the user with id.
func (r *UserRepository) Delete(ctx context.Context, id int64) (string, error) {
	return r.users.Delete(ctx, id)
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.users.Update(ctx, id, models.UserPatch{LastLogin: &at})
	return err
}

func mapConstraint(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "username already exists")
	}
	return err
}
