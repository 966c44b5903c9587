package models

import "time"

// User represents an account stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsSuperuser  bool       `db:"is_superuser" json:"is_superuser"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	Description  *string    `db:"description" json:"description"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserOut is the public representation of a user; it never carries the password hash.
type UserOut struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Username    string     `json:"username"`
	IsSuperuser bool       `json:"is_superuser"`
	IsActive    bool       `json:"is_active"`
	Description string     `json:"description"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Out converts the stored user into its public representation.
func (u User) Out() UserOut {
	out := UserOut{
		ID:          u.ID,
		Name:        u.Name,
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	return out
}

// UserFilter captures the query parameters accepted when listing users.
type UserFilter struct {
	Name        string `form:"name"`
	Username    string `form:"username"`
	IsSuperuser *bool  `form:"is_superuser"`
	IsActive    *bool  `form:"is_active"`
	OrderBy     string `form:"order_by"`
	Offset      *int   `form:"offset"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// CreateUserRequest is the payload accepted when creating a user.
type CreateUserRequest struct {
	Name        string  `json:"name" form:"name" validate:"required,min=2,max=50"`
	Username    string  `json:"username" form:"username" validate:"required,min=4,max=20"`
	Password    string  `json:"password" form:"password" validate:"required,min=6,max=20"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active" form:"is_active"`
}

// UpdateUserRequest carries a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Name        *string `json:"name" form:"name" validate:"omitempty,min=2,max=50"`
	Username    *string `json:"username" form:"username" validate:"omitempty,min=4,max=20"`
	Password    *string `json:"password" form:"password" validate:"omitempty,min=6,max=20"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active" form:"is_active"`
}

// Empty reports whether the request changes nothing.
func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Username == nil && r.Password == nil && r.Description == nil && r.IsActive == nil
}
