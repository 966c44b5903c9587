package models

import "time"

// Values maps users table columns to the values written by a record payload.
type Values = map[string]interface{}

// UserRecord is the full row written when a user is inserted.
type UserRecord struct {
	Name         string  `json:"name" validate:"required,min=2,max=50"`
	Username     string  `json:"username" validate:"required,min=4,max=20"`
	PasswordHash string  `json:"password_hash" validate:"required"`
	IsSuperuser  bool    `json:"is_superuser"`
	IsActive     bool    `json:"is_active"`
	Description  *string `json:"description" validate:"omitempty,max=255"`
}

func (r UserRecord) Values() Values {
	v := Values{
		"name":          r.Name,
		"username":      r.Username,
		"password_hash": r.PasswordHash,
		"is_superuser":  r.IsSuperuser,
		"is_active":     r.IsActive,
	}
	if r.Description != nil {
		v["description"] = *r.Description
	}
	return v
}

// UserPatch lists the columns an update writes. Only non-nil fields are applied.
type UserPatch struct {
	Name         *string    `json:"name" validate:"omitempty,min=2,max=50"`
	Username     *string    `json:"username" validate:"omitempty,min=4,max=20"`
	PasswordHash *string    `json:"password_hash" validate:"omitempty,min=1"`
	IsActive     *bool      `json:"is_active"`
	Description  *string    `json:"description" validate:"omitempty,max=255"`
	LastLogin    *time.Time `json:"last_login"`
}

func (p UserPatch) Values() Values {
	v := Values{}
	if p.Name != nil {
		v["name"] = *p.Name
	}
	if p.Username != nil {
		v["username"] = *p.Username
	}
	if p.PasswordHash != nil {
		v["password_hash"] = *p.PasswordHash
	}
	if p.IsActive != nil {
		v["is_active"] = *p.IsActive
	}
	if p.Description != nil {
		v["description"] = *p.Description
	}
	if p.LastLogin != nil {
		v["last_login"] = *p.LastLogin
	}
	return v
}
