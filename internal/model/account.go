package model

import (
	"time"

	"github.com/google/uuid"
)

// Well-known roles.  The role column stays free text; only RoleAdmin grants
// anything.
const (
	RoleAdmin     = "admin"
	RoleAnonymous = "anonymous"

	// RoleAll is the list filter sentinel that also includes inactive accounts.
	RoleAll = "all"
)

// Account represents a row in the `accounts` table.
//
// Fields:
//
//	ID             – primary key, generated UUID.
//	Email          – unique, stored lower-cased.
//	HashedPassword – bcrypt hash, never leaves the service.
//	Role           – free-form role name, "admin" for administrators.
//	IsActive       – false once the account has been soft deleted.
//	FullName       – optional display name.
type Account struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email          string    `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword string    `gorm:"size:255;not null"`
	Role           string    `gorm:"size:20;not null"`
	IsActive       bool      `gorm:"not null"`
	FullName       *string   `gorm:"size:255"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Account) TableName() string { return "accounts" }

// AccountPublic is the projection returned over HTTP.
type AccountPublic struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
	FullName *string   `json:"full_name"`
}

// Public strips the password hash and timestamps.
func (a *Account) Public() AccountPublic {
	return AccountPublic{
		ID:       a.ID,
		Email:    a.Email,
		Role:     a.Role,
		IsActive: a.IsActive,
		FullName: a.FullName,
	}
}

// AccountCreate is the payload of POST /accounts.
type AccountCreate struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=40"`
	Role     string  `json:"role" validate:"omitempty,max=20"`
	IsActive *bool   `json:"is_active"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// AccountUpdate is the payload of PATCH /accounts/:id.  Nil fields are left
// untouched.
type AccountUpdate struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=40"`
	Role     *string `json:"role" validate:"omitempty,notblank,max=20"`
	IsActive *bool   `json:"is_active"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// AccountsPublic is the list envelope.
type AccountsPublic struct {
	Data  []AccountPublic `json:"data"`
	Count int             `json:"count"`
}
