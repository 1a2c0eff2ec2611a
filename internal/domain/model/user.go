package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of capabilities a user may hold.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleChef   Role = "chef"
	RoleMember Role = "member"
)

// Scan implements sql.Scanner interface
func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		*r = RoleMember
	}
	return nil
}

// Value implements driver.Valuer interface
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleChef, RoleMember:
		return true
	}
	return false
}

// User represents a platform account.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string    `gorm:"unique;not null;size:255" json:"email"`
	PasswordHash    string    `gorm:"not null;size:255" json:"-"`
	FullName        string    `gorm:"size:200" json:"full_name"`
	Role            Role      `gorm:"not null;size:10" json:"role"`
	IsEmailVerified bool      `gorm:"not null;default:false" json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
