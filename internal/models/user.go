package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User roles. A role decides which API scopes a session token carries.
const (
	RoleReader  = "reader"
	RoleWriter  = "writer"
	RoleManager = "manager"
)

// ValidRole reports whether the role is one of the defined user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleReader, RoleWriter, RoleManager:
		return true
	default:
		return false
	}
}

// User represents a platform account.
type User struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Username     string          `db:"username" json:"username"`
	Email        string          `db:"email" json:"email"`
	DisplayName  string          `db:"display_name" json:"display_name"`
	PasswordHash string          `db:"password_hash" json:"-"`
	PasswordSalt string          `db:"password_salt" json:"-"`
	Role         string          `db:"role" json:"role"`
	IsBanned     bool            `db:"is_banned" json:"isBanned"`
	Preferences  json.RawMessage `db:"preferences" json:"preferences,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// Preferences is the user settings blob stored as jsonb. The frontend owns
// most of its shape; only the fields the server reads are typed here.
type Preferences struct {
	Theme            string `json:"theme,omitempty"`
	Language         string `json:"language,omitempty"`
	HideMatureScenes bool   `json:"hideMatureScenes,omitempty"`
	EmailDigest      bool   `json:"emailDigest,omitempty"`
}
