package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// API scopes. Keys carry an explicit scope list; session tokens derive
// theirs from the user role via ScopesForRole.
const (
	ScopeStoriesRead    = "stories:read"
	ScopeStoriesWrite   = "stories:write"
	ScopeStoriesDelete  = "stories:delete"
	ScopeStoriesPublish = "stories:publish"
	ScopeImagesRead     = "images:read"
	ScopeImagesWrite    = "images:write"
	ScopeChaptersRead   = "chapters:read"
	ScopeChaptersWrite  = "chapters:write"
	ScopeChaptersDelete = "chapters:delete"
	ScopeAnalyticsRead  = "analytics:read"
	ScopeAIUse          = "ai:use"
	ScopeCommunityRead  = "community:read"
	ScopeCommunityWrite = "community:write"
	ScopeSettingsRead   = "settings:read"
	ScopeSettingsWrite  = "settings:write"
	ScopeAdminAll       = "admin:all"
)

// AllScopes lists every scope a key may be granted.
var AllScopes = []string{
	ScopeStoriesRead, ScopeStoriesWrite, ScopeStoriesDelete, ScopeStoriesPublish,
	ScopeImagesRead, ScopeImagesWrite,
	ScopeChaptersRead, ScopeChaptersWrite, ScopeChaptersDelete,
	ScopeAnalyticsRead,
	ScopeAIUse,
	ScopeCommunityRead, ScopeCommunityWrite,
	ScopeSettingsRead, ScopeSettingsWrite,
	ScopeAdminAll,
}

// ValidScope reports whether the scope is a defined one.
func ValidScope(scope string) bool {
	for _, s := range AllScopes {
		if s == scope {
			return true
		}
	}
	return false
}

// APIKey is a long-lived bearer credential. The plaintext key is returned
// exactly once at creation; only its bcrypt hash and lookup prefix persist.
type APIKey struct {
	ID         string     `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Name       string     `db:"name" json:"name"`
	KeyPrefix  string     `db:"key_prefix" json:"key_prefix"`
	KeyHash    string     `db:"key_hash" json:"-"`
	Scopes     []string   `db:"scopes" json:"scopes"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// HasScope reports whether granted satisfies required. admin:all satisfies
// everything, and a :write scope satisfies the matching :read scope.
func HasScope(granted []string, required string) bool {
	for _, s := range granted {
		if s == required {
			return true
		}
		if s == ScopeAdminAll {
			return true
		}
	}
	if resource, ok := strings.CutSuffix(required, ":read"); ok {
		for _, s := range granted {
			if s == resource+":write" {
				return true
			}
		}
	}
	return false
}

// ScopesForRole maps a user role onto the scope set its session carries.
// Mirrors the grids used when provisioning keys for platform accounts.
func ScopesForRole(role string) []string {
	switch role {
	case RoleManager:
		return []string{
			ScopeStoriesRead, ScopeStoriesWrite, ScopeStoriesDelete, ScopeStoriesPublish,
			ScopeImagesRead, ScopeImagesWrite,
			ScopeChaptersRead, ScopeChaptersWrite, ScopeChaptersDelete,
			ScopeAnalyticsRead,
			ScopeAIUse,
			ScopeCommunityRead, ScopeCommunityWrite,
			ScopeSettingsRead, ScopeSettingsWrite,
			ScopeAdminAll,
		}
	case RoleWriter:
		return []string{
			ScopeStoriesRead, ScopeStoriesWrite,
			ScopeImagesRead, ScopeImagesWrite,
			ScopeChaptersRead, ScopeChaptersWrite,
			ScopeAnalyticsRead,
			ScopeAIUse,
			ScopeCommunityRead, ScopeCommunityWrite,
			ScopeSettingsRead, ScopeSettingsWrite,
		}
	default: // reader
		return []string{
			ScopeStoriesRead,
			ScopeImagesRead,
			ScopeChaptersRead,
			ScopeAnalyticsRead,
			ScopeCommunityRead,
			ScopeSettingsRead,
		}
	}
}
