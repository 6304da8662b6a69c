package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
)

const placeholderDomain = "placeholder.com"

const ensureUserSQL = `INSERT INTO users (id, email, created_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`

// Repository exposes user-related persistence operations.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// PlaceholderEmail derives the unique email assigned to lazily created users.
func PlaceholderEmail(userID string) string {
	return fmt.Sprintf("%s@%s", userID, placeholderDomain)
}

// EnsurePlaceholder creates the user with a placeholder email unless it
// already exists. Concurrent callers converge on a single row.
func (r *Repository) EnsurePlaceholder(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return gorm.ErrInvalidValue
	}
	return r.base.DB(ctx).
		Exec(ensureUserSQL, userID, PlaceholderEmail(userID), time.Now().UTC()).
		Error
}
