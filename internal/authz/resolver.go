package authz

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

// Resolver loads the authorization context of a principal from the store.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a principal resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve loads the live user behind a verified principal id together with
// its live group memberships. A user soft-deleted after token issuance fails
// here with apperr.ErrNotFound, which revokes access immediately instead of
// waiting for the token to expire.
func (r *Resolver) Resolve(userID uint64) (*Context, error) {
	var user models.User

	err := r.db.Where("id = ? AND deleted = ?", userID, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	var groupIDs []uint64

	err = r.db.Table("user_groups").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("user_groups.user_id = ? AND groups.deleted = ?", userID, false).
		Pluck("user_groups.group_id", &groupIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load group memberships: %w", err)
	}

	return &Context{
		UserID:   user.ID,
		Admin:    user.Admin,
		GroupIDs: groupIDs,
	}, nil
}
