package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

func TestResolve(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)

	alive := models.User{Username: "alice", Password: "x", Admin: true}
	require.NoError(t, db.Create(&alive).Error)

	gone := models.User{Username: "bob", Password: "x", Deleted: true}
	require.NoError(t, db.Create(&gone).Error)

	liveGroup := seedGroup(t, db, "live")
	deadGroup := models.Group{Name: "dead", Deleted: true}
	require.NoError(t, db.Create(&deadGroup).Error)

	require.NoError(t, db.Create(&models.UserGroup{UserID: alive.ID, GroupID: liveGroup.ID}).Error)
	require.NoError(t, db.Create(&models.UserGroup{UserID: alive.ID, GroupID: deadGroup.ID}).Error)

	t.Run("live user resolves with live groups only", func(t *testing.T) {
		ctx, err := resolver.Resolve(alive.ID)
		require.NoError(t, err)
		assert.Equal(t, alive.ID, ctx.UserID)
		assert.True(t, ctx.Admin)
		assert.Equal(t, []uint64{liveGroup.ID}, ctx.GroupIDs)
	})

	t.Run("deleted user does not resolve", func(t *testing.T) {
		_, err := resolver.Resolve(gone.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown user does not resolve", func(t *testing.T) {
		_, err := resolver.Resolve(9999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
