package group

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.Table{},
		&models.TableGroup{},
		&models.Column{},
		&models.ColumnGroup{},
		&models.AuditLog{},
	)
	require.NoError(t, err, "failed to migrate test database")

	// a second pooled connection would see its own memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)

	return NewService(db, audit.NewStore()), db
}

func adminCtx() *authz.Context {
	return &authz.Context{UserID: 1, Admin: true}
}

func TestCreateEditRemove(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(adminCtx(), "readers", "Readers")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = svc.Create(adminCtx(), "readers", "")
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = svc.Create(adminCtx(), "", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	edited, err := svc.Edit(adminCtx(), created.ID, "", "Everyone")
	require.NoError(t, err)
	assert.Equal(t, "readers", edited.Name) // empty name keeps the old one
	assert.Equal(t, "Everyone", edited.Title)

	removed, err := svc.Remove(adminCtx(), created.ID)
	require.NoError(t, err)
	assert.True(t, removed.Deleted)

	_, err = svc.Edit(adminCtx(), created.ID, "x", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Remove(adminCtx(), created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListEmbedsLiveEdges(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.Create(adminCtx(), "readers", "")
	require.NoError(t, err)

	alive := models.User{Username: "alice", Password: "x"}
	require.NoError(t, db.Create(&alive).Error)
	gone := models.User{Username: "bob", Password: "x", Deleted: true}
	require.NoError(t, db.Create(&gone).Error)

	require.NoError(t, db.Create(&models.UserGroup{UserID: alive.ID, GroupID: created.ID}).Error)
	require.NoError(t, db.Create(&models.UserGroup{UserID: gone.ID, GroupID: created.ID}).Error)

	table := models.Table{Name: "inventory"}
	require.NoError(t, db.Create(&table).Error)
	require.NoError(t, db.Create(&models.TableGroup{TableID: table.ID, GroupID: created.ID}).Error)

	column := models.Column{TableID: table.ID, Name: "amount", Type: models.ColumnTypeInt}
	require.NoError(t, db.Create(&column).Error)
	require.NoError(t, db.Create(&models.ColumnGroup{ColumnID: column.ID, GroupID: created.ID}).Error)

	// a soft deleted group disappears from the listing entirely
	_, err = svc.Create(adminCtx(), "legacy", "")
	require.NoError(t, err)
	var legacy models.Group
	require.NoError(t, db.Where("name = ?", "legacy").First(&legacy).Error)
	_, err = svc.Remove(adminCtx(), legacy.ID)
	require.NoError(t, err)

	listed, err := svc.List()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	require.Len(t, listed[0].Users, 1)
	assert.Equal(t, "alice", listed[0].Users[0].Username)
	require.Len(t, listed[0].Tables, 1)
	assert.Equal(t, "inventory", listed[0].Tables[0].Name)
	require.Len(t, listed[0].Columns, 1)
	assert.Equal(t, "amount", listed[0].Columns[0].Name)
}
