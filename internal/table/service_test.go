package table

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
	"github.com/tabledeck/tabledeck/internal/schema"
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
		&models.TableGroupCreate{},
		&models.TableGroupDelete{},
		&models.Column{},
		&models.ColumnGroup{},
		&models.Row{},
		&models.Cell{},
		&models.AuditLog{},
	)
	require.NoError(t, err, "failed to migrate test database")

	// a second pooled connection would see its own memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func newTestService(t *testing.T, cellWriteUsesColumnACL bool) (*Service, *gorm.DB, *schema.Coordinator) {
	t.Helper()

	db := setupTestDB(t)
	recorder := audit.NewStore()
	engine := authz.NewEngine(db, cellWriteUsesColumnACL)
	coordinator := schema.NewCoordinator(db, recorder)

	return NewService(db, engine, coordinator, recorder), db, coordinator
}

func adminCtx() *authz.Context {
	return &authz.Context{UserID: 1, Admin: true}
}

func TestCreateBootstrapsActionColumn(t *testing.T) {
	svc, db, _ := newTestService(t, false)

	created, err := svc.Create(adminCtx(), "inventory", "Inventory")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	var columns []models.Column
	require.NoError(t, db.Where("table_id = ?", created.ID).Find(&columns).Error)
	require.Len(t, columns, 1)
	assert.Equal(t, "action", columns[0].Name)
	assert.Equal(t, models.ColumnTypeAction, columns[0].Type)
	require.NotNil(t, columns[0].Order)
	assert.Equal(t, 0, *columns[0].Order)

	// table and bootstrap column are audited separately
	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", models.AuditActionCreate).
		Count(&auditCount).Error)
	assert.Equal(t, int64(2), auditCount)

	_, err = svc.Create(adminCtx(), "", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetIsAdminOnly(t *testing.T) {
	svc, db, _ := newTestService(t, false)

	created, err := svc.Create(adminCtx(), "inventory", "")
	require.NoError(t, err)

	group := models.Group{Name: "readers"}
	require.NoError(t, db.Create(&group).Error)
	require.NoError(t, db.Create(&models.TableGroup{TableID: created.ID, GroupID: group.ID}).Error)
	require.NoError(t, db.Create(&models.TableGroupCreate{TableID: created.ID, GroupID: group.ID}).Error)

	detail, err := svc.Get(adminCtx(), created.ID)
	require.NoError(t, err)
	assert.Len(t, detail.TableGroups, 1)
	assert.Len(t, detail.TableGroupsCreate, 1)
	assert.Empty(t, detail.TableGroupsDelete)

	// even a member of the granted group gets no detail view
	_, err = svc.Get(&authz.Context{UserID: 2, GroupIDs: []uint64{group.ID}}, created.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Get(adminCtx(), 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListRows(t *testing.T) {
	svc, db, coordinator := newTestService(t, false)

	created, err := svc.Create(adminCtx(), "inventory", "")
	require.NoError(t, err)

	row, err := coordinator.CreateRow(adminCtx(), created.ID)
	require.NoError(t, err)

	_, err = coordinator.RetireRow(adminCtx(), row.ID)
	require.NoError(t, err)

	kept, err := coordinator.CreateRow(adminCtx(), created.ID)
	require.NoError(t, err)

	rows, err := svc.ListRows(adminCtx(), created.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, kept.ID, rows[0].ID)
	assert.Len(t, rows[0].Cells, 1) // the bootstrap action cell

	group := models.Group{Name: "outsiders"}
	require.NoError(t, db.Create(&group).Error)

	_, err = svc.ListRows(&authz.Context{UserID: 2, GroupIDs: []uint64{group.ID}}, created.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func strPtr(s string) *string { return &s }

func intPtr(n int64) *int64 { return &n }

func TestEditCell(t *testing.T) {
	svc, db, coordinator := newTestService(t, false)

	created, err := svc.Create(adminCtx(), "inventory", "")
	require.NoError(t, err)

	_, err = coordinator.CreateColumn(adminCtx(), created.ID, schema.ColumnParams{
		Name: "amount",
		Type: models.ColumnTypeInt,
	})
	require.NoError(t, err)

	row, err := coordinator.CreateRow(adminCtx(), created.ID)
	require.NoError(t, err)
	require.Len(t, row.Cells, 2)

	cellID := row.Cells[0].ID

	edited, err := svc.EditCell(adminCtx(), cellID, CellValues{
		ValueInt:    intPtr(12),
		ValueString: strPtr("twelve"),
	})
	require.NoError(t, err)
	require.NotNil(t, edited.ValueInt)
	assert.Equal(t, int64(12), *edited.ValueInt)
	require.NotNil(t, edited.ValueString)
	assert.Equal(t, "twelve", *edited.ValueString)

	// a second edit keeps the untouched slots
	edited, err = svc.EditCell(adminCtx(), cellID, CellValues{ValueInt: intPtr(13)})
	require.NoError(t, err)
	assert.Equal(t, int64(13), *edited.ValueInt)
	assert.Equal(t, "twelve", *edited.ValueString)

	// cell edits are audited
	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ? AND cell_id = ?", models.AuditActionUpdate, cellID).
		Count(&auditCount).Error)
	assert.Equal(t, int64(2), auditCount)

	_, err = svc.EditCell(adminCtx(), 9999, CellValues{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEditCellDates(t *testing.T) {
	svc, _, coordinator := newTestService(t, false)

	created, err := svc.Create(adminCtx(), "inventory", "")
	require.NoError(t, err)

	row, err := coordinator.CreateRow(adminCtx(), created.ID)
	require.NoError(t, err)

	cellID := row.Cells[0].ID

	testCases := []struct {
		name        string
		value       string
		expectError bool
	}{
		{name: "rfc3339", value: "2024-06-01T10:30:00Z"},
		{name: "plain date", value: "2024-06-01"},
		{name: "garbage", value: "first of june", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			edited, err := svc.EditCell(adminCtx(), cellID, CellValues{ValueDate: strPtr(tc.value)})
			if tc.expectError {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, edited.ValueDate)
		})
	}
}

func TestEditCellVisibilityGate(t *testing.T) {
	svc, db, coordinator := newTestService(t, false)

	created, err := svc.Create(adminCtx(), "inventory", "")
	require.NoError(t, err)

	row, err := coordinator.CreateRow(adminCtx(), created.ID)
	require.NoError(t, err)

	group := models.Group{Name: "outsiders"}
	require.NoError(t, db.Create(&group).Error)

	_, err = svc.EditCell(&authz.Context{UserID: 2, GroupIDs: []uint64{group.ID}}, row.Cells[0].ID, CellValues{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, db.Create(&models.TableGroup{TableID: created.ID, GroupID: group.ID}).Error)

	_, err = svc.EditCell(&authz.Context{UserID: 2, GroupIDs: []uint64{group.ID}}, row.Cells[0].ID, CellValues{})
	assert.NoError(t, err)
}

func TestRemoveHidesTable(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	created, err := svc.Create(adminCtx(), "inventory", "")
	require.NoError(t, err)

	removed, err := svc.Remove(adminCtx(), created.ID)
	require.NoError(t, err)
	assert.True(t, removed.Deleted)

	tables, err := svc.List(adminCtx())
	require.NoError(t, err)
	assert.Empty(t, tables)

	_, err = svc.Get(adminCtx(), created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Remove(adminCtx(), created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
