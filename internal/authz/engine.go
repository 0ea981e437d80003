package authz

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

// Engine answers authorization questions about tables, columns, rows and
// cells. A nil error means allow; apperr.ErrForbidden means the principal
// lacks rights; apperr.ErrNotFound means the resource does not exist or is
// soft deleted, independent of rights.
//
// Admin principals always short-circuit to allow after the resource
// existence check.
type Engine struct {
	db *gorm.DB

	// cellWriteUsesColumnACL additionally requires column-level visibility
	// when editing a cell. Off, editing requires table visibility only.
	cellWriteUsesColumnACL bool
}

// NewEngine creates the authorization engine.
func NewEngine(db *gorm.DB, cellWriteUsesColumnACL bool) *Engine {
	return &Engine{db: db, cellWriteUsesColumnACL: cellWriteUsesColumnACL}
}

// liveTable loads a table that exists and is not soft deleted.
func (e *Engine) liveTable(tableID uint64) (*models.Table, error) {
	var table models.Table

	err := e.db.Where("id = ? AND deleted = ?", tableID, false).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", tableID, err)
	}

	return &table, nil
}

// edgeMatch reports whether any of the principal's groups appears in the
// given edge table for tableID.
func (e *Engine) edgeMatch(edgeTable string, tableID uint64, ctx *Context) (bool, error) {
	if len(ctx.GroupIDs) == 0 {
		return false, nil
	}

	var count int64

	err := e.db.Table(edgeTable).
		Where("table_id = ? AND group_id IN ?", tableID, ctx.GroupIDs).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", edgeTable, err)
	}

	return count > 0, nil
}

// CanReadTable decides read access to a table, its columns and its rows.
func (e *Engine) CanReadTable(ctx *Context, tableID uint64) error {
	if _, err := e.liveTable(tableID); err != nil {
		return err
	}

	if ctx.Admin {
		return nil
	}

	ok, err := e.edgeMatch("table_groups", tableID, ctx)
	if err != nil {
		return err
	}

	if !ok {
		return apperr.ErrForbidden
	}

	return nil
}

// CanCreateRow decides row creation in a table. Visibility is not implied:
// a group holding only the create grant may create rows in a table it
// cannot read.
func (e *Engine) CanCreateRow(ctx *Context, tableID uint64) error {
	if _, err := e.liveTable(tableID); err != nil {
		return err
	}

	if ctx.Admin {
		return nil
	}

	ok, err := e.edgeMatch("table_groups_create", tableID, ctx)
	if err != nil {
		return err
	}

	if !ok {
		return apperr.ErrForbidden
	}

	return nil
}

// CanDeleteRow decides deletion of a row, resolved through the row's owning
// table's delete grants.
func (e *Engine) CanDeleteRow(ctx *Context, rowID uint64) error {
	var row models.Row

	err := e.db.Where("id = ? AND deleted = ?", rowID, false).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to load row %d: %w", rowID, err)
	}

	if ctx.Admin {
		return nil
	}

	ok, err := e.edgeMatch("table_groups_delete", row.TableID, ctx)
	if err != nil {
		return err
	}

	if !ok {
		return apperr.ErrForbidden
	}

	return nil
}

// CanEditCell decides editing of a cell. Editing requires at least read
// access on the owning table; when the engine is configured with column
// write ACLs, the cell's column must additionally be visible to the
// principal under the narrowing rule.
func (e *Engine) CanEditCell(ctx *Context, cellID uint64) error {
	var cell models.Cell

	err := e.db.First(&cell, cellID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to load cell %d: %w", cellID, err)
	}

	if err := e.CanReadTable(ctx, cell.TableID); err != nil {
		return err
	}

	if !e.cellWriteUsesColumnACL || ctx.Admin {
		return nil
	}

	visible, err := e.columnVisible(ctx, cell.ColumnID)
	if err != nil {
		return err
	}

	if !visible {
		return apperr.ErrForbidden
	}

	return nil
}

// columnVisible applies the narrowing rule for one column: visible when the
// column carries no ColumnGroup edges, or when the principal's groups
// intersect them. Table-level visibility is checked by the caller.
func (e *Engine) columnVisible(ctx *Context, columnID uint64) (bool, error) {
	var restricted int64

	err := e.db.Model(&models.ColumnGroup{}).
		Where("column_id = ?", columnID).
		Count(&restricted).Error
	if err != nil {
		return false, fmt.Errorf("failed to check column restrictions: %w", err)
	}

	if restricted == 0 {
		return true, nil
	}

	if len(ctx.GroupIDs) == 0 {
		return false, nil
	}

	var matched int64

	err = e.db.Model(&models.ColumnGroup{}).
		Where("column_id = ? AND group_id IN ?", columnID, ctx.GroupIDs).
		Count(&matched).Error
	if err != nil {
		return false, fmt.Errorf("failed to check column groups: %w", err)
	}

	return matched > 0, nil
}

// VisibleColumns returns the live columns of a table the principal may see,
// ordered by display position. Column visibility narrows table visibility:
// the principal must see the table, and each column must either carry no
// ColumnGroup edges or intersect the principal's groups. Admins see every
// live column.
func (e *Engine) VisibleColumns(ctx *Context, tableID uint64) ([]models.Column, error) {
	if err := e.CanReadTable(ctx, tableID); err != nil {
		return nil, err
	}

	var columns []models.Column

	err := e.db.Where("table_id = ? AND deleted = ?", tableID, false).
		Order("display_order").
		Find(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load columns: %w", err)
	}

	if ctx.Admin {
		return columns, nil
	}

	visible := make([]models.Column, 0, len(columns))

	for i := range columns {
		ok, err := e.columnVisible(ctx, columns[i].ID)
		if err != nil {
			return nil, err
		}

		if ok {
			visible = append(visible, columns[i])
		}
	}

	return visible, nil
}

// VisibleTables returns all live tables the principal may read. Admins see
// every live table.
func (e *Engine) VisibleTables(ctx *Context) ([]models.Table, error) {
	var tables []models.Table

	query := e.db.Where("deleted = ?", false)

	if !ctx.Admin {
		if len(ctx.GroupIDs) == 0 {
			return []models.Table{}, nil
		}

		query = query.Where(
			"id IN (SELECT table_id FROM table_groups WHERE group_id IN ?)",
			ctx.GroupIDs,
		)
	}

	if err := query.Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	return tables, nil
}

// RequireAdmin gates the admin-only surface: table/column/group/user CRUD
// and all edge management.
func RequireAdmin(ctx *Context) error {
	if !ctx.Admin {
		return apperr.ErrForbidden
	}

	return nil
}
