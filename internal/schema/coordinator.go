// Package schema coordinates dynamic schema mutation: adding and retiring
// columns and rows while keeping the cell grid rectangular. The invariant is
// that every live row holds exactly one cell per live column of its table;
// fan-out computes the missing cells by set difference against the cells
// that already exist, never by comparing counts, so it stays correct after
// columns have been retired and stays idempotent after partial failure.
package schema

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

// ColumnParams are the caller-provided attributes of a new or edited column.
// Nil pointer fields are left unchanged on edit.
type ColumnParams struct {
	Name     string
	Title    *string
	Type     models.ColumnType
	Dropdown *string
	Order    *int
}

// Coordinator applies schema mutations. Mutations of the same table are
// serialized through a per-table lock and each fan-out batch runs in a
// single transaction, so a failure mid-batch rolls back to a re-enterable
// state instead of leaving a ragged grid.
type Coordinator struct {
	db       *gorm.DB
	recorder audit.Recorder

	locks sync.Map // tableID -> *sync.Mutex
}

// NewCoordinator creates a schema mutation coordinator.
func NewCoordinator(db *gorm.DB, recorder audit.Recorder) *Coordinator {
	return &Coordinator{db: db, recorder: recorder}
}

func (c *Coordinator) lockTable(tableID uint64) func() {
	mu, _ := c.locks.LoadOrStore(tableID, &sync.Mutex{})
	m, _ := mu.(*sync.Mutex)
	m.Lock()

	return m.Unlock
}

// liveTable loads a table that exists and is not soft deleted.
func liveTable(tx *gorm.DB, tableID uint64) (*models.Table, error) {
	var table models.Table

	err := tx.Where("id = ? AND deleted = ?", tableID, false).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", tableID, err)
	}

	return &table, nil
}

// CreateColumn inserts a live column and fans one empty cell out to every
// live row of the table that does not already hold a cell for it. Each
// created cell is audited individually.
func (c *Coordinator) CreateColumn(ctx *authz.Context, tableID uint64, params ColumnParams) (*models.Column, error) {
	if params.Name == "" || !params.Type.Valid() {
		return nil, apperr.ErrValidation
	}

	unlock := c.lockTable(tableID)
	defer unlock()

	var column models.Column

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if _, err := liveTable(tx, tableID); err != nil {
			return err
		}

		column = models.Column{
			TableID: tableID,
			Name:    params.Name,
			Type:    params.Type,
			Order:   params.Order,
		}
		if params.Title != nil {
			column.Title = *params.Title
		}
		if params.Dropdown != nil {
			column.Dropdown = *params.Dropdown
		}

		if err := tx.Create(&column).Error; err != nil {
			return fmt.Errorf("failed to create column: %w", err)
		}

		err := c.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			ColumnID:    audit.Ref(column.ID),
			Value:       column,
		})
		if err != nil {
			return err
		}

		return c.fanOutColumn(tx, ctx, &column)
	})
	if err != nil {
		return nil, err
	}

	return &column, nil
}

// fanOutColumn creates the missing cells of a column across the table's live
// rows. The target rows are computed by set difference: live rows with no
// cell for this column. Retired columns keep their historical cells, so any
// count-based shortcut would be wrong here.
func (c *Coordinator) fanOutColumn(tx *gorm.DB, ctx *authz.Context, column *models.Column) error {
	var rowIDs []uint64

	err := tx.Model(&models.Row{}).
		Where("table_id = ? AND deleted = ?", column.TableID, false).
		Where("id NOT IN (SELECT row_id FROM cells WHERE column_id = ?)", column.ID).
		Pluck("id", &rowIDs).Error
	if err != nil {
		return fmt.Errorf("failed to find rows missing cells: %w", err)
	}

	for _, rowID := range rowIDs {
		cell := models.Cell{
			TableID:  column.TableID,
			ColumnID: column.ID,
			RowID:    rowID,
		}

		if err := tx.Create(&cell).Error; err != nil {
			return fmt.Errorf("failed to create cell for row %d: %w", rowID, err)
		}

		err := c.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			CellID:      audit.Ref(cell.ID),
			Value:       cell,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// EditColumn updates the mutable attributes of a live column.
func (c *Coordinator) EditColumn(ctx *authz.Context, columnID uint64, params ColumnParams) (*models.Column, error) {
	var column models.Column

	err := c.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", columnID, false).First(&column).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load column %d: %w", columnID, err)
		}

		if params.Name != "" {
			column.Name = params.Name
		}
		if params.Title != nil {
			column.Title = *params.Title
		}
		if params.Type != "" {
			if !params.Type.Valid() {
				return apperr.ErrValidation
			}
			column.Type = params.Type
		}
		if params.Dropdown != nil {
			column.Dropdown = *params.Dropdown
		}
		if params.Order != nil {
			column.Order = params.Order
		}

		if err := tx.Save(&column).Error; err != nil {
			return fmt.Errorf("failed to update column: %w", err)
		}

		return c.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionUpdate,
			InitiatorID: ctx.UserID,
			ColumnID:    audit.Ref(column.ID),
			Value:       column,
		})
	})
	if err != nil {
		return nil, err
	}

	return &column, nil
}

// RetireColumn moves a column to the retired state: order is cleared and the
// deleted flag set. The transition is one-way and the column's cells are
// retained; they just stop appearing in live projections and future rows
// receive no cell for it.
func (c *Coordinator) RetireColumn(ctx *authz.Context, columnID uint64) (*models.Column, error) {
	var column models.Column

	err := c.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", columnID, false).First(&column).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load column %d: %w", columnID, err)
		}

		column.Order = nil
		column.Deleted = true

		err = tx.Model(&models.Column{}).
			Where("id = ?", columnID).
			Updates(map[string]interface{}{"display_order": nil, "deleted": true}).Error
		if err != nil {
			return fmt.Errorf("failed to retire column: %w", err)
		}

		return c.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionDelete,
			InitiatorID: ctx.UserID,
			ColumnID:    audit.Ref(column.ID),
			Value:       column,
		})
	})
	if err != nil {
		return nil, err
	}

	return &column, nil
}

// CreateRow inserts a row and fans one empty cell out per live column of the
// table. The cells are computed by the same set-difference discipline as
// column fan-out, so re-running after a partial failure creates only what is
// still missing.
func (c *Coordinator) CreateRow(ctx *authz.Context, tableID uint64) (*models.Row, error) {
	unlock := c.lockTable(tableID)
	defer unlock()

	var row models.Row

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if _, err := liveTable(tx, tableID); err != nil {
			return err
		}

		row = models.Row{TableID: tableID}

		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create row: %w", err)
		}

		err := c.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			RowID:       audit.Ref(row.ID),
			Value:       row,
		})
		if err != nil {
			return err
		}

		return c.fanOutRow(tx, ctx, &row)
	})
	if err != nil {
		return nil, err
	}

	if err := c.db.Where("row_id = ?", row.ID).Find(&row.Cells).Error; err != nil {
		return nil, fmt.Errorf("failed to load row cells: %w", err)
	}

	return &row, nil
}

// fanOutRow creates the missing cells of a row across the table's live
// columns: live columns with no cell for this row yet.
func (c *Coordinator) fanOutRow(tx *gorm.DB, ctx *authz.Context, row *models.Row) error {
	var columnIDs []uint64

	err := tx.Model(&models.Column{}).
		Where("table_id = ? AND deleted = ?", row.TableID, false).
		Where("id NOT IN (SELECT column_id FROM cells WHERE row_id = ?)", row.ID).
		Pluck("id", &columnIDs).Error
	if err != nil {
		return fmt.Errorf("failed to find columns missing cells: %w", err)
	}

	for _, columnID := range columnIDs {
		cell := models.Cell{
			TableID:  row.TableID,
			ColumnID: columnID,
			RowID:    row.ID,
		}

		if err := tx.Create(&cell).Error; err != nil {
			return fmt.Errorf("failed to create cell for column %d: %w", columnID, err)
		}

		err := c.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			CellID:      audit.Ref(cell.ID),
			Value:       cell,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Repair re-runs both fan-out directions for a table. Running it any number
// of times creates only cells that are still missing. It exists for
// re-entering after a partial failure that was committed by an earlier
// version of the data, not for routine use.
func (c *Coordinator) Repair(ctx *authz.Context, tableID uint64) error {
	unlock := c.lockTable(tableID)
	defer unlock()

	return c.db.Transaction(func(tx *gorm.DB) error {
		if _, err := liveTable(tx, tableID); err != nil {
			return err
		}

		var columns []models.Column

		err := tx.Where("table_id = ? AND deleted = ?", tableID, false).Find(&columns).Error
		if err != nil {
			return fmt.Errorf("failed to load columns: %w", err)
		}

		for i := range columns {
			if err := c.fanOutColumn(tx, ctx, &columns[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

// RetireRow soft-deletes a row. Its cells are retained.
func (c *Coordinator) RetireRow(ctx *authz.Context, rowID uint64) (*models.Row, error) {
	var row models.Row

	err := c.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", rowID, false).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load row %d: %w", rowID, err)
		}

		row.Deleted = true

		if err := tx.Model(&models.Row{}).Where("id = ?", rowID).Update("deleted", true).Error; err != nil {
			return fmt.Errorf("failed to retire row: %w", err)
		}

		return c.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionDelete,
			InitiatorID: ctx.UserID,
			RowID:       audit.Ref(row.ID),
			Value:       row,
		})
	})
	if err != nil {
		return nil, err
	}

	return &row, nil
}
