// Package table implements table CRUD, row listing and cell editing on top
// of the authorization engine and the schema coordinator.
package table

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/db/models"
	"github.com/tabledeck/tabledeck/internal/schema"
)

// Detail is the admin single-table view: the table plus its three grant
// edge lists.
type Detail struct {
	models.Table

	TableGroups       []models.TableGroup       `json:"tableGroups"`
	TableGroupsCreate []models.TableGroupCreate `json:"tableGroupsCreate"`
	TableGroupsDelete []models.TableGroupDelete `json:"tableGroupsDelete"`
}

// CellValues carries the typed value slots of a cell edit. Nil slots are
// left unchanged.
type CellValues struct {
	ValueInt      *int64
	ValueString   *string
	ValueDate     *string
	ValueBoolean  *bool
	ValueDropdown *int
}

// Service provides table, row and cell operations.
type Service struct {
	db          *gorm.DB
	engine      *authz.Engine
	coordinator *schema.Coordinator
	recorder    audit.Recorder
}

// NewService creates the table service.
func NewService(db *gorm.DB, engine *authz.Engine, coordinator *schema.Coordinator, recorder audit.Recorder) *Service {
	return &Service{db: db, engine: engine, coordinator: coordinator, recorder: recorder}
}

// List returns the live tables visible to the principal. Admins see all.
func (s *Service) List(ctx *authz.Context) ([]models.Table, error) {
	return s.engine.VisibleTables(ctx)
}

// Get returns one live table with its grant edges. Admin-only surface.
func (s *Service) Get(ctx *authz.Context, tableID uint64) (*Detail, error) {
	if err := authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var detail Detail

	err := s.db.Where("id = ? AND deleted = ?", tableID, false).First(&detail.Table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", tableID, err)
	}

	if err := s.db.Where("table_id = ?", tableID).Find(&detail.TableGroups).Error; err != nil {
		return nil, fmt.Errorf("failed to load table groups: %w", err)
	}

	if err := s.db.Where("table_id = ?", tableID).Find(&detail.TableGroupsCreate).Error; err != nil {
		return nil, fmt.Errorf("failed to load create grants: %w", err)
	}

	if err := s.db.Where("table_id = ?", tableID).Find(&detail.TableGroupsDelete).Error; err != nil {
		return nil, fmt.Errorf("failed to load delete grants: %w", err)
	}

	return &detail, nil
}

// Create inserts a table and its bootstrap action column at order 0. Both
// creations are audited separately.
func (s *Service) Create(ctx *authz.Context, name, title string) (*models.Table, error) {
	if name == "" {
		return nil, apperr.ErrValidation
	}

	table := models.Table{Name: name, Title: title}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&table).Error; err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			TableID:     audit.Ref(table.ID),
			Value:       table,
		})
	})
	if err != nil {
		return nil, err
	}

	zero := 0

	_, err = s.coordinator.CreateColumn(ctx, table.ID, schema.ColumnParams{
		Name:  "action",
		Type:  models.ColumnTypeAction,
		Order: &zero,
	})
	if err != nil {
		return nil, err
	}

	return &table, nil
}

// Edit updates a live table's name and title.
func (s *Service) Edit(ctx *authz.Context, tableID uint64, name, title string) (*models.Table, error) {
	var table models.Table

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", tableID, false).First(&table).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load table %d: %w", tableID, err)
		}

		if name != "" {
			table.Name = name
		}
		if title != "" {
			table.Title = title
		}

		if err := tx.Save(&table).Error; err != nil {
			return fmt.Errorf("failed to update table: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionUpdate,
			InitiatorID: ctx.UserID,
			TableID:     audit.Ref(table.ID),
			Value:       table,
		})
	})
	if err != nil {
		return nil, err
	}

	return &table, nil
}

// Remove soft-deletes a table. Columns, rows and cells are retained.
func (s *Service) Remove(ctx *authz.Context, tableID uint64) (*models.Table, error) {
	var table models.Table

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", tableID, false).First(&table).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load table %d: %w", tableID, err)
		}

		table.Deleted = true

		if err := tx.Model(&models.Table{}).Where("id = ?", tableID).Update("deleted", true).Error; err != nil {
			return fmt.Errorf("failed to delete table: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionDelete,
			InitiatorID: ctx.UserID,
			TableID:     audit.Ref(table.ID),
			Value:       table,
		})
	})
	if err != nil {
		return nil, err
	}

	return &table, nil
}

// ListRows returns the live rows of a table with their cells, gated on
// table visibility.
func (s *Service) ListRows(ctx *authz.Context, tableID uint64) ([]models.Row, error) {
	if err := s.engine.CanReadTable(ctx, tableID); err != nil {
		return nil, err
	}

	var rows []models.Row

	err := s.db.Preload("Cells").
		Where("table_id = ? AND deleted = ?", tableID, false).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}

	return rows, nil
}

// EditCell writes the supplied value slots of a cell, gated by the
// authorization engine (table visibility, plus the column write ACL when
// configured).
func (s *Service) EditCell(ctx *authz.Context, cellID uint64, values CellValues) (*models.Cell, error) {
	if err := s.engine.CanEditCell(ctx, cellID); err != nil {
		return nil, err
	}

	var cell models.Cell

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cell, cellID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}

			return fmt.Errorf("failed to load cell %d: %w", cellID, err)
		}

		if values.ValueInt != nil {
			cell.ValueInt = values.ValueInt
		}
		if values.ValueString != nil {
			cell.ValueString = values.ValueString
		}
		if values.ValueBoolean != nil {
			cell.ValueBoolean = values.ValueBoolean
		}
		if values.ValueDropdown != nil {
			cell.ValueDropdown = values.ValueDropdown
		}
		if values.ValueDate != nil {
			parsed, err := parseDate(*values.ValueDate)
			if err != nil {
				return apperr.ErrValidation
			}
			cell.ValueDate = &parsed
		}

		if err := tx.Save(&cell).Error; err != nil {
			return fmt.Errorf("failed to update cell: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionUpdate,
			InitiatorID: ctx.UserID,
			CellID:      audit.Ref(cell.ID),
			Value:       cell,
		})
	})
	if err != nil {
		return nil, err
	}

	return &cell, nil
}
