// Package acl maintains the membership and grant edges: user↔group
// membership, the three independent table↔group grants (visibility, row
// create, row delete) and the column↔group visibility restriction. Edges are
// hard rows, not soft-deleted entities; both endpoints must resolve to live
// entities at creation time, duplicates are rejected, and every successful
// add or remove emits exactly one audit record.
package acl

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

// Store manages membership and ACL edges.
type Store struct {
	db       *gorm.DB
	recorder audit.Recorder
}

// NewStore creates an ACL store.
func NewStore(db *gorm.DB, recorder audit.Recorder) *Store {
	return &Store{db: db, recorder: recorder}
}

// liveExists reports whether a live entity with the given id exists in model.
func liveExists(tx *gorm.DB, model interface{}, id uint64) (bool, error) {
	var count int64

	err := tx.Model(model).Where("id = ? AND deleted = ?", id, false).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}

	return count > 0, nil
}

// AddUserGroup adds a user to a group.
func (s *Store) AddUserGroup(ctx *authz.Context, userID, groupID uint64) (*models.UserGroup, error) {
	edge := models.UserGroup{UserID: userID, GroupID: groupID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, ref := range []struct {
			model interface{}
			id    uint64
		}{
			{&models.User{}, userID},
			{&models.Group{}, groupID},
		} {
			ok, err := liveExists(tx, ref.model, ref.id)
			if err != nil {
				return err
			}

			if !ok {
				return apperr.ErrInvalidReference
			}
		}

		var existing models.UserGroup

		err := tx.Where("user_id = ? AND group_id = ?", userID, groupID).First(&existing).Error
		if err == nil {
			return apperr.ErrAlreadyExists
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		if err := tx.Create(&edge).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:       models.AuditActionCreate,
			InitiatorID:  ctx.UserID,
			TargetUserID: audit.Ref(userID),
			GroupID:      audit.Ref(groupID),
			Value:        edge,
		})
	})
	if err != nil {
		return nil, err
	}

	return &edge, nil
}

// RemoveUserGroup removes a user from a group. Removing a membership that
// does not exist fails with apperr.ErrNotFound, never silently succeeds.
func (s *Store) RemoveUserGroup(ctx *authz.Context, userID, groupID uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var edge models.UserGroup

		err := tx.Where("user_id = ? AND group_id = ?", userID, groupID).First(&edge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load membership: %w", err)
		}

		err = tx.Where("user_id = ? AND group_id = ?", userID, groupID).
			Delete(&models.UserGroup{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove membership: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:       models.AuditActionDelete,
			InitiatorID:  ctx.UserID,
			TargetUserID: audit.Ref(userID),
			GroupID:      audit.Ref(groupID),
		})
	})
}

// tableEdge covers the three table↔group grant kinds, which share shape and
// rules and differ only in the edge model they live in.
func (s *Store) addTableEdge(ctx *authz.Context, edge interface{}, tableID, groupID uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, ref := range []struct {
			model interface{}
			id    uint64
		}{
			{&models.Table{}, tableID},
			{&models.Group{}, groupID},
		} {
			ok, err := liveExists(tx, ref.model, ref.id)
			if err != nil {
				return err
			}

			if !ok {
				return apperr.ErrInvalidReference
			}
		}

		var count int64

		err := tx.Model(edge).
			Where("table_id = ? AND group_id = ?", tableID, groupID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check grant: %w", err)
		}

		if count > 0 {
			return apperr.ErrAlreadyExists
		}

		if err := tx.Create(edge).Error; err != nil {
			return fmt.Errorf("failed to create grant: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			TableID:     audit.Ref(tableID),
			GroupID:     audit.Ref(groupID),
			Value:       edge,
		})
	})
}

func (s *Store) removeTableEdge(ctx *authz.Context, model interface{}, tableID, groupID uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		err := tx.Model(model).
			Where("table_id = ? AND group_id = ?", tableID, groupID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to load grant: %w", err)
		}

		if count == 0 {
			return apperr.ErrNotFound
		}

		err = tx.Where("table_id = ? AND group_id = ?", tableID, groupID).Delete(model).Error
		if err != nil {
			return fmt.Errorf("failed to remove grant: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionDelete,
			InitiatorID: ctx.UserID,
			TableID:     audit.Ref(tableID),
			GroupID:     audit.Ref(groupID),
		})
	})
}

// AddTableGroup grants a group visibility of a table.
func (s *Store) AddTableGroup(ctx *authz.Context, tableID, groupID uint64) error {
	return s.addTableEdge(ctx, &models.TableGroup{TableID: tableID, GroupID: groupID}, tableID, groupID)
}

// RemoveTableGroup revokes a group's visibility of a table.
func (s *Store) RemoveTableGroup(ctx *authz.Context, tableID, groupID uint64) error {
	return s.removeTableEdge(ctx, &models.TableGroup{}, tableID, groupID)
}

// AddTableGroupCreate grants a group row-creation rights in a table.
func (s *Store) AddTableGroupCreate(ctx *authz.Context, tableID, groupID uint64) error {
	return s.addTableEdge(ctx, &models.TableGroupCreate{TableID: tableID, GroupID: groupID}, tableID, groupID)
}

// RemoveTableGroupCreate revokes a group's row-creation rights in a table.
func (s *Store) RemoveTableGroupCreate(ctx *authz.Context, tableID, groupID uint64) error {
	return s.removeTableEdge(ctx, &models.TableGroupCreate{}, tableID, groupID)
}

// AddTableGroupDelete grants a group row-deletion rights in a table.
func (s *Store) AddTableGroupDelete(ctx *authz.Context, tableID, groupID uint64) error {
	return s.addTableEdge(ctx, &models.TableGroupDelete{TableID: tableID, GroupID: groupID}, tableID, groupID)
}

// RemoveTableGroupDelete revokes a group's row-deletion rights in a table.
func (s *Store) RemoveTableGroupDelete(ctx *authz.Context, tableID, groupID uint64) error {
	return s.removeTableEdge(ctx, &models.TableGroupDelete{}, tableID, groupID)
}

// AddColumnGroup restricts a column to a group. The first edge on a column
// flips it from "visible with the table" to "visible to listed groups only".
func (s *Store) AddColumnGroup(ctx *authz.Context, columnID, groupID uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, ref := range []struct {
			model interface{}
			id    uint64
		}{
			{&models.Column{}, columnID},
			{&models.Group{}, groupID},
		} {
			ok, err := liveExists(tx, ref.model, ref.id)
			if err != nil {
				return err
			}

			if !ok {
				return apperr.ErrInvalidReference
			}
		}

		var count int64

		err := tx.Model(&models.ColumnGroup{}).
			Where("column_id = ? AND group_id = ?", columnID, groupID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check column grant: %w", err)
		}

		if count > 0 {
			return apperr.ErrAlreadyExists
		}

		edge := models.ColumnGroup{ColumnID: columnID, GroupID: groupID}

		if err := tx.Create(&edge).Error; err != nil {
			return fmt.Errorf("failed to create column grant: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			ColumnID:    audit.Ref(columnID),
			GroupID:     audit.Ref(groupID),
			Value:       edge,
		})
	})
}

// RemoveColumnGroup lifts a column restriction for a group.
func (s *Store) RemoveColumnGroup(ctx *authz.Context, columnID, groupID uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		err := tx.Model(&models.ColumnGroup{}).
			Where("column_id = ? AND group_id = ?", columnID, groupID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to load column grant: %w", err)
		}

		if count == 0 {
			return apperr.ErrNotFound
		}

		err = tx.Where("column_id = ? AND group_id = ?", columnID, groupID).
			Delete(&models.ColumnGroup{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove column grant: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionDelete,
			InitiatorID: ctx.UserID,
			ColumnID:    audit.Ref(columnID),
			GroupID:     audit.Ref(groupID),
		})
	})
}
