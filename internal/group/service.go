// Package group implements group management. Groups are pure authorization
// entities; their content is the set of edges pointing at them.
package group

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/apperr"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/db/models"
)

// Listed is the client-facing group shape: live members, live visible
// tables and live restricted columns embedded.
type Listed struct {
	models.Group

	Users   []models.User   `json:"users"`
	Tables  []models.Table  `json:"tables"`
	Columns []models.Column `json:"columns"`
}

// Service manages groups.
type Service struct {
	db       *gorm.DB
	recorder audit.Recorder
}

// NewService creates the group service.
func NewService(db *gorm.DB, recorder audit.Recorder) *Service {
	return &Service{db: db, recorder: recorder}
}

// List returns all live groups with their live member users, visible tables
// and restricted columns. Soft-deleted endpoints are filtered out.
func (s *Service) List() ([]Listed, error) {
	var groups []models.Group

	if err := s.db.Where("deleted = ?", false).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	listed := make([]Listed, 0, len(groups))

	for i := range groups {
		entry := Listed{Group: groups[i]}

		err := s.db.Table("users").
			Joins("JOIN user_groups ON user_groups.user_id = users.id").
			Where("user_groups.group_id = ? AND users.deleted = ?", groups[i].ID, false).
			Find(&entry.Users).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load group members: %w", err)
		}

		err = s.db.Table("tables").
			Joins("JOIN table_groups ON table_groups.table_id = tables.id").
			Where("table_groups.group_id = ? AND tables.deleted = ?", groups[i].ID, false).
			Find(&entry.Tables).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load group tables: %w", err)
		}

		err = s.db.Table("columns").
			Joins("JOIN column_groups ON column_groups.column_id = columns.id").
			Where("column_groups.group_id = ? AND columns.deleted = ?", groups[i].ID, false).
			Find(&entry.Columns).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load group columns: %w", err)
		}

		listed = append(listed, entry)
	}

	return listed, nil
}

// Create inserts a new group.
func (s *Service) Create(ctx *authz.Context, name, title string) (*models.Group, error) {
	if name == "" {
		return nil, apperr.ErrValidation
	}

	g := models.Group{Name: name, Title: title}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Group

		err := tx.Where("name = ?", name).First(&existing).Error
		if err == nil {
			return apperr.ErrAlreadyExists
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check group name: %w", err)
		}

		if err := tx.Create(&g).Error; err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionCreate,
			InitiatorID: ctx.UserID,
			GroupID:     audit.Ref(g.ID),
			Value:       g,
		})
	})
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// Edit updates a live group's name and title.
func (s *Service) Edit(ctx *authz.Context, groupID uint64, name, title string) (*models.Group, error) {
	var g models.Group

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", groupID, false).First(&g).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load group %d: %w", groupID, err)
		}

		if name != "" {
			g.Name = name
		}
		if title != "" {
			g.Title = title
		}

		if err := tx.Save(&g).Error; err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionUpdate,
			InitiatorID: ctx.UserID,
			GroupID:     audit.Ref(g.ID),
			Value:       g,
		})
	})
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// Remove soft-deletes a group. Its edges are retained but stop granting
// anything because principal resolution only collects live groups.
func (s *Service) Remove(ctx *authz.Context, groupID uint64) (*models.Group, error) {
	var g models.Group

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND deleted = ?", groupID, false).First(&g).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load group %d: %w", groupID, err)
		}

		g.Deleted = true

		if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Update("deleted", true).Error; err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}

		return s.recorder.Record(tx, audit.Entry{
			Action:      models.AuditActionDelete,
			InitiatorID: ctx.UserID,
			GroupID:     audit.Ref(g.ID),
			Value:       g,
		})
	})
	if err != nil {
		return nil, err
	}

	return &g, nil
}
