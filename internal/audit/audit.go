// Package audit records one immutable entry per state-changing operation.
// The recorder is consumed by every mutating service; writes join the
// caller's transaction so an audit entry never exists for a change that was
// rolled back.
package audit

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/db/models"
)

// Entry describes one state change to record. Target sets the id field
// matching the affected entity; Value is snapshotted as JSON.
type Entry struct {
	Action      models.AuditAction
	InitiatorID uint64

	TargetUserID *uint64
	GroupID      *uint64
	TableID      *uint64
	ColumnID     *uint64
	RowID        *uint64
	CellID       *uint64

	// Value is the entity after the change; marshaled into the snapshot
	// column. Nil for removals that leave nothing behind (edge deletes).
	Value any
}

// Recorder is the audit sink interface. tx is the transaction the change is
// part of; implementations must write within it.
type Recorder interface {
	Record(tx *gorm.DB, e Entry) error
}

// Store is the GORM-backed Recorder writing to the audit_log table.
type Store struct{}

// NewStore creates a GORM-backed audit recorder.
func NewStore() *Store {
	return &Store{}
}

// Record writes a single audit entry within tx.
func (s *Store) Record(tx *gorm.DB, e Entry) error {
	var snapshot []byte

	if e.Value != nil {
		var err error

		snapshot, err = json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("failed to snapshot audit value: %w", err)
		}
	}

	entry := models.AuditLog{
		Action:       e.Action,
		InitiatorID:  e.InitiatorID,
		TargetUserID: e.TargetUserID,
		GroupID:      e.GroupID,
		TableID:      e.TableID,
		ColumnID:     e.ColumnID,
		RowID:        e.RowID,
		CellID:       e.CellID,
		NewValue:     snapshot,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

// List returns the full audit trail, newest first.
func (s *Store) List(db *gorm.DB) ([]models.AuditLog, error) {
	var entries []models.AuditLog

	if err := db.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, nil
}

// Ref returns a pointer to id, for filling the optional target fields.
func Ref(id uint64) *uint64 {
	return &id
}
