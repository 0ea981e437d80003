package models

import "time"

// AuditAction is the kind of state change recorded in an audit entry.
type AuditAction string

const (
	// AuditActionCreate records entity creation.
	AuditActionCreate AuditAction = "create"
	// AuditActionUpdate records entity mutation.
	AuditActionUpdate AuditAction = "update"
	// AuditActionDelete records entity soft deletion or edge removal.
	AuditActionDelete AuditAction = "delete"
)

// AuditLog is one immutable record of a state-changing operation. Every
// mutation emits exactly one entry; batched fan-outs emit one entry per cell,
// never one entry for the batch.
type AuditLog struct {
	// ID is the unique identifier for the audit entry.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Action is the kind of change (create, update, delete).
	Action AuditAction `gorm:"type:varchar(20);not null" json:"action"`
	// InitiatorID is the ID of the user who performed the change.
	InitiatorID uint64 `gorm:"column:initiator_id;not null;index" json:"initiatorId"`

	// Target ids; all optional, set depending on the affected entity.

	// TargetUserID is set when the change affected a user account.
	TargetUserID *uint64 `gorm:"column:target_user_id" json:"targetUserId,omitempty"`
	// GroupID is set when the change affected a group or an edge touching one.
	GroupID *uint64 `gorm:"column:group_id" json:"groupId,omitempty"`
	// TableID is set when the change affected a table or an edge touching one.
	TableID *uint64 `gorm:"column:table_id" json:"tableId,omitempty"`
	// ColumnID is set when the change affected a column.
	ColumnID *uint64 `gorm:"column:column_id" json:"columnId,omitempty"`
	// RowID is set when the change affected a row.
	RowID *uint64 `gorm:"column:row_id" json:"rowId,omitempty"`
	// CellID is set when the change affected a cell.
	CellID *uint64 `gorm:"column:cell_id" json:"cellId,omitempty"`

	// NewValue is a JSON snapshot of the entity after the change.
	NewValue []byte `gorm:"column:new_value" json:"newValue,omitempty"`
	// CreatedAt is the timestamp when the entry was recorded.
	CreatedAt time.Time `json:"created"`
}

// TableName specifies the database table name for the AuditLog model.
func (AuditLog) TableName() string {
	return "audit_log"
}
