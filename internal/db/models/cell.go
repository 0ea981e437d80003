package models

import "time"

// Cell is the intersection of a row and a column. Its logical identity is the
// (RowID, ColumnID) pair, enforced unique so fan-out can never duplicate a
// cell. Exactly one value slot is meaningful, selected by the owning column's
// type; the others stay at their zero value.
type Cell struct {
	// ID is the unique identifier for the cell.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// TableID is the ID of the owning table (denormalized for access checks).
	TableID uint64 `gorm:"column:table_id;not null;index" json:"tableId"`
	// ColumnID is the ID of the owning column.
	ColumnID uint64 `gorm:"column:column_id;not null;uniqueIndex:idx_row_column" json:"columnId"`
	// RowID is the ID of the owning row.
	RowID uint64 `gorm:"column:row_id;not null;uniqueIndex:idx_row_column" json:"rowId"`

	// ValueInt holds the value for int columns.
	ValueInt *int64 `gorm:"column:value_int" json:"valueInt"`
	// ValueString holds the value for string columns.
	ValueString *string `gorm:"column:value_string;size:4000" json:"valueString"`
	// ValueDate holds the value for date columns.
	ValueDate *time.Time `gorm:"column:value_date" json:"valueDate"`
	// ValueBoolean holds the value for boolean columns.
	ValueBoolean *bool `gorm:"column:value_boolean" json:"valueBoolean"`
	// ValueDropdown holds the option index for dropdown columns.
	ValueDropdown *int `gorm:"column:value_dropdown" json:"valueDropdown"`

	// CreatedAt is the timestamp when the cell was created (managed by GORM).
	CreatedAt time.Time `json:"created"`
	// UpdatedAt is the timestamp when the cell was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated"`
}

// TableName specifies the database table name for the Cell model.
func (Cell) TableName() string {
	return "cells"
}
