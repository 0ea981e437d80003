package models

import "time"

// Row represents a row of a table. Every live row holds exactly one cell per
// live column of its table; the schema coordinator maintains that invariant.
type Row struct {
	// ID is the unique identifier for the row.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// TableID is the ID of the owning table.
	TableID uint64 `gorm:"column:table_id;not null;index" json:"tableId"`
	// Table is the owning table (loaded via foreign key).
	Table Table `gorm:"foreignKey:TableID" json:"-"`
	// Deleted marks the row as soft deleted. Cells are retained.
	Deleted bool `gorm:"not null;default:false" json:"deleted"`
	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time `json:"created"`
	// UpdatedAt is the timestamp when the row was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated"`

	// Cells are the cells of this row, populated on listing.
	Cells []Cell `gorm:"foreignKey:RowID" json:"cells,omitempty"`
}

// TableName specifies the database table name for the Row model.
func (Row) TableName() string {
	return "rows"
}
