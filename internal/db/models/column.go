package models

import "time"

// ColumnType is the value type of a column. It determines which value slot
// of a Cell is meaningful.
type ColumnType string

const (
	// ColumnTypeInt stores integer values.
	ColumnTypeInt ColumnType = "int"
	// ColumnTypeString stores free-form text values.
	ColumnTypeString ColumnType = "string"
	// ColumnTypeDate stores date/time values.
	ColumnTypeDate ColumnType = "date"
	// ColumnTypeBoolean stores true/false values.
	ColumnTypeBoolean ColumnType = "boolean"
	// ColumnTypeDropdown stores an index into the column's dropdown option set.
	ColumnTypeDropdown ColumnType = "dropdown"
	// ColumnTypeAction marks the bootstrap action column every table starts with.
	ColumnTypeAction ColumnType = "action"
)

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnTypeInt, ColumnTypeString, ColumnTypeDate,
		ColumnTypeBoolean, ColumnTypeDropdown, ColumnTypeAction:
		return true
	}

	return false
}

// Column represents a column of a table. Columns move through a one-way
// lifecycle: live (Order non-nil, Deleted false) to retired (Order nil,
// Deleted true). Retired columns keep their historical cells but are
// excluded from every live projection and from row fan-out.
type Column struct {
	// ID is the unique identifier for the column.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// TableID is the ID of the owning table.
	TableID uint64 `gorm:"column:table_id;not null;index" json:"tableId"`
	// Table is the owning table (loaded via foreign key).
	Table Table `gorm:"foreignKey:TableID" json:"-"`
	// Name is the machine name of the column.
	Name string `gorm:"size:100;not null" json:"name"`
	// Title is a human-readable title of the column.
	Title string `gorm:"size:100" json:"title"`
	// Type is the value type of the column.
	Type ColumnType `gorm:"type:varchar(20);not null" json:"type"`
	// Dropdown holds the serialized option list. Only meaningful when
	// Type is ColumnTypeDropdown.
	Dropdown string `gorm:"size:1000" json:"dropdown"`
	// Order is the display position. Nil means the column is retired.
	Order *int `gorm:"column:display_order" json:"order"`
	// Deleted marks the column as retired.
	Deleted bool `gorm:"not null;default:false" json:"deleted"`
	// CreatedAt is the timestamp when the column was created (managed by GORM).
	CreatedAt time.Time `json:"created"`
	// UpdatedAt is the timestamp when the column was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated"`
}

// TableName specifies the database table name for the Column model.
func (Column) TableName() string {
	return "columns"
}
