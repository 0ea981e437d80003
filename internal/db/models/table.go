package models

import "time"

// Table represents a user-defined data table. A table owns an ordered set of
// columns and an unordered set of rows; visibility and row create/delete
// rights are granted per group through the TableGroup* edge models.
type Table struct {
	// ID is the unique identifier for the table.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name is the machine name of the table.
	Name string `gorm:"size:100;not null" json:"name"`
	// Title is a human-readable title of the table.
	Title string `gorm:"size:100" json:"title"`
	// Deleted marks the table as soft deleted.
	Deleted bool `gorm:"not null;default:false" json:"deleted"`
	// CreatedAt is the timestamp when the table was created (managed by GORM).
	CreatedAt time.Time `json:"created"`
	// UpdatedAt is the timestamp when the table was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated"`
}

// TableName specifies the database table name for the Table model.
func (Table) TableName() string {
	return "tables"
}
