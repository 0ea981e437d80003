package models

import "time"

// ColumnGroup narrows table visibility at column granularity. A column with
// no ColumnGroup edges is visible to everyone who can see the table; once at
// least one edge exists, only members of the listed groups can see it.
type ColumnGroup struct {
	// ColumnID is the ID of the column being restricted.
	ColumnID uint64 `gorm:"primaryKey;column:column_id" json:"columnId"`
	// GroupID is the ID of the group retaining visibility.
	GroupID uint64 `gorm:"primaryKey;column:group_id" json:"groupId"`
	// Column is the associated column (loaded via foreign key).
	Column Column `gorm:"foreignKey:ColumnID" json:"-"`
	// Group is the associated group (loaded via foreign key).
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
	// CreatedAt is the timestamp when the restriction was created.
	CreatedAt time.Time `json:"created"`
}

// TableName specifies the database table name for the ColumnGroup model.
func (ColumnGroup) TableName() string {
	return "column_groups"
}
