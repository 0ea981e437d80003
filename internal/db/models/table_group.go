package models

import "time"

// The three table↔group edge kinds are independent grants: visibility does
// not imply row creation or deletion rights and vice versa. Each is a bare
// (tableId, groupId) pair with a composite primary key.

// TableGroup grants a group read visibility of a table, including its
// rows and (subject to ColumnGroup narrowing) its columns.
type TableGroup struct {
	// TableID is the ID of the table being granted.
	TableID uint64 `gorm:"primaryKey;column:table_id" json:"tableId"`
	// GroupID is the ID of the group receiving visibility.
	GroupID uint64 `gorm:"primaryKey;column:group_id" json:"groupId"`
	// Table is the associated table (loaded via foreign key).
	Table Table `gorm:"foreignKey:TableID" json:"-"`
	// Group is the associated group (loaded via foreign key).
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
	// CreatedAt is the timestamp when the grant was created.
	CreatedAt time.Time `json:"created"`
}

// TableName specifies the database table name for the TableGroup model.
func (TableGroup) TableName() string {
	return "table_groups"
}

// TableGroupCreate grants a group the right to create rows in a table.
type TableGroupCreate struct {
	// TableID is the ID of the table being granted.
	TableID uint64 `gorm:"primaryKey;column:table_id" json:"tableId"`
	// GroupID is the ID of the group receiving row-creation rights.
	GroupID uint64 `gorm:"primaryKey;column:group_id" json:"groupId"`
	// Table is the associated table (loaded via foreign key).
	Table Table `gorm:"foreignKey:TableID" json:"-"`
	// Group is the associated group (loaded via foreign key).
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
	// CreatedAt is the timestamp when the grant was created.
	CreatedAt time.Time `json:"created"`
}

// TableName specifies the database table name for the TableGroupCreate model.
func (TableGroupCreate) TableName() string {
	return "table_groups_create"
}

// TableGroupDelete grants a group the right to delete rows of a table.
type TableGroupDelete struct {
	// TableID is the ID of the table being granted.
	TableID uint64 `gorm:"primaryKey;column:table_id" json:"tableId"`
	// GroupID is the ID of the group receiving row-deletion rights.
	GroupID uint64 `gorm:"primaryKey;column:group_id" json:"groupId"`
	// Table is the associated table (loaded via foreign key).
	Table Table `gorm:"foreignKey:TableID" json:"-"`
	// Group is the associated group (loaded via foreign key).
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
	// CreatedAt is the timestamp when the grant was created.
	CreatedAt time.Time `json:"created"`
}

// TableName specifies the database table name for the TableGroupDelete model.
func (TableGroupDelete) TableName() string {
	return "table_groups_delete"
}
