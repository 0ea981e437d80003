package models

import "time"

// Group represents an authorization group. Groups carry no content of their
// own: they exist only as endpoints of membership and ACL edges (UserGroup,
// TableGroup, TableGroupCreate, TableGroupDelete, ColumnGroup).
type Group struct {
	// ID is the unique identifier for the group.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name is the unique name of the group.
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Title is a human-readable description of the group.
	Title string `gorm:"size:100" json:"title"`
	// Deleted marks the group as soft deleted.
	Deleted bool `gorm:"not null;default:false" json:"deleted"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time `json:"created"`
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated"`
}

// TableName specifies the database table name for the Group model.
func (Group) TableName() string {
	return "groups"
}
