package models

import "time"

// UserGroup represents the many-to-many membership between users and groups.
// Memberships are the sole way a non-admin user acquires table or column
// access: all rights are granted to groups, never to users directly.
type UserGroup struct {
	// UserID is the ID of the user in this membership.
	UserID uint64 `gorm:"primaryKey;column:user_id" json:"userId"`
	// GroupID is the ID of the group in this membership.
	GroupID uint64 `gorm:"primaryKey;column:group_id" json:"groupId"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID" json:"-"`
	// Group is the associated group (loaded via foreign key).
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
	// CreatedAt is the timestamp when the user was added to the group.
	CreatedAt time.Time `json:"created"`
}

// TableName specifies the database table name for the UserGroup model.
func (UserGroup) TableName() string {
	return "user_groups"
}
