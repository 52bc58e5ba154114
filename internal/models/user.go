package models

import (
	"time"
)

// User is the read-only view of a staff member needed by timecards.
// Staff records are managed by the staff directory service.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `gorm:"default:user" json:"role"`
	Locale    string    `gorm:"default:es" json:"locale"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleAdmin    = "admin"
	RoleApprover = "approver"
	RoleUser     = "user"
)

// Actor identifies who is invoking an operation. It is always passed explicitly.
type Actor struct {
	ID   uint
	Role string
}

// IsApprover returns true if the actor may approve, reject and correct timecards
func (a Actor) IsApprover() bool {
	return a.Role == RoleApprover || a.Role == RoleAdmin
}
