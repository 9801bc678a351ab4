// Package model defines the persistent records of the members portal.
package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the known role tags.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User is a member record. The unique index on Email is what closes the
// concurrent-signup race: a duplicate insert fails at the storage layer no
// matter how the existence check interleaves.
type User struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null;default:user"`
	CreatedAt    time.Time `json:"createdAt"`
}
