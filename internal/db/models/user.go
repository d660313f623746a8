package models

import (
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleStaff   UserRole = "STAFF"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	Username     string   `gorm:"unique;not null"`
	PasswordHash string   `gorm:"not null"` // Bcrypt hash of password
	FullName     string   `gorm:"not null"`
	Role         UserRole `gorm:"not null;default:'STAFF'"`
	Department   string   `gorm:"not null"`
	Email        string
	IsActive     bool `gorm:"not null;default:true"`
}
