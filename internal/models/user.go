package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func ValidRole(role string) bool {
	switch UserRole(role) {
	case UserRoleUser, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash []byte
	Role         UserRole
	TokenVersion int
	IsActive     bool
	AvatarURL    *string
	Bio          *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}
