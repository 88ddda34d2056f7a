package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	DefaultProfileImageURL = "https://img.freepik.com/premium-vector/user-profile-icon-circle_1256048-12499.jpg"
)

type User struct {
	ID              uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name            string    `json:"name" gorm:"not null"`
	Email           string    `json:"email" gorm:"not null;uniqueIndex"`
	Password        string    `json:"-" gorm:"not null"`
	ProfileImageURL string    `json:"profileImageUrl"`
	Role            string    `json:"role" gorm:"not null;default:'user'"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
