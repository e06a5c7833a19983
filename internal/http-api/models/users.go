package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Bio       string `gorm:"type:text" json:"bio"`
	Role      string `gorm:"default:'user';not null" json:"role"`
	// bcrypt hash of the pending confirmation code; empty means no code
	// is outstanding, so an exchange attempt can never match
	ConfirmationCodeHash string    `gorm:"column:confirmation_code_hash" json:"-"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

// Elevated reports whether the user bypasses ownership checks.
func (user *User) Elevated() bool {
	return user.Role == RoleModerator || user.Role == RoleAdmin
}

func (User) TableName() string {
	return "users"
}
