package model

import (
	"time"

	"gorm.io/gorm"
)

const DefaultAvatarURL = "https://res.cloudinary.com/demo/image/upload/v1633427556/default_avatar.png"

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	FullName     string         `gorm:"size:100;not null" json:"full_name"`
	Phone        string         `gorm:"size:20;uniqueIndex;not null" json:"phone"` // normalized, e.g. +919876543210
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Location     string         `gorm:"type:text" json:"location"`
	PasswordHash string         `gorm:"not null" json:"-"`
	ProfilePic   string         `gorm:"type:text" json:"profile_pic"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
