package model

import (
	"time"

	"gorm.io/gorm"
)

type Address struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Name          string         `gorm:"size:100;not null" json:"name"` // label such as "Home" or "Office"
	Recipient     string         `gorm:"size:100;not null" json:"recipient"`
	Phone         string         `gorm:"size:30;not null" json:"phone"`
	ZipCode       string         `gorm:"size:10" json:"zip_code"`
	Address       string         `gorm:"type:text;not null" json:"address"`
	DetailAddress string         `gorm:"type:text" json:"detail_address"`
	IsDefault     bool           `gorm:"default:false" json:"is_default"` // at most one per user
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}

// FullAddress joins the street and detail lines for use as a delivery
// location.
func (a *Address) FullAddress() string {
	if a.DetailAddress == "" {
		return a.Address
	}
	return a.Address + ", " + a.DetailAddress
}
