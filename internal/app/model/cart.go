package model

import (
	"time"
)

// CartItem is one line of a user's cart. (user_id, item_type, item_id) is
// unique, so re-adding an item bumps Quantity instead of adding a row.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_item,priority:1" json:"user_id"`
	ItemType  ItemType  `gorm:"type:varchar(20);not null;uniqueIndex:idx_cart_user_item,priority:2" json:"item_type"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_item,priority:3" json:"item_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
