package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string   // order lifecycle state
type PaymentStatus string // payment flag, no gateway behind it
type PaymentMode string   // how the customer intends to pay

const (
	OrderStatusPending    OrderStatus = "pending"    // placed, awaiting processing
	OrderStatusProcessing OrderStatus = "processing" // accepted by the kitchen or provider
	OrderStatusCompleted  OrderStatus = "completed"  // delivered or service rendered
	OrderStatusCancelled  OrderStatus = "cancelled"  // cancelled by the customer

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"

	PaymentModeCOD  PaymentMode = "COD"
	PaymentModeUPI  PaymentMode = "UPI"
	PaymentModeCard PaymentMode = "Card"
)

// Valid reports whether m is an accepted payment mode. Matching is exact.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCOD, PaymentModeUPI, PaymentModeCard:
		return true
	}
	return false
}

type Order struct {
	ID               uint            `gorm:"primarykey" json:"id"`                                      // order ID
	UserID           uint            `gorm:"not null;index" json:"user_id"`                             // customer
	TotalAmount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`           // fixed at checkout, never recomputed
	PaymentMode      PaymentMode     `gorm:"type:varchar(10);not null" json:"payment_mode"`             // COD, UPI or Card
	DeliveryLocation string          `gorm:"type:text;not null" json:"delivery_location"`               // free-text delivery address
	Status           OrderStatus     `gorm:"type:varchar(20);default:'pending';index" json:"status"`    // lifecycle state
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`  // payment flag
	ItemsSnapshot    string          `gorm:"type:text" json:"-"`                                        // encoded line items at checkout
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`                                   // order date
	UpdatedAt        time.Time       `json:"updated_at"`

	User       User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is the normalized line of an order. Name, photo and description
// are copied at checkout so later catalog edits do not alter history.
type OrderItem struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	OrderID         uint                `gorm:"not null;index" json:"order_id"`
	ItemType        ItemType            `gorm:"type:varchar(20);not null" json:"item_type"`
	ItemID          uint                `gorm:"not null" json:"item_id"`
	ItemName        string              `gorm:"size:200" json:"item_name"`
	ItemPhoto       string              `gorm:"type:text" json:"item_photo"`
	ItemDescription string              `gorm:"type:text" json:"item_description"`
	Quantity        int                 `gorm:"not null" json:"quantity"`
	Price           decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"price"`      // unit price at checkout
	LineTotal       decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"line_total"` // price x quantity, rounded
	CreatedAt       time.Time           `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
