package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ItemType string      // catalog variant
type CatalogStatus string // listing state owned by the admin process

const (
	ItemTypeService ItemType = "service"
	ItemTypeMenu    ItemType = "menu"

	CatalogStatusActive   CatalogStatus = "active"
	CatalogStatusInactive CatalogStatus = "inactive"
)

// Valid reports whether t names a known catalog variant.
func (t ItemType) Valid() bool {
	return t == ItemTypeService || t == ItemTypeMenu
}

// Table returns the catalog table holding items of this type.
func (t ItemType) Table() string {
	if t == ItemTypeMenu {
		return MenuItem{}.TableName()
	}
	return Service{}.TableName()
}

// CatalogFields are shared by services and menu items.
type CatalogFields struct {
	Name        string              `gorm:"size:200;not null;index" json:"name"`                      // display name
	Price       decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"price"`                          // base price
	Discount    decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"discount"`                       // discount amount
	FinalPrice  decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"final_price"`                    // authoritative selling price
	Description string              `gorm:"type:text" json:"description"`                             // long description
	Status      CatalogStatus       `gorm:"type:varchar(20);default:'active';index" json:"status"`   // active or inactive
	Photo       string              `gorm:"type:text" json:"photo"`                                   // absolute URL or image host key
	Position    int                 `gorm:"default:0" json:"position"`                                // display ordering
	RawPayload  datatypes.JSON      `json:"-"`                                                        // last record received from the admin export
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type Service struct {
	ID uint `gorm:"primarykey" json:"id"`
	CatalogFields
}

func (Service) TableName() string {
	return "services"
}

type MenuItem struct {
	ID uint `gorm:"primarykey" json:"id"`
	CatalogFields
}

func (MenuItem) TableName() string {
	return "menu"
}

// CatalogItem is the type-agnostic read model used by the cart and order
// paths. Load it with db.Table(itemType.Table()).
type CatalogItem struct {
	ID   uint     `gorm:"primarykey" json:"id"`
	Type ItemType `gorm:"-" json:"type"`
	CatalogFields
}

// IsActive reports whether the item may be added to a cart.
func (c *CatalogItem) IsActive() bool {
	return c.Status == CatalogStatusActive
}
