package service

import (
	"context"
	"errors"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidItemType   = errors.New("invalid item type")
	ErrItemNotAvailable  = errors.New("item not available")
	ErrInvalidCartAction = errors.New("invalid cart action")
)

const (
	CartActionIncrease = "increase"
	CartActionDecrease = "decrease"

	unavailableItemName = "Item unavailable"
)

// CartLine is a cart row priced against the catalog.
type CartLine struct {
	CartItemID  uint            `json:"cart_item_id"`
	ItemType    model.ItemType  `json:"item_type"`
	ItemID      uint            `json:"item_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Name        string          `json:"name"`
	Photo       string          `json:"photo"`
	Description string          `json:"description"`
	Available   bool            `json:"available"`
}

type CartSummary struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type CartService interface {
	GetCartSummary(ctx context.Context, userID uint) (*CartSummary, error)
	AddToCart(ctx context.Context, userID uint, itemType model.ItemType, itemID uint, quantity int) (*model.CartItem, error)
	AdjustCartItem(ctx context.Context, userID, cartItemID uint, action string) (*model.CartItem, error)
	SetCartItemQuantity(ctx context.Context, userID, cartItemID uint, quantity int) (*model.CartItem, error)
	RemoveFromCart(ctx context.Context, userID, cartItemID uint) error
	ClearCart(ctx context.Context, userID uint) error
	CountItems(ctx context.Context, userID uint) (int64, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	photos      *PhotoResolver
}

func NewCartService(
	cartRepo repository.CartRepository,
	catalogRepo repository.CatalogRepository,
	photos *PhotoResolver,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		photos:      photos,
	}
}

type lineKey struct {
	itemType model.ItemType
	itemID   uint
}

// priceCart joins cart rows with the catalog. A row whose item no longer
// exists is priced at zero. Photos are left for the caller to fill.
func priceCart(cartItems []model.CartItem, catalogRepo repository.CatalogRepository) ([]CartLine, map[lineKey]model.CatalogItem, decimal.Decimal, error) {
	idsByType := make(map[model.ItemType][]uint)
	for _, ci := range cartItems {
		idsByType[ci.ItemType] = append(idsByType[ci.ItemType], ci.ItemID)
	}

	catalog := make(map[lineKey]model.CatalogItem, len(cartItems))
	for itemType, ids := range idsByType {
		if !itemType.Valid() {
			continue
		}
		items, err := catalogRepo.FindByIDs(itemType, ids)
		if err != nil {
			return nil, nil, decimal.Zero, err
		}
		for _, item := range items {
			catalog[lineKey{itemType, item.ID}] = item
		}
	}

	lines := make([]CartLine, 0, len(cartItems))
	total := decimal.Zero
	for _, ci := range cartItems {
		line := CartLine{
			CartItemID: ci.ID,
			ItemType:   ci.ItemType,
			ItemID:     ci.ItemID,
			Quantity:   ci.Quantity,
			UnitPrice:  decimal.Zero,
			Name:       unavailableItemName,
		}

		if item, ok := catalog[lineKey{ci.ItemType, ci.ItemID}]; ok {
			line.UnitPrice = util.MoneyFirst(item.FinalPrice, item.Price)
			line.Name = item.Name
			line.Description = item.Description
			line.Available = item.IsActive()
		} else {
			logger.Warn("Cart line references missing catalog item, pricing at zero", map[string]interface{}{
				"cart_item_id": ci.ID,
				"user_id":      ci.UserID,
				"item_type":    ci.ItemType,
				"item_id":      ci.ItemID,
			})
		}

		line.LineTotal = util.LineTotal(line.UnitPrice, line.Quantity)
		total = total.Add(line.LineTotal)
		lines = append(lines, line)
	}

	return lines, catalog, total, nil
}

// resolveLinePhotos fills every line's photo, one folder listing per type.
func resolveLinePhotos(ctx context.Context, photos *PhotoResolver, lines []CartLine, catalog map[lineKey]model.CatalogItem) {
	byType := make(map[model.ItemType][]model.CatalogItem)
	for _, item := range catalog {
		byType[item.Type] = append(byType[item.Type], item)
	}

	resolved := make(map[lineKey]string, len(catalog))
	for itemType, items := range byType {
		for id, url := range photos.ResolveMany(ctx, itemType, items) {
			resolved[lineKey{itemType, id}] = url
		}
	}

	for i := range lines {
		if url, ok := resolved[lineKey{lines[i].ItemType, lines[i].ItemID}]; ok {
			lines[i].Photo = url
			continue
		}
		lines[i].Photo = Placeholder(lines[i].ItemType)
	}
}

func (s *cartService) GetCartSummary(ctx context.Context, userID uint) (*CartSummary, error) {
	logger.Debug("Aggregating user cart", map[string]interface{}{
		"user_id": userID,
	})

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	lines, catalog, total, err := priceCart(cartItems, s.catalogRepo)
	if err != nil {
		logger.Error("Failed to price user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	resolveLinePhotos(ctx, s.photos, lines, catalog)

	logger.Info("User cart aggregated", map[string]interface{}{
		"user_id": userID,
		"lines":   len(lines),
		"total":   total.StringFixed(util.MoneyPlaces),
	})
	return &CartSummary{Lines: lines, Total: total}, nil
}

func (s *cartService) AddToCart(ctx context.Context, userID uint, itemType model.ItemType, itemID uint, quantity int) (*model.CartItem, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":   userID,
		"item_type": itemType,
		"item_id":   itemID,
		"quantity":  quantity,
	})

	if !itemType.Valid() {
		logger.Warn("Cannot add to cart: invalid item type", map[string]interface{}{
			"user_id":   userID,
			"item_type": itemType,
		})
		return nil, ErrInvalidItemType
	}
	if quantity <= 0 {
		quantity = 1
	}

	item, err := s.catalogRepo.FindByID(itemType, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: item not found", map[string]interface{}{
				"user_id":   userID,
				"item_type": itemType,
				"item_id":   itemID,
			})
			return nil, ErrItemNotAvailable
		}
		logger.Error("Failed to fetch catalog item", err, map[string]interface{}{
			"item_type": itemType,
			"item_id":   itemID,
		})
		return nil, err
	}
	if !item.IsActive() {
		logger.Warn("Cannot add to cart: item inactive", map[string]interface{}{
			"user_id":   userID,
			"item_type": itemType,
			"item_id":   itemID,
		})
		return nil, ErrItemNotAvailable
	}

	if err := s.cartRepo.Upsert(&model.CartItem{
		UserID:   userID,
		ItemType: itemType,
		ItemID:   itemID,
		Quantity: quantity,
	}); err != nil {
		logger.Error("Failed to add item to cart", err, map[string]interface{}{
			"user_id":   userID,
			"item_type": itemType,
			"item_id":   itemID,
		})
		return nil, err
	}

	cartItem, err := s.cartRepo.FindByUserAndItem(userID, itemType, itemID)
	if err != nil {
		logger.Error("Failed to reload cart item after add", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItem.ID,
		"quantity":     cartItem.Quantity,
	})
	return cartItem, nil
}

// findOwned loads a cart line that belongs to userID.
func (s *cartService) findOwned(userID, cartItemID uint) (*model.CartItem, error) {
	cartItem, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if cartItem.UserID != userID {
		logger.Warn("Cart item belongs to another user", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return nil, ErrCartItemNotFound
	}
	return cartItem, nil
}

// applyQuantity stores quantity on the line, deleting it when quantity is
// not positive. It returns nil when the line was deleted.
func (s *cartService) applyQuantity(cartItem *model.CartItem, quantity int) (*model.CartItem, error) {
	if quantity <= 0 {
		if err := s.cartRepo.Delete(cartItem.ID); err != nil {
			return nil, err
		}
		logger.Info("Cart item removed after quantity dropped to zero", map[string]interface{}{
			"user_id":      cartItem.UserID,
			"cart_item_id": cartItem.ID,
		})
		return nil, nil
	}

	if err := s.cartRepo.UpdateQuantity(cartItem.ID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	cartItem.Quantity = quantity

	logger.Info("Cart item quantity updated", map[string]interface{}{
		"user_id":      cartItem.UserID,
		"cart_item_id": cartItem.ID,
		"quantity":     quantity,
	})
	return cartItem, nil
}

func (s *cartService) AdjustCartItem(ctx context.Context, userID, cartItemID uint, action string) (*model.CartItem, error) {
	var delta int
	switch action {
	case CartActionIncrease:
		delta = 1
	case CartActionDecrease:
		delta = -1
	default:
		logger.Warn("Invalid cart action", map[string]interface{}{
			"user_id": userID,
			"action":  action,
		})
		return nil, ErrInvalidCartAction
	}

	cartItem, err := s.findOwned(userID, cartItemID)
	if err != nil {
		return nil, err
	}
	return s.applyQuantity(cartItem, cartItem.Quantity+delta)
}

func (s *cartService) SetCartItemQuantity(ctx context.Context, userID, cartItemID uint, quantity int) (*model.CartItem, error) {
	cartItem, err := s.findOwned(userID, cartItemID)
	if err != nil {
		return nil, err
	}
	return s.applyQuantity(cartItem, quantity)
}

func (s *cartService) RemoveFromCart(ctx context.Context, userID, cartItemID uint) error {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})

	if _, err := s.findOwned(userID, cartItemID); err != nil {
		return err
	}
	if err := s.cartRepo.Delete(cartItemID); err != nil {
		logger.Error("Failed to remove item from cart", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return err
	}
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, userID uint) error {
	deleted, err := s.cartRepo.DeleteByUserID(userID)
	if err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
		"deleted": deleted,
	})
	return nil
}

func (s *cartService) CountItems(ctx context.Context, userID uint) (int64, error) {
	return s.cartRepo.SumQuantity(userID)
}
