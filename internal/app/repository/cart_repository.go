package repository

import (
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Upsert(cartItem *model.CartItem) error
	FindByUserID(userID uint) ([]model.CartItem, error)
	FindByID(id uint) (*model.CartItem, error)
	FindByUserAndItem(userID uint, itemType model.ItemType, itemID uint) (*model.CartItem, error)
	UpdateQuantity(id uint, quantity int) error
	Delete(id uint) error
	DeleteByUserID(userID uint) (int64, error)
	ConsumeLines(userID uint, lines []model.CartItem) error
	SumQuantity(userID uint) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

// Upsert inserts the line or, if the user already has this item, adds
// cartItem.Quantity to the stored quantity.
func (r *cartRepository) Upsert(cartItem *model.CartItem) error {
	fields := map[string]interface{}{
		"user_id":   cartItem.UserID,
		"item_type": cartItem.ItemType,
		"item_id":   cartItem.ItemID,
		"quantity":  cartItem.Quantity,
	}
	logger.Debug("Upserting cart item in database", fields)

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "item_type"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(cartItem).Error
	if err != nil {
		logger.Error("Failed to upsert cart item in database", err, fields)
		return err
	}

	logger.Debug("Cart item upserted in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"user_id":      cartItem.UserID,
	})
	return nil
}

func (r *cartRepository) FindByUserID(userID uint) ([]model.CartItem, error) {
	logger.Debug("Finding cart items by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cartItems []model.CartItem
	err := r.db.Where("user_id = ?", userID).
		Order("id ASC").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to find cart items by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart items found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(cartItems),
	})
	return cartItems, nil
}

func (r *cartRepository) FindByID(id uint) (*model.CartItem, error) {
	logger.Debug("Finding cart item by ID in database", map[string]interface{}{
		"cart_item_id": id,
	})

	var cartItem model.CartItem
	if err := r.db.First(&cartItem, id).Error; err != nil {
		logger.Error("Failed to find cart item by ID in database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return nil, err
	}

	return &cartItem, nil
}

func (r *cartRepository) FindByUserAndItem(userID uint, itemType model.ItemType, itemID uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	err := r.db.Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
		First(&cartItem).Error
	if err != nil {
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) UpdateQuantity(id uint, quantity int) error {
	logger.Debug("Updating cart item quantity in database", map[string]interface{}{
		"cart_item_id": id,
		"quantity":     quantity,
	})

	result := r.db.Model(&model.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if result.Error != nil {
		logger.Error("Failed to update cart item quantity in database", result.Error, map[string]interface{}{
			"cart_item_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepository) Delete(id uint) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteByUserID(userID uint) (int64, error) {
	logger.Debug("Deleting cart items by user ID from database", map[string]interface{}{
		"user_id": userID,
	})

	result := r.db.Where("user_id = ?", userID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart items by user ID from database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return 0, result.Error
	}

	logger.Debug("Cart items deleted by user ID from database", map[string]interface{}{
		"user_id": userID,
		"deleted": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// ConsumeLines takes the ordered quantity of each line out of the cart and
// deletes lines left at zero. Rows added or topped up after lines were read
// keep the difference.
func (r *cartRepository) ConsumeLines(userID uint, lines []model.CartItem) error {
	if len(lines) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		err := r.db.Model(&model.CartItem{}).
			Where("id = ? AND user_id = ?", line.ID, userID).
			Update("quantity", gorm.Expr("quantity - ?", line.Quantity)).Error
		if err != nil {
			logger.Error("Failed to consume cart line in database", err, map[string]interface{}{
				"user_id":      userID,
				"cart_item_id": line.ID,
			})
			return err
		}
		ids = append(ids, line.ID)
	}

	result := r.db.Where("user_id = ? AND id IN ? AND quantity <= 0", userID, ids).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete consumed cart lines from database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return result.Error
	}

	logger.Debug("Cart lines consumed in database", map[string]interface{}{
		"user_id": userID,
		"lines":   len(lines),
		"deleted": result.RowsAffected,
	})
	return nil
}

// SumQuantity returns the total number of units in the user's cart.
func (r *cartRepository) SumQuantity(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&model.CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		logger.Error("Failed to sum cart quantity in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}
	return total, nil
}
