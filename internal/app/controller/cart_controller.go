package controller

import (
	"errors"
	"net/http"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	apperrors "github.com/bitemebuddy/bitemebuddy-backend/internal/errors"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ItemType model.ItemType `json:"item_type" binding:"required"`
	ItemID   uint           `json:"item_id" binding:"required"`
	Quantity int            `json:"quantity"`
}

// UpdateCartRequest carries either an absolute quantity or an
// increase/decrease action.
type UpdateCartRequest struct {
	Quantity *int   `json:"quantity"`
	Action   string `json:"action"`
}

type CartLineResponse struct {
	CartItemID  uint           `json:"cart_item_id"`
	ItemType    model.ItemType `json:"item_type"`
	ItemID      uint           `json:"item_id"`
	Name        string         `json:"name"`
	Photo       string         `json:"photo"`
	Description string         `json:"description"`
	Quantity    int            `json:"quantity"`
	UnitPrice   float64        `json:"unit_price"`
	LineTotal   float64        `json:"line_total"`
	Available   bool           `json:"available"`
}

func respondCartError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found")
	case errors.Is(err, service.ErrInvalidItemType):
		apperrors.BadRequest(c, apperrors.CatalogInvalidItemType, "Item type must be service or menu")
	case errors.Is(err, service.ErrItemNotAvailable):
		apperrors.NotFound(c, apperrors.CatalogItemUnavailable, "Item is not available")
	case errors.Is(err, service.ErrInvalidCartAction):
		apperrors.BadRequest(c, apperrors.CartInvalidAction, "Action must be increase or decrease")
	default:
		return false
	}
	return true
}

func cartItemResponse(item *model.CartItem) gin.H {
	if item == nil {
		return gin.H{"removed": true}
	}
	return gin.H{
		"id":        item.ID,
		"item_type": item.ItemType,
		"item_id":   item.ItemID,
		"quantity":  item.Quantity,
		"removed":   false,
	}
}

// GetCart returns the priced cart of the current user
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to cart", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	summary, err := ctrl.cartService.GetCartSummary(c.Request.Context(), userID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch cart")
		return
	}

	lines := make([]CartLineResponse, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		lines = append(lines, CartLineResponse{
			CartItemID:  line.CartItemID,
			ItemType:    line.ItemType,
			ItemID:      line.ItemID,
			Name:        line.Name,
			Photo:       line.Photo,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   amount(line.UnitPrice),
			LineTotal:   amount(line.LineTotal),
			Available:   line.Available,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"cart_items": lines,
		"count":      len(lines),
		"total":      amount(summary.Total),
	})
}

// CountItems returns the number of units in the cart
// GET /api/v1/cart/count
func (ctrl *CartController) CountItems(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	count, err := ctrl.cartService.CountItems(c.Request.Context(), userID)
	if err != nil {
		log.Error("Failed to count cart items", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to count cart items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// AddToCart adds an item to the cart, bumping the quantity of an existing line
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to add to cart", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "item_type and item_id are required")
		return
	}
	if req.Quantity < 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be positive")
		return
	}

	item, err := ctrl.cartService.AddToCart(c.Request.Context(), userID, req.ItemType, req.ItemID, req.Quantity)
	if err != nil {
		if respondCartError(c, err) {
			return
		}
		log.Error("Failed to add item to cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Item added to cart",
		"cart_item": cartItemResponse(item),
	})
}

// UpdateCartItem sets the quantity of a line or applies an action
// PUT /api/v1/cart/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	cartItemID, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid cart item ID")
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Quantity == nil && req.Action == "") {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity or action is required")
		return
	}

	var (
		item *model.CartItem
		err  error
	)
	if req.Action != "" {
		item, err = ctrl.cartService.AdjustCartItem(c.Request.Context(), userID, cartItemID, req.Action)
	} else {
		item, err = ctrl.cartService.SetCartItemQuantity(c.Request.Context(), userID, cartItemID, *req.Quantity)
	}
	if err != nil {
		if respondCartError(c, err) {
			return
		}
		log.Error("Failed to update cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		apperrors.InternalError(c, "Failed to update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Cart updated",
		"cart_item": cartItemResponse(item),
	})
}

// RemoveFromCart deletes one line
// DELETE /api/v1/cart/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	cartItemID, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid cart item ID")
		return
	}

	if err := ctrl.cartService.RemoveFromCart(c.Request.Context(), userID, cartItemID); err != nil {
		if respondCartError(c, err) {
			return
		}
		log.Error("Failed to remove cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		apperrors.InternalError(c, "Failed to remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
	})
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}
