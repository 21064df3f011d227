package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	apperrors "github.com/bitemebuddy/bitemebuddy-backend/internal/errors"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderController struct {
	orderService   service.OrderService
	addressService service.AddressService
}

func NewOrderController(orderService service.OrderService, addressService service.AddressService) *OrderController {
	return &OrderController{
		orderService:   orderService,
		addressService: addressService,
	}
}

// CheckoutRequest takes the delivery location as free text or as a saved
// address. delivery_location wins when both are present.
type CheckoutRequest struct {
	PaymentMode      model.PaymentMode `json:"payment_mode"`
	DeliveryLocation string            `json:"delivery_location"`
	AddressID        *uint             `json:"address_id"`
}

type OrderLineResponse struct {
	ItemType    model.ItemType `json:"item_type,omitempty"`
	ItemID      uint           `json:"item_id,omitempty"`
	Name        string         `json:"name"`
	Photo       string         `json:"photo"`
	Description string         `json:"description"`
	Quantity    int            `json:"quantity"`
	UnitPrice   float64        `json:"unit_price"`
	LineTotal   float64        `json:"line_total"`
}

type OrderResponse struct {
	ID               uint                `json:"id"`
	TotalAmount      float64             `json:"total_amount"`
	PaymentMode      model.PaymentMode   `json:"payment_mode"`
	DeliveryLocation string              `json:"delivery_location"`
	Status           model.OrderStatus   `json:"status"`
	PaymentStatus    model.PaymentStatus `json:"payment_status"`
	CreatedAt        time.Time           `json:"created_at"`
	Items            []OrderLineResponse `json:"items"`
}

func orderResponse(view service.OrderView) OrderResponse {
	items := make([]OrderLineResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, OrderLineResponse{
			ItemType:    line.ItemType,
			ItemID:      line.ItemID,
			Name:        line.Name,
			Photo:       line.Photo,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   amount(line.UnitPrice),
			LineTotal:   amount(line.LineTotal),
		})
	}
	return OrderResponse{
		ID:               view.ID,
		TotalAmount:      amount(view.TotalAmount),
		PaymentMode:      view.PaymentMode,
		DeliveryLocation: view.DeliveryLocation,
		Status:           view.Status,
		PaymentStatus:    view.PaymentStatus,
		CreatedAt:        view.CreatedAt,
		Items:            items,
	}
}

func respondOrderError(c *gin.Context, err error) bool {
	var notCancellable *service.NotCancellableError
	switch {
	case errors.Is(err, service.ErrInvalidPaymentMode):
		apperrors.BadRequest(c, apperrors.OrderInvalidPaymentMode, "Payment mode must be COD, UPI or Card")
	case errors.Is(err, service.ErrInvalidDeliveryLocation):
		apperrors.BadRequest(c, apperrors.OrderInvalidDeliveryLocation, "Delivery location is required")
	case errors.Is(err, service.ErrEmptyCart):
		apperrors.BadRequest(c, apperrors.OrderEmptyCart, "Your cart is empty")
	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
	case errors.As(err, &notCancellable):
		apperrors.Conflict(c, apperrors.OrderNotCancellable,
			fmt.Sprintf("Only pending orders can be cancelled, this order is %s", notCancellable.Status))
	case errors.Is(err, service.ErrPersistenceFailure):
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalDatabaseError, "Failed to place order")
	default:
		return false
	}
	return true
}

// Checkout turns the cart into an order
// POST /api/v1/orders/checkout
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized checkout attempt", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid checkout request")
		return
	}

	// the payment mode is checked before any address lookup
	location := req.DeliveryLocation
	if location == "" && req.AddressID != nil && req.PaymentMode.Valid() && ctrl.addressService != nil {
		address, err := ctrl.addressService.GetAddress(userID, *req.AddressID)
		if err != nil {
			if errors.Is(err, service.ErrAddressNotFound) {
				apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
				return
			}
			log.Error("Failed to load checkout address", err, map[string]interface{}{
				"user_id":    userID,
				"address_id": *req.AddressID,
			})
			apperrors.InternalError(c, "Failed to load address")
			return
		}
		location = address.FullAddress()
	}

	order, err := ctrl.orderService.Checkout(c.Request.Context(), userID, req.PaymentMode, location)
	if err != nil {
		if respondOrderError(c, err) {
			log.Warn("Checkout rejected", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			return
		}
		log.Error("Checkout failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to place order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Order placed successfully",
		"order_id":     order.ID,
		"total_amount": amount(order.TotalAmount),
		"status":       order.Status,
	})
}

// GetOrders returns the order history of the current user, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to orders", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	views, err := ctrl.orderService.ListOrders(c.Request.Context(), userID)
	if err != nil {
		log.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch orders")
		return
	}

	orders := make([]OrderResponse, 0, len(views))
	for _, view := range views {
		orders = append(orders, orderResponse(view))
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns one order
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	view, err := ctrl.orderService.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		if respondOrderError(c, err) {
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		apperrors.InternalError(c, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": orderResponse(*view),
	})
}

// CancelOrder cancels a pending order
// POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	if err := ctrl.orderService.CancelOrder(c.Request.Context(), userID, orderID); err != nil {
		if respondOrderError(c, err) {
			return
		}
		log.Error("Failed to cancel order", err, map[string]interface{}{
			"order_id": orderID,
		})
		apperrors.InternalError(c, "Failed to cancel order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Order cancelled",
		"order_id": orderID,
		"status":   model.OrderStatusCancelled,
	})
}

// ExportOrders streams the order history as an XLSX download
// GET /api/v1/orders/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	file, err := ctrl.orderService.ExportOrders(c.Request.Context(), userID)
	if err != nil {
		log.Error("Failed to export orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to export orders")
		return
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		log.Error("Failed to render order export", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to export orders")
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
