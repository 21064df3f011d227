package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrInvalidPaymentMode      = errors.New("invalid payment mode")
	ErrInvalidDeliveryLocation = errors.New("delivery location is required")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrPersistenceFailure      = errors.New("failed to persist order")
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderNotCancellable     = errors.New("order cannot be cancelled")
)

const (
	OrderEventPlaced    = "order.placed"
	OrderEventCancelled = "order.cancelled"

	itemsUnavailableName = "Items unavailable"
)

// Where an order view's lines came from.
const (
	LineSourceSnapshot    = "snapshot"
	LineSourceItems       = "items"
	LineSourcePlaceholder = "placeholder"
)

// NotCancellableError carries the status that blocked a cancellation.
type NotCancellableError struct {
	Status model.OrderStatus
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("order cannot be cancelled in status %q", e.Status)
}

func (e *NotCancellableError) Unwrap() error {
	return ErrOrderNotCancellable
}

// OrderNotifier receives order lifecycle events after they commit.
type OrderNotifier interface {
	NotifyOrder(userID uint, eventType string, payload interface{})
}

// OrderView is an order with its line items reconstructed for display.
type OrderView struct {
	ID               uint                `json:"id"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	PaymentMode      model.PaymentMode   `json:"payment_mode"`
	DeliveryLocation string              `json:"delivery_location"`
	Status           model.OrderStatus   `json:"status"`
	PaymentStatus    model.PaymentStatus `json:"payment_status"`
	CreatedAt        time.Time           `json:"created_at"`
	Lines            []SnapshotLine      `json:"lines"`
	LineSource       string              `json:"line_source"`
}

type OrderService interface {
	Checkout(ctx context.Context, userID uint, paymentMode model.PaymentMode, deliveryLocation string) (*model.Order, error)
	ListOrders(ctx context.Context, userID uint) ([]OrderView, error)
	GetOrder(ctx context.Context, userID, orderID uint) (*OrderView, error)
	CancelOrder(ctx context.Context, userID, orderID uint) error
	ExportOrders(ctx context.Context, userID uint) (*excelize.File, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
	photos      *PhotoResolver
	notifier    OrderNotifier
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	catalogRepo repository.CatalogRepository,
	photos *PhotoResolver,
	notifier OrderNotifier,
) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		catalogRepo: catalogRepo,
		photos:      photos,
		notifier:    notifier,
	}
}

// prefetchPhotos resolves cart photos before the transaction opens so no
// image host call runs while rows are locked. Failures yield an empty map.
func (s *orderService) prefetchPhotos(ctx context.Context, userID uint) map[lineKey]string {
	photos := make(map[lineKey]string)

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil || len(cartItems) == 0 {
		return photos
	}
	lines, catalog, _, err := priceCart(cartItems, s.catalogRepo)
	if err != nil {
		logger.Warn("Photo prefetch skipped", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return photos
	}
	resolveLinePhotos(ctx, s.photos, lines, catalog)
	for _, line := range lines {
		photos[lineKey{line.ItemType, line.ItemID}] = line.Photo
	}
	return photos
}

func (s *orderService) Checkout(ctx context.Context, userID uint, paymentMode model.PaymentMode, deliveryLocation string) (*model.Order, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"user_id":      userID,
		"payment_mode": paymentMode,
	})

	if !paymentMode.Valid() {
		logger.Warn("Checkout rejected: invalid payment mode", map[string]interface{}{
			"user_id":      userID,
			"payment_mode": paymentMode,
		})
		return nil, ErrInvalidPaymentMode
	}
	location := strings.TrimSpace(deliveryLocation)
	if location == "" {
		logger.Warn("Checkout rejected: empty delivery location", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrInvalidDeliveryLocation
	}

	photos := s.prefetchPhotos(ctx, userID)

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin checkout transaction", tx.Error, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during checkout, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
			panic(r)
		}
	}()

	fail := func(msg string, cause error) (*model.Order, error) {
		tx.Rollback()
		logger.Error(msg, cause, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, cause)
	}

	if _, err := s.userRepo.WithTx(tx).LockByID(userID); err != nil {
		return fail("Failed to lock user for checkout", err)
	}

	cartRepo := s.cartRepo.WithTx(tx)
	cartItems, err := cartRepo.FindByUserID(userID)
	if err != nil {
		return fail("Failed to load cart for checkout", err)
	}
	if len(cartItems) == 0 {
		tx.Rollback()
		logger.Warn("Checkout rejected: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	lines, catalog, total, err := priceCart(cartItems, s.catalogRepo.WithTx(tx))
	if err != nil {
		return fail("Failed to price cart for checkout", err)
	}

	orderItems := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		key := lineKey{line.ItemType, line.ItemID}
		photo, ok := photos[key]
		if !ok {
			item := catalog[key]
			photo = s.photos.Resolve(ctx, line.ItemType, "", item.Photo)
		}
		orderItems = append(orderItems, model.OrderItem{
			ItemType:        line.ItemType,
			ItemID:          line.ItemID,
			ItemName:        line.Name,
			ItemPhoto:       photo,
			ItemDescription: line.Description,
			Quantity:        line.Quantity,
			Price:           util.NullMoney(line.UnitPrice),
			LineTotal:       util.NullMoney(line.LineTotal),
		})
	}

	order := &model.Order{
		UserID:           userID,
		TotalAmount:      total,
		PaymentMode:      paymentMode,
		DeliveryLocation: location,
		Status:           model.OrderStatusPending,
		PaymentStatus:    model.PaymentStatusPending,
		OrderItems:       orderItems,
	}

	orderRepo := s.orderRepo.WithTx(tx)
	if err := orderRepo.Create(order); err != nil {
		return fail("Failed to create order", err)
	}

	snapshot, err := EncodeOrderSnapshot(order.OrderItems)
	if err != nil {
		return fail("Failed to encode order snapshot", err)
	}
	if err := orderRepo.UpdateSnapshot(order.ID, snapshot); err != nil {
		return fail("Failed to store order snapshot", err)
	}
	order.ItemsSnapshot = snapshot

	if err := cartRepo.ConsumeLines(userID, cartItems); err != nil {
		return fail("Failed to clear cart after order creation", err)
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit checkout transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    total.StringFixed(util.MoneyPlaces),
		"lines":    len(order.OrderItems),
	})

	if s.notifier != nil {
		s.notifier.NotifyOrder(userID, OrderEventPlaced, map[string]interface{}{
			"order_id":     order.ID,
			"total_amount": total.StringFixed(util.MoneyPlaces),
			"status":       order.Status,
		})
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uint) ([]OrderView, error) {
	logger.Debug("Listing user orders", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to list user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, s.buildView(ctx, &orders[i]))
	}

	logger.Info("User orders listed", map[string]interface{}{
		"user_id": userID,
		"count":   len(views),
	})
	return views, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uint) (*OrderView, error) {
	order, err := s.findOwned(userID, orderID)
	if err != nil {
		return nil, err
	}
	view := s.buildView(ctx, order)
	return &view, nil
}

func (s *orderService) findOwned(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		logger.Warn("Order belongs to another user", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// buildView reconstructs the order's lines: the snapshot first, then the
// normalized rows, then a single placeholder priced at the stored total.
func (s *orderService) buildView(ctx context.Context, order *model.Order) OrderView {
	view := OrderView{
		ID:               order.ID,
		TotalAmount:      order.TotalAmount.Round(util.MoneyPlaces),
		PaymentMode:      order.PaymentMode,
		DeliveryLocation: order.DeliveryLocation,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		CreatedAt:        order.CreatedAt,
	}

	lines, err := DecodeOrderSnapshot(order.ItemsSnapshot)
	if err != nil {
		logger.Warn("Order snapshot unreadable, falling back to order items", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
	if err == nil && len(lines) > 0 {
		view.Lines = lines
		view.LineSource = LineSourceSnapshot
		return view
	}

	if lines := s.linesFromItems(ctx, order); len(lines) > 0 {
		view.Lines = lines
		view.LineSource = LineSourceItems
		return view
	}

	logger.Warn("Order has no recoverable lines, using placeholder", map[string]interface{}{
		"order_id": order.ID,
	})
	view.Lines = []SnapshotLine{{
		Name:      itemsUnavailableName,
		Quantity:  1,
		UnitPrice: view.TotalAmount,
		LineTotal: view.TotalAmount,
	}}
	view.LineSource = LineSourcePlaceholder
	return view
}

// linesFromItems maps the normalized rows, re-joining the live catalog for
// rows that lack a name or photo.
func (s *orderService) linesFromItems(ctx context.Context, order *model.Order) []SnapshotLine {
	if len(order.OrderItems) == 0 {
		return nil
	}

	missing := make(map[model.ItemType][]uint)
	for _, item := range order.OrderItems {
		if item.ItemName == "" || item.ItemPhoto == "" {
			missing[item.ItemType] = append(missing[item.ItemType], item.ItemID)
		}
	}
	live := make(map[lineKey]model.CatalogItem)
	for itemType, ids := range missing {
		if !itemType.Valid() {
			continue
		}
		items, err := s.catalogRepo.FindByIDs(itemType, ids)
		if err != nil {
			logger.Warn("Catalog re-join failed for order items", map[string]interface{}{
				"order_id": order.ID,
				"error":    err.Error(),
			})
			continue
		}
		for _, item := range items {
			live[lineKey{itemType, item.ID}] = item
		}
	}

	lines := make([]SnapshotLine, 0, len(order.OrderItems))
	unresolved := make(map[model.ItemType][]model.CatalogItem)
	for _, item := range order.OrderItems {
		line := SnapshotLine{
			ItemType:    item.ItemType,
			ItemID:      item.ItemID,
			Name:        item.ItemName,
			Photo:       item.ItemPhoto,
			Description: item.ItemDescription,
			Quantity:    item.Quantity,
			UnitPrice:   util.Money(item.Price),
			LineTotal:   util.MoneyFirst(item.LineTotal, util.NullMoney(util.LineTotal(util.Money(item.Price), item.Quantity))),
		}

		catalogItem, found := live[lineKey{item.ItemType, item.ItemID}]
		if line.Name == "" {
			line.Name = unavailableItemName
			if found {
				line.Name = catalogItem.Name
			}
		}
		if line.Photo == "" {
			unresolved[item.ItemType] = append(unresolved[item.ItemType], model.CatalogItem{
				ID:            item.ItemID,
				Type:          item.ItemType,
				CatalogFields: model.CatalogFields{Name: line.Name, Photo: catalogItem.Photo},
			})
		}
		lines = append(lines, line)
	}

	// one folder listing per type instead of a lookup per line
	resolved := make(map[lineKey]string)
	for itemType, items := range unresolved {
		for id, url := range s.photos.ResolveMany(ctx, itemType, items) {
			resolved[lineKey{itemType, id}] = url
		}
	}
	for i := range lines {
		if lines[i].Photo != "" {
			continue
		}
		lines[i].Photo = Placeholder(lines[i].ItemType)
		if url, ok := resolved[lineKey{lines[i].ItemType, lines[i].ItemID}]; ok {
			lines[i].Photo = url
		}
	}
	return lines
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID uint) error {
	logger.Info("Cancelling order", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	cancelled, err := s.orderRepo.CancelIfPending(orderID, userID)
	if err != nil {
		logger.Error("Failed to cancel order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return err
	}

	if !cancelled {
		order, err := s.findOwned(userID, orderID)
		if err != nil {
			return err
		}
		logger.Warn("Order not cancellable", map[string]interface{}{
			"order_id": orderID,
			"status":   order.Status,
		})
		return &NotCancellableError{Status: order.Status}
	}

	if err := s.orderRepo.UpdatePaymentStatus(orderID, model.PaymentStatusCancelled); err != nil {
		logger.Warn("Order cancelled but payment status was not updated", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	if s.notifier != nil {
		s.notifier.NotifyOrder(userID, OrderEventCancelled, map[string]interface{}{
			"order_id": orderID,
			"status":   model.OrderStatusCancelled,
		})
	}
	return nil
}
