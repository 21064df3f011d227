package controller

import (
	"bytes"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupOrderControllerTest(t *testing.T) (*gin.Engine, *gorm.DB, *model.User) {
	testDB := setupControllerDB(t)
	user := createUser(t, testDB, 1)

	catalogRepo := repository.NewCatalogRepository(testDB)
	photos := service.NewPhotoResolver(nil, "services", "menu_items", time.Second)
	orderService := service.NewOrderService(
		testDB,
		repository.NewOrderRepository(testDB),
		repository.NewCartRepository(testDB),
		repository.NewUserRepository(testDB),
		catalogRepo,
		photos,
		nil,
	)
	addressService := service.NewAddressService(repository.NewAddressRepository(testDB))
	ctrl := NewOrderController(orderService, addressService)

	router := gin.New()
	orders := router.Group("/orders", setUserIDInContext(user.ID))
	orders.POST("/checkout", ctrl.Checkout)
	orders.GET("", ctrl.GetOrders)
	orders.GET("/export", ctrl.ExportOrders)
	orders.GET("/:id", ctrl.GetOrderByID)
	orders.POST("/:id/cancel", ctrl.CancelOrder)

	router.GET("/guest/orders", ctrl.GetOrders)
	return router, testDB, user
}

func fillCart(t *testing.T, testDB *gorm.DB, userID uint) {
	pizza := createMenuItem(t, testDB, "Pizza", "225.00")
	dosa := createMenuItem(t, testDB, "Dosa", "150.00")
	require.NoError(t, testDB.Create(&model.CartItem{UserID: userID, ItemType: model.ItemTypeMenu, ItemID: pizza.ID, Quantity: 2}).Error)
	require.NoError(t, testDB.Create(&model.CartItem{UserID: userID, ItemType: model.ItemTypeMenu, ItemID: dosa.ID, Quantity: 3}).Error)
}

func checkout(t *testing.T, router *gin.Engine) uint {
	w := performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		PaymentMode:      model.PaymentModeCOD,
		DeliveryLocation: "221B Baker Street",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return uint(decodeBody(t, w)["order_id"].(float64))
}

func orderPath(id uint, suffix string) string {
	return "/orders/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestOrderController_Checkout_Success(t *testing.T) {
	router, testDB, user := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID)

	w := performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		PaymentMode:      model.PaymentModeUPI,
		DeliveryLocation: "  221B Baker Street ",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	response := decodeBody(t, w)
	assert.Equal(t, 900.0, response["total_amount"])
	assert.Equal(t, string(model.OrderStatusPending), response["status"])

	var count int64
	testDB.Model(&model.CartItem{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestOrderController_Checkout_Errors(t *testing.T) {
	router, testDB, user := setupOrderControllerTest(t)

	w := performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		PaymentMode:      model.PaymentModeCOD,
		DeliveryLocation: "221B Baker Street",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_EMPTY_CART", decodeBody(t, w)["error"])

	fillCart(t, testDB, user.ID)

	w = performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		PaymentMode:      "Cash",
		DeliveryLocation: "221B Baker Street",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INVALID_PAYMENT_MODE", decodeBody(t, w)["error"])

	w = performRequest(router, http.MethodPost, "/orders/checkout", map[string]interface{}{
		"delivery_location": "221B Baker Street",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INVALID_PAYMENT_MODE", decodeBody(t, w)["error"])

	unknown := uint(404)
	w = performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		AddressID: &unknown,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INVALID_PAYMENT_MODE", decodeBody(t, w)["error"])

	w = performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		PaymentMode:      model.PaymentModeCOD,
		DeliveryLocation: "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INVALID_DELIVERY_LOCATION", decodeBody(t, w)["error"])

	missing := uint(404)
	w = performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		PaymentMode: model.PaymentModeCOD,
		AddressID:   &missing,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ADDRESS_NOT_FOUND", decodeBody(t, w)["error"])

	var count int64
	testDB.Model(&model.CartItem{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestOrderController_Checkout_SavedAddress(t *testing.T) {
	router, testDB, user := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID)

	address := &model.Address{
		UserID:        user.ID,
		Name:          "Home",
		Recipient:     "Asha",
		Phone:         "+919876543210",
		Address:       "12 MG Road",
		DetailAddress: "Flat 4",
	}
	require.NoError(t, testDB.Create(address).Error)

	w := performRequest(router, http.MethodPost, "/orders/checkout", CheckoutRequest{
		PaymentMode: model.PaymentModeCard,
		AddressID:   &address.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order model.Order
	require.NoError(t, testDB.First(&order, uint(decodeBody(t, w)["order_id"].(float64))).Error)
	assert.Equal(t, "12 MG Road, Flat 4", order.DeliveryLocation)
}

func TestOrderController_GetOrders(t *testing.T) {
	router, testDB, user := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID)
	orderID := checkout(t, router)

	w := performRequest(router, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	assert.Equal(t, float64(1), response["count"])
	orders := response["orders"].([]interface{})
	order := orders[0].(map[string]interface{})
	assert.Equal(t, float64(orderID), order["id"])
	assert.Equal(t, 900.0, order["total_amount"])
	assert.Len(t, order["items"], 2)

	w = performRequest(router, http.MethodGet, "/guest/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderController_GetOrderByID(t *testing.T) {
	router, testDB, user := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID)
	orderID := checkout(t, router)

	w := performRequest(router, http.MethodGet, orderPath(orderID, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := decodeBody(t, w)["order"].(map[string]interface{})
	items := order["items"].([]interface{})
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Pizza", first["name"])
	assert.Equal(t, 450.0, first["line_total"])

	w = performRequest(router, http.MethodGet, orderPath(orderID+100, ""), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", decodeBody(t, w)["error"])

	w = performRequest(router, http.MethodGet, "/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderController_CancelOrder(t *testing.T) {
	router, testDB, user := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID)
	orderID := checkout(t, router)

	w := performRequest(router, http.MethodPost, orderPath(orderID, "/cancel"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(model.OrderStatusCancelled), decodeBody(t, w)["status"])

	w = performRequest(router, http.MethodPost, orderPath(orderID, "/cancel"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ORDER_NOT_CANCELLABLE", decodeBody(t, w)["error"])

	w = performRequest(router, http.MethodPost, orderPath(orderID+100, "/cancel"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderController_ExportOrders(t *testing.T) {
	router, testDB, user := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID)
	checkout(t, router)

	w := performRequest(router, http.MethodGet, "/orders/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	file, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Orders")
	require.NoError(t, err)
	assert.Len(t, rows, 3) // header and two lines
}
