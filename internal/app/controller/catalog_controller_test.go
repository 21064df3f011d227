package controller

import (
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
	"gorm.io/gorm"
)

func setupCatalogControllerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	testDB := setupControllerDB(t)

	catalogService := service.NewCatalogService(
		repository.NewCatalogRepository(testDB),
		nil,
		nil,
		service.NewPhotoResolver(nil, "services", "menu_items", time.Second),
		time.Minute,
	)
	ctrl := NewCatalogController(catalogService)

	router := gin.New()
	router.GET("/catalog/services", ctrl.ListServices)
	router.GET("/catalog/menu", ctrl.ListMenu)
	router.GET("/catalog/:type/:id", ctrl.GetItem)
	return router, testDB
}

func TestCatalogController_ListMenu(t *testing.T) {
	router, testDB := setupCatalogControllerTest(t)
	createMenuItem(t, testDB, "Pizza", "225.00")
	createMenuItem(t, testDB, "Dosa", "80.50")

	w := performRequest(router, http.MethodGet, "/catalog/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	assert.Equal(t, float64(2), response["count"])
	menu := response["menu"].([]interface{})
	first := menu[0].(map[string]interface{})
	assert.Equal(t, "Dosa", first["name"])
	assert.Equal(t, 80.5, first["final_price"])
	assert.Equal(t, service.MenuPlaceholderPhoto, first["photo"])
}

func TestCatalogController_ListServices_Empty(t *testing.T) {
	router, _ := setupCatalogControllerTest(t)

	w := performRequest(router, http.MethodGet, "/catalog/services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}

func TestCatalogController_GetItem(t *testing.T) {
	router, testDB := setupCatalogControllerTest(t)
	pizza := createMenuItem(t, testDB, "Pizza", "225.00")
	id := strconv.FormatUint(uint64(pizza.ID), 10)

	w := performRequest(router, http.MethodGet, "/catalog/menu/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	item := decodeBody(t, w)["item"].(map[string]interface{})
	assert.Equal(t, "Pizza", item["name"])
	assert.Equal(t, string(model.ItemTypeMenu), item["type"])

	w = performRequest(router, http.MethodGet, "/catalog/service/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CATALOG_ITEM_NOT_FOUND", decodeBody(t, w)["error"])

	w = performRequest(router, http.MethodGet, "/catalog/drink/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CATALOG_INVALID_ITEM_TYPE", decodeBody(t, w)["error"])

	w = performRequest(router, http.MethodGet, "/catalog/menu/zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
