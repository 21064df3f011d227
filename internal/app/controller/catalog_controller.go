package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	apperrors "github.com/bitemebuddy/bitemebuddy-backend/internal/errors"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	catalogService service.CatalogService
}

func NewCatalogController(catalogService service.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

type CatalogItemResponse struct {
	ID          uint           `json:"id"`
	Type        model.ItemType `json:"type"`
	Name        string         `json:"name"`
	Price       float64        `json:"price"`
	Discount    float64        `json:"discount"`
	FinalPrice  float64        `json:"final_price"`
	Description string         `json:"description"`
	Photo       string         `json:"photo"`
}

func catalogItemResponse(entry service.CatalogEntry) CatalogItemResponse {
	return CatalogItemResponse{
		ID:          entry.ID,
		Type:        entry.Type,
		Name:        entry.Name,
		Price:       amount(entry.Price),
		Discount:    amount(entry.Discount),
		FinalPrice:  amount(entry.FinalPrice),
		Description: entry.Description,
		Photo:       entry.Photo,
	}
}

// ListServices returns the active services
// GET /api/v1/catalog/services
func (ctrl *CatalogController) ListServices(c *gin.Context) {
	ctrl.list(c, "services", ctrl.catalogService.ListServices)
}

// ListMenu returns the active menu items
// GET /api/v1/catalog/menu
func (ctrl *CatalogController) ListMenu(c *gin.Context) {
	ctrl.list(c, "menu", ctrl.catalogService.ListMenu)
}

func (ctrl *CatalogController) list(c *gin.Context, key string, load func(context.Context) ([]service.CatalogEntry, error)) {
	log := middleware.GetLoggerFromContext(c)

	entries, err := load(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch catalog", err, map[string]interface{}{
			"catalog": key,
		})
		apperrors.InternalError(c, "Failed to fetch catalog")
		return
	}

	items := make([]CatalogItemResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, catalogItemResponse(entry))
	}

	c.JSON(http.StatusOK, gin.H{
		key:     items,
		"count": len(items),
	})
}

// GetItem returns one catalog item
// GET /api/v1/catalog/:type/:id
func (ctrl *CatalogController) GetItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	itemType := model.ItemType(c.Param("type"))
	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid item ID")
		return
	}

	entry, err := ctrl.catalogService.GetItemDetails(c.Request.Context(), itemType, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidItemType):
			apperrors.BadRequest(c, apperrors.CatalogInvalidItemType, "Item type must be service or menu")
		case errors.Is(err, service.ErrCatalogItemNotFound):
			apperrors.NotFound(c, apperrors.CatalogItemNotFound, "Item not found")
		default:
			log.Error("Failed to fetch catalog item", err, map[string]interface{}{
				"item_type": itemType,
				"item_id":   id,
			})
			apperrors.InternalError(c, "Failed to fetch item")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item": catalogItemResponse(*entry),
	})
}
