package controller

import (
	"errors"
	"net/http"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	apperrors "github.com/bitemebuddy/bitemebuddy-backend/internal/errors"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type AddressRequest struct {
	Name          string `json:"name" binding:"required"`
	Recipient     string `json:"recipient" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	ZipCode       string `json:"zip_code"`
	Address       string `json:"address" binding:"required"`
	DetailAddress string `json:"detail_address"`
	IsDefault     bool   `json:"is_default"`
}

func (r AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		Name:          r.Name,
		Recipient:     r.Recipient,
		Phone:         r.Phone,
		ZipCode:       r.ZipCode,
		Address:       r.Address,
		DetailAddress: r.DetailAddress,
		IsDefault:     r.IsDefault,
	}
}

func respondAddressError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrAddressNotFound):
		apperrors.NotFound(c, apperrors.AddressNotFound, "Address not found")
	case errors.Is(err, service.ErrInvalidAddress):
		apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
	default:
		return false
	}
	return true
}

// ListAddresses returns user's addresses, the default first
// GET /api/v1/addresses
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to addresses", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	addresses, err := ctrl.addressService.ListAddresses(userID)
	if err != nil {
		log.Error("Failed to fetch addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch addresses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// CreateAddress adds an address
// POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid address request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid address details")
		return
	}

	address, err := ctrl.addressService.CreateAddress(userID, req.input())
	if err != nil {
		if respondAddressError(c, err) {
			return
		}
		log.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create address")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Address added",
		"address": address,
	})
}

// UpdateAddress replaces an address
// PUT /api/v1/addresses/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	addressID, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid address ID")
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid address details")
		return
	}

	address, err := ctrl.addressService.UpdateAddress(userID, addressID, req.input())
	if err != nil {
		if respondAddressError(c, err) {
			return
		}
		log.Error("Failed to update address", err, map[string]interface{}{
			"address_id": addressID,
		})
		apperrors.InternalError(c, "Failed to update address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address updated",
		"address": address,
	})
}

// DeleteAddress removes an address
// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	addressID, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid address ID")
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, addressID); err != nil {
		if respondAddressError(c, err) {
			return
		}
		log.Error("Failed to delete address", err, map[string]interface{}{
			"address_id": addressID,
		})
		apperrors.InternalError(c, "Failed to delete address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address deleted",
	})
}

// SetDefaultAddress makes an address the default
// PUT /api/v1/addresses/:id/default
func (ctrl *AddressController) SetDefaultAddress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	addressID, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid address ID")
		return
	}

	if err := ctrl.addressService.SetDefaultAddress(userID, addressID); err != nil {
		if respondAddressError(c, err) {
			return
		}
		log.Error("Failed to set default address", err, map[string]interface{}{
			"address_id": addressID,
		})
		apperrors.InternalError(c, "Failed to set default address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Default address updated",
	})
}
