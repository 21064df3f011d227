package service

import (
	"errors"
	"strings"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrInvalidAddress  = errors.New("address name, recipient, phone and street are required")
)

type AddressInput struct {
	Name          string
	Recipient     string
	Phone         string
	ZipCode       string
	Address       string
	DetailAddress string
	IsDefault     bool
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Recipient) == "" ||
		strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.Address) == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (in AddressInput) apply(a *model.Address) {
	a.Name = strings.TrimSpace(in.Name)
	a.Recipient = strings.TrimSpace(in.Recipient)
	a.Phone = util.NormalizePhone(in.Phone)
	a.ZipCode = strings.TrimSpace(in.ZipCode)
	a.Address = strings.TrimSpace(in.Address)
	a.DetailAddress = strings.TrimSpace(in.DetailAddress)
	a.IsDefault = in.IsDefault
}

type AddressService interface {
	ListAddresses(userID uint) ([]model.Address, error)
	GetAddress(userID, addressID uint) (*model.Address, error)
	CreateAddress(userID uint, in AddressInput) (*model.Address, error)
	UpdateAddress(userID, addressID uint, in AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	SetDefaultAddress(userID, addressID uint) error
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

func (s *addressService) ListAddresses(userID uint) ([]model.Address, error) {
	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (s *addressService) GetAddress(userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByUserAndID(userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		logger.Error("Failed to fetch address", err, map[string]interface{}{
			"address_id": addressID,
		})
		return nil, err
	}
	return address, nil
}

// CreateAddress stores a new address. A user's first address is always the
// default.
func (s *addressService) CreateAddress(userID uint, in AddressInput) (*model.Address, error) {
	logger.Info("Creating address", map[string]interface{}{
		"user_id": userID,
	})

	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	address := &model.Address{UserID: userID}
	in.apply(address)
	if len(existing) == 0 {
		address.IsDefault = true
	}

	if err := s.addressRepo.Create(address); err != nil {
		return nil, err
	}

	logger.Info("Address created", map[string]interface{}{
		"user_id":    userID,
		"address_id": address.ID,
		"is_default": address.IsDefault,
	})
	return address, nil
}

func (s *addressService) UpdateAddress(userID, addressID uint, in AddressInput) (*model.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	address, err := s.GetAddress(userID, addressID)
	if err != nil {
		return nil, err
	}
	wasDefault := address.IsDefault
	in.apply(address)
	// unsetting happens only through another address becoming default
	address.IsDefault = address.IsDefault || wasDefault

	if err := s.addressRepo.Update(address); err != nil {
		return nil, err
	}

	logger.Info("Address updated", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return address, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) error {
	if err := s.addressRepo.Delete(userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return err
	}

	logger.Info("Address deleted", map[string]interface{}{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

func (s *addressService) SetDefaultAddress(userID, addressID uint) error {
	if err := s.addressRepo.SetDefault(userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		logger.Error("Failed to set default address", err, map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
		})
		return err
	}
	return nil
}
