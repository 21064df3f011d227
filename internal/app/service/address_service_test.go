package service

import (
	"testing"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func homeAddress() AddressInput {
	return AddressInput{
		Name:      "Home",
		Recipient: "Asha Rao",
		Phone:     "9876543210",
		Address:   "221B Baker Street",
	}
}

func TestAddressService(t *testing.T) {
	testDB := setupTestDB(t)
	user := createTestUser(t, testDB, 1)
	other := createTestUser(t, testDB, 2)
	addressService := NewAddressService(repository.NewAddressRepository(testDB))

	home, err := addressService.CreateAddress(user.ID, homeAddress())
	require.NoError(t, err)
	assert.True(t, home.IsDefault)
	assert.Equal(t, "+919876543210", home.Phone)

	officeInput := homeAddress()
	officeInput.Name = "Office"
	officeInput.DetailAddress = "Floor 3"
	office, err := addressService.CreateAddress(user.ID, officeInput)
	require.NoError(t, err)
	assert.False(t, office.IsDefault)
	assert.Equal(t, "221B Baker Street, Floor 3", office.FullAddress())

	_, err = addressService.CreateAddress(user.ID, AddressInput{Name: "Empty"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	require.NoError(t, addressService.SetDefaultAddress(user.ID, office.ID))
	addresses, err := addressService.ListAddresses(user.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, office.ID, addresses[0].ID)
	assert.True(t, addresses[0].IsDefault)
	assert.False(t, addresses[1].IsDefault)

	assert.ErrorIs(t, addressService.SetDefaultAddress(other.ID, office.ID), ErrAddressNotFound)
	_, err = addressService.GetAddress(other.ID, home.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)

	updateInput := homeAddress()
	updateInput.Address = "10 Downing Street"
	updated, err := addressService.UpdateAddress(user.ID, home.ID, updateInput)
	require.NoError(t, err)
	assert.Equal(t, "10 Downing Street", updated.Address)
	assert.False(t, updated.IsDefault)

	assert.ErrorIs(t, addressService.DeleteAddress(other.ID, home.ID), ErrAddressNotFound)
	require.NoError(t, addressService.DeleteAddress(user.ID, home.ID))
	addresses, err = addressService.ListAddresses(user.ID)
	require.NoError(t, err)
	assert.Len(t, addresses, 1)
}
