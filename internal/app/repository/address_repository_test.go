package repository

import (
	"testing"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAddress(userID uint, name string, isDefault bool) *model.Address {
	return &model.Address{
		UserID:    userID,
		Name:      name,
		Recipient: "Asha",
		Phone:     "+919876543210",
		Address:   "221B Baker Street",
		IsDefault: isDefault,
	}
}

func countDefaults(t *testing.T, testDB *gorm.DB, userID uint) int64 {
	var n int64
	require.NoError(t, testDB.Model(&model.Address{}).Where("user_id = ? AND is_default = ?", userID, true).Count(&n).Error)
	return n
}

func TestAddressRepository_SingleDefault(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewAddressRepository(testDB)
	user := createTestUser(t, testDB, 1)

	home := newTestAddress(user.ID, "Home", true)
	require.NoError(t, repo.Create(home))
	office := newTestAddress(user.ID, "Office", true)
	require.NoError(t, repo.Create(office))

	assert.Equal(t, int64(1), countDefaults(t, testDB, user.ID))
	def, err := repo.FindDefault(user.ID)
	require.NoError(t, err)
	assert.Equal(t, office.ID, def.ID)

	require.NoError(t, repo.SetDefault(user.ID, home.ID))
	assert.Equal(t, int64(1), countDefaults(t, testDB, user.ID))
	def, err = repo.FindDefault(user.ID)
	require.NoError(t, err)
	assert.Equal(t, home.ID, def.ID)

	list, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, home.ID, list[0].ID)
}

func TestAddressRepository_Ownership(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewAddressRepository(testDB)
	user := createTestUser(t, testDB, 1)
	other := createTestUser(t, testDB, 2)

	addr := newTestAddress(user.ID, "Home", false)
	require.NoError(t, repo.Create(addr))

	_, err := repo.FindByUserAndID(other.ID, addr.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.SetDefault(other.ID, addr.ID), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(other.ID, addr.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(user.ID, addr.ID))
	_, err = repo.FindByUserAndID(user.ID, addr.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
