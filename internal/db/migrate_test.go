package db

import (
	"testing"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalog(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, SeedCatalog(testDB))
	require.NoError(t, SeedCatalog(testDB))

	var services, menu int64
	require.NoError(t, testDB.Model(&model.Service{}).Count(&services).Error)
	require.NoError(t, testDB.Model(&model.MenuItem{}).Count(&menu).Error)
	assert.Equal(t, int64(3), services)
	assert.Equal(t, int64(3), menu)

	var pizza model.MenuItem
	require.NoError(t, testDB.Where("name = ?", "Pizza").First(&pizza).Error)
	assert.Equal(t, "225", pizza.FinalPrice.Decimal.String())
}

func TestTruncateAllTables(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(testDB)

	require.NoError(t, SeedCatalog(testDB))
	require.NoError(t, TruncateAllTables(testDB))

	var menu int64
	require.NoError(t, testDB.Model(&model.MenuItem{}).Count(&menu).Error)
	assert.Zero(t, menu)
}
