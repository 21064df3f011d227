package repository

import (
	"fmt"
	"testing"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, n int) *model.User {
	user := &model.User{
		FullName:     fmt.Sprintf("Test User %d", n),
		Phone:        fmt.Sprintf("+91900000000%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "hash",
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func createTestService(t *testing.T, testDB *gorm.DB, name, price string) *model.Service {
	svc := &model.Service{CatalogFields: model.CatalogFields{
		Name:       name,
		Price:      money(price),
		Discount:   money("0"),
		FinalPrice: money(price),
		Status:     model.CatalogStatusActive,
	}}
	require.NoError(t, testDB.Create(svc).Error)
	return svc
}

func createTestMenuItem(t *testing.T, testDB *gorm.DB, name, price string) *model.MenuItem {
	item := &model.MenuItem{CatalogFields: model.CatalogFields{
		Name:       name,
		Price:      money(price),
		Discount:   money("0"),
		FinalPrice: money(price),
		Status:     model.CatalogStatusActive,
	}}
	require.NoError(t, testDB.Create(item).Error)
	return item
}
