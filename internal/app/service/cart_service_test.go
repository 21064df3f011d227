package service

import (
	"context"
	"testing"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T, host ImageSearcher) (CartService, *gorm.DB, *model.User) {
	testDB := setupTestDB(t)
	photos := NewPhotoResolver(host, "services", "menu_items", time.Second)
	cartService := NewCartService(
		repository.NewCartRepository(testDB),
		repository.NewCatalogRepository(testDB),
		photos,
	)
	return cartService, testDB, createTestUser(t, testDB, 1)
}

func TestCartService_GetCartSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("Totals lines", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		cleaning := createTestService(t, testDB, "Home Cleaning", "450.00")
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
		addCartLine(t, testDB, user.ID, model.ItemTypeService, cleaning.ID, 1)
		addCartLine(t, testDB, user.ID, model.ItemTypeMenu, pizza.ID, 2)

		summary, err := cartService.GetCartSummary(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, summary.Lines, 2)
		assert.Equal(t, "900.00", summary.Total.StringFixed(2))
		assert.Equal(t, "Home Cleaning", summary.Lines[0].Name)
		assert.Equal(t, "450.00", summary.Lines[0].LineTotal.StringFixed(2))
		assert.Equal(t, "450.00", summary.Lines[1].LineTotal.StringFixed(2))
		assert.Equal(t, ServicePlaceholderPhoto, summary.Lines[0].Photo)
		assert.Equal(t, MenuPlaceholderPhoto, summary.Lines[1].Photo)
	})

	t.Run("Empty cart", func(t *testing.T) {
		cartService, _, user := setupCartServiceTest(t, nil)

		summary, err := cartService.GetCartSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, summary.Lines)
		assert.True(t, summary.Total.IsZero())
	})

	t.Run("Missing catalog item is free", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
		addCartLine(t, testDB, user.ID, model.ItemTypeMenu, pizza.ID, 1)
		addCartLine(t, testDB, user.ID, model.ItemTypeService, 9999, 3)

		summary, err := cartService.GetCartSummary(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, summary.Lines, 2)
		assert.Equal(t, "225.00", summary.Total.StringFixed(2))
		assert.True(t, summary.Lines[1].UnitPrice.IsZero())
		assert.False(t, summary.Lines[1].Available)
	})

	t.Run("Null final price falls back to base price", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		svc := createTestService(t, testDB, "Plumbing", "100.00")
		require.NoError(t, testDB.Exec("UPDATE services SET final_price = NULL WHERE id = ?", svc.ID).Error)
		addCartLine(t, testDB, user.ID, model.ItemTypeService, svc.ID, 2)

		summary, err := cartService.GetCartSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "200.00", summary.Total.StringFixed(2))
	})

	t.Run("Line totals round to the minor unit", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		item := createTestMenuItem(t, testDB, "Samosa", "0.10")
		addCartLine(t, testDB, user.ID, model.ItemTypeMenu, item.ID, 3)

		summary, err := cartService.GetCartSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.30", summary.Total.StringFixed(2))
	})

	t.Run("Photos resolved from image host", func(t *testing.T) {
		host := newFakeImageHost()
		url := host.add("menu_items", "Masala_Dosa")
		cartService, testDB, user := setupCartServiceTest(t, host)
		dosa := createTestMenuItem(t, testDB, "Masala Dosa", "80.00")
		idli := createTestMenuItem(t, testDB, "Idli", "40.00")
		addCartLine(t, testDB, user.ID, model.ItemTypeMenu, dosa.ID, 1)
		addCartLine(t, testDB, user.ID, model.ItemTypeMenu, idli.ID, 1)

		summary, err := cartService.GetCartSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, url, summary.Lines[0].Photo)
		assert.Equal(t, MenuPlaceholderPhoto, summary.Lines[1].Photo)
		assert.Equal(t, 1, host.calls)
	})

	t.Run("Image host failure degrades to placeholder", func(t *testing.T) {
		host := newFakeImageHost()
		host.err = errHostDown
		cartService, testDB, user := setupCartServiceTest(t, host)
		dosa := createTestMenuItem(t, testDB, "Masala Dosa", "80.00")
		addCartLine(t, testDB, user.ID, model.ItemTypeMenu, dosa.ID, 1)

		summary, err := cartService.GetCartSummary(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, MenuPlaceholderPhoto, summary.Lines[0].Photo)
	})
}

func TestCartService_AddToCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Same item twice increments", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")

		_, err := cartService.AddToCart(ctx, user.ID, model.ItemTypeMenu, pizza.ID, 1)
		require.NoError(t, err)
		line, err := cartService.AddToCart(ctx, user.ID, model.ItemTypeMenu, pizza.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, line.Quantity)

		var count int64
		testDB.Model(&model.CartItem{}).Where("user_id = ?", user.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Non-positive quantity defaults to one", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		svc := createTestService(t, testDB, "Laundry", "150.00")

		line, err := cartService.AddToCart(ctx, user.ID, model.ItemTypeService, svc.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, line.Quantity)
	})

	t.Run("Invalid item type", func(t *testing.T) {
		cartService, _, user := setupCartServiceTest(t, nil)

		_, err := cartService.AddToCart(ctx, user.ID, model.ItemType("drink"), 1, 1)
		assert.ErrorIs(t, err, ErrInvalidItemType)
	})

	t.Run("Unknown item", func(t *testing.T) {
		cartService, _, user := setupCartServiceTest(t, nil)

		_, err := cartService.AddToCart(ctx, user.ID, model.ItemTypeMenu, 404, 1)
		assert.ErrorIs(t, err, ErrItemNotAvailable)
	})

	t.Run("Inactive item", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
		require.NoError(t, testDB.Model(pizza).Update("status", model.CatalogStatusInactive).Error)

		_, err := cartService.AddToCart(ctx, user.ID, model.ItemTypeMenu, pizza.ID, 1)
		assert.ErrorIs(t, err, ErrItemNotAvailable)
	})
}

func TestCartService_AdjustCartItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Increase", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
		line := addCartLine(t, testDB, user.ID, model.ItemTypeMenu, pizza.ID, 1)

		updated, err := cartService.AdjustCartItem(ctx, user.ID, line.ID, CartActionIncrease)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Quantity)
	})

	t.Run("Decrease at one deletes the line", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
		line := addCartLine(t, testDB, user.ID, model.ItemTypeMenu, pizza.ID, 1)

		updated, err := cartService.AdjustCartItem(ctx, user.ID, line.ID, CartActionDecrease)
		require.NoError(t, err)
		assert.Nil(t, updated)

		var count int64
		testDB.Model(&model.CartItem{}).Where("id = ?", line.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("Unknown action", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
		line := addCartLine(t, testDB, user.ID, model.ItemTypeMenu, pizza.ID, 1)

		_, err := cartService.AdjustCartItem(ctx, user.ID, line.ID, "double")
		assert.ErrorIs(t, err, ErrInvalidCartAction)
	})

	t.Run("Another user's line", func(t *testing.T) {
		cartService, testDB, user := setupCartServiceTest(t, nil)
		other := createTestUser(t, testDB, 2)
		pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
		line := addCartLine(t, testDB, other.ID, model.ItemTypeMenu, pizza.ID, 1)

		_, err := cartService.AdjustCartItem(ctx, user.ID, line.ID, CartActionIncrease)
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})
}

func TestCartService_SetQuantityRemoveClear(t *testing.T) {
	ctx := context.Background()
	cartService, testDB, user := setupCartServiceTest(t, nil)
	pizza := createTestMenuItem(t, testDB, "Pizza", "225.00")
	svc := createTestService(t, testDB, "Laundry", "150.00")
	pizzaLine := addCartLine(t, testDB, user.ID, model.ItemTypeMenu, pizza.ID, 1)
	svcLine := addCartLine(t, testDB, user.ID, model.ItemTypeService, svc.ID, 1)

	updated, err := cartService.SetCartItemQuantity(ctx, user.ID, pizzaLine.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	count, err := cartService.CountItems(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	updated, err = cartService.SetCartItemQuantity(ctx, user.ID, pizzaLine.ID, -1)
	require.NoError(t, err)
	assert.Nil(t, updated)

	require.NoError(t, cartService.RemoveFromCart(ctx, user.ID, svcLine.ID))
	assert.ErrorIs(t, cartService.RemoveFromCart(ctx, user.ID, svcLine.ID), ErrCartItemNotFound)

	addCartLine(t, testDB, user.ID, model.ItemTypeMenu, pizza.ID, 2)
	require.NoError(t, cartService.ClearCart(ctx, user.ID))
	count, err = cartService.CountItems(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
