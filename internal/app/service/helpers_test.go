package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/db"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/storage"
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

func catalogFields(name, finalPrice, photo string) model.CatalogFields {
	return model.CatalogFields{
		Name:       name,
		Price:      money(finalPrice),
		Discount:   money("0"),
		FinalPrice: money(finalPrice),
		Status:     model.CatalogStatusActive,
		Photo:      photo,
	}
}

func createTestService(t *testing.T, testDB *gorm.DB, name, price string) *model.Service {
	svc := &model.Service{CatalogFields: catalogFields(name, price, "")}
	require.NoError(t, testDB.Create(svc).Error)
	return svc
}

func createTestMenuItem(t *testing.T, testDB *gorm.DB, name, price string) *model.MenuItem {
	item := &model.MenuItem{CatalogFields: catalogFields(name, price, "")}
	require.NoError(t, testDB.Create(item).Error)
	return item
}

func addCartLine(t *testing.T, testDB *gorm.DB, userID uint, itemType model.ItemType, itemID uint, quantity int) *model.CartItem {
	line := &model.CartItem{UserID: userID, ItemType: itemType, ItemID: itemID, Quantity: quantity}
	require.NoError(t, testDB.Create(line).Error)
	return line
}

// fakeImageHost serves a fixed folder listing.
type fakeImageHost struct {
	mu      sync.Mutex
	folders map[string][]storage.ImageObject
	err     error
	calls   int
}

func newFakeImageHost() *fakeImageHost {
	return &fakeImageHost{folders: make(map[string][]storage.ImageObject)}
}

func (f *fakeImageHost) add(folder, publicID string) string {
	url := fmt.Sprintf("https://img.example.com/%s/%s.jpg", folder, publicID)
	f.folders[folder] = append(f.folders[folder], storage.ImageObject{PublicID: publicID, URL: url})
	return url
}

func (f *fakeImageHost) ListByFolder(ctx context.Context, folder string) ([]storage.ImageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.folders[folder], nil
}

func (f *fakeImageHost) SearchByNamePrefix(ctx context.Context, folder, query string) ([]storage.ImageObject, error) {
	objects, err := f.ListByFolder(ctx, folder)
	if err != nil {
		return nil, err
	}
	return storage.FilterByNamePrefix(objects, query), nil
}

var errHostDown = errors.New("image host unreachable")

type recordedEvent struct {
	UserID    uint
	EventType string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *fakeNotifier) NotifyOrder(userID uint, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{UserID: userID, EventType: eventType})
}
