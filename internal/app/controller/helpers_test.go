package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupControllerDB(t *testing.T) *gorm.DB {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, n int) *model.User {
	user := &model.User{
		FullName:     fmt.Sprintf("Test User %d", n),
		Phone:        fmt.Sprintf("+91800000000%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		Location:     "Bengaluru",
		PasswordHash: "hash",
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createMenuItem(t *testing.T, testDB *gorm.DB, name, price string) *model.MenuItem {
	p := decimal.NewNullDecimal(decimal.RequireFromString(price))
	item := &model.MenuItem{CatalogFields: model.CatalogFields{
		Name:       name,
		Price:      p,
		Discount:   decimal.NewNullDecimal(decimal.Zero),
		FinalPrice: p,
		Status:     model.CatalogStatusActive,
	}}
	require.NoError(t, testDB.Create(item).Error)
	return item
}

// setUserIDInContext stands in for the auth middleware.
func setUserIDInContext(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}
