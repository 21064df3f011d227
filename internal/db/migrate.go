package db

import (
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Service{},
		&model.MenuItem{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Address{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed inserts a small demo catalog when both catalog tables are empty.
func Seed() error {
	return SeedCatalog(DB)
}

// SeedCatalog is Seed against an explicit handle.
func SeedCatalog(db *gorm.DB) error {
	var services, menu int64
	if err := db.Model(&model.Service{}).Count(&services).Error; err != nil {
		return err
	}
	if err := db.Model(&model.MenuItem{}).Count(&menu).Error; err != nil {
		return err
	}
	if services > 0 || menu > 0 {
		logger.Info("Catalog already seeded, skipping...", map[string]interface{}{
			"services": services,
			"menu":     menu,
		})
		return nil
	}

	logger.Info("Seeding demo catalog...")

	demoServices := []model.Service{
		{CatalogFields: demoFields("Home Cleaning", "500.00", "50.00", "Full home deep cleaning by trained staff", 1)},
		{CatalogFields: demoFields("AC Repair", "800.00", "0.00", "Split and window AC servicing", 2)},
		{CatalogFields: demoFields("Plumbing", "350.00", "0.00", "Leak fixes and fitting replacement", 3)},
	}
	demoMenu := []model.MenuItem{
		{CatalogFields: demoFields("Pizza", "250.00", "25.00", "Wood fired margherita", 1)},
		{CatalogFields: demoFields("Veg Biryani", "180.00", "0.00", "Dum biryani with raita", 2)},
		{CatalogFields: demoFields("Masala Dosa", "120.00", "10.00", "Crisp dosa with chutney and sambar", 3)},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&demoServices).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&demoMenu).Error; err != nil {
			return err
		}
		logger.Info("Demo catalog seeded successfully", map[string]interface{}{
			"services": len(demoServices),
			"menu":     len(demoMenu),
		})
		return nil
	})
}

func demoFields(name, price, discount, description string, position int) model.CatalogFields {
	p := decimal.RequireFromString(price)
	d := decimal.RequireFromString(discount)
	return model.CatalogFields{
		Name:        name,
		Price:       decimal.NewNullDecimal(p),
		Discount:    decimal.NewNullDecimal(d),
		FinalPrice:  decimal.NewNullDecimal(p.Sub(d)),
		Description: description,
		Status:      model.CatalogStatusActive,
		Position:    position,
	}
}
