package repository

import (
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository reads the services and menu tables through the shared
// model.CatalogItem shape. Writes come only from the export sync and seeding.
type CatalogRepository interface {
	WithTx(tx *gorm.DB) CatalogRepository
	FindByID(itemType model.ItemType, id uint) (*model.CatalogItem, error)
	FindByIDs(itemType model.ItemType, ids []uint) ([]model.CatalogItem, error)
	ListActive(itemType model.ItemType) ([]model.CatalogItem, error)
	Upsert(itemType model.ItemType, items []model.CatalogItem) error
	DeactivateMissing(itemType model.ItemType, keepIDs []uint) (int64, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) WithTx(tx *gorm.DB) CatalogRepository {
	return &catalogRepository{db: tx}
}

func tagType(items []model.CatalogItem, itemType model.ItemType) {
	for i := range items {
		items[i].Type = itemType
	}
}

func (r *catalogRepository) FindByID(itemType model.ItemType, id uint) (*model.CatalogItem, error) {
	logger.Debug("Finding catalog item by ID in database", map[string]interface{}{
		"item_type": itemType,
		"item_id":   id,
	})

	var item model.CatalogItem
	if err := r.db.Table(itemType.Table()).Where("id = ?", id).First(&item).Error; err != nil {
		logger.Debug("Catalog item not found in database", map[string]interface{}{
			"item_type": itemType,
			"item_id":   id,
			"error":     err.Error(),
		})
		return nil, err
	}
	item.Type = itemType
	return &item, nil
}

// FindByIDs loads every existing item among ids. Missing ids are skipped.
func (r *catalogRepository) FindByIDs(itemType model.ItemType, ids []uint) ([]model.CatalogItem, error) {
	if len(ids) == 0 {
		return []model.CatalogItem{}, nil
	}

	var items []model.CatalogItem
	if err := r.db.Table(itemType.Table()).Where("id IN ?", ids).Find(&items).Error; err != nil {
		logger.Error("Failed to find catalog items by IDs in database", err, map[string]interface{}{
			"item_type": itemType,
			"count":     len(ids),
		})
		return nil, err
	}
	tagType(items, itemType)
	return items, nil
}

func (r *catalogRepository) ListActive(itemType model.ItemType) ([]model.CatalogItem, error) {
	logger.Debug("Listing active catalog items in database", map[string]interface{}{
		"item_type": itemType,
	})

	var items []model.CatalogItem
	err := r.db.Table(itemType.Table()).
		Where("status = ?", model.CatalogStatusActive).
		Order("position ASC, name ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to list active catalog items in database", err, map[string]interface{}{
			"item_type": itemType,
		})
		return nil, err
	}
	tagType(items, itemType)

	logger.Debug("Active catalog items listed", map[string]interface{}{
		"item_type": itemType,
		"count":     len(items),
	})
	return items, nil
}

// Upsert writes items keyed by ID, replacing every column except created_at.
func (r *catalogRepository) Upsert(itemType model.ItemType, items []model.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}

	err := r.db.Table(itemType.Table()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&items).Error
	if err != nil {
		logger.Error("Failed to upsert catalog items in database", err, map[string]interface{}{
			"item_type": itemType,
			"count":     len(items),
		})
		return err
	}

	logger.Debug("Catalog items upserted", map[string]interface{}{
		"item_type": itemType,
		"count":     len(items),
	})
	return nil
}

// DeactivateMissing marks every item whose ID is not in keepIDs inactive.
func (r *catalogRepository) DeactivateMissing(itemType model.ItemType, keepIDs []uint) (int64, error) {
	q := r.db.Table(itemType.Table()).Where("status = ?", model.CatalogStatusActive)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}

	result := q.Update("status", model.CatalogStatusInactive)
	if result.Error != nil {
		logger.Error("Failed to deactivate missing catalog items", result.Error, map[string]interface{}{
			"item_type": itemType,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
