package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/cache"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/adminexport"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrEmptyExport         = errors.New("admin export listed no records")
)

// CatalogEntry is a catalog item ready for display.
type CatalogEntry struct {
	ID          uint            `json:"id"`
	Type        model.ItemType  `json:"type"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	FinalPrice  decimal.Decimal `json:"final_price"`
	Description string          `json:"description"`
	Photo       string          `json:"photo"`
	Position    int             `json:"position"`
}

// SyncResult reports one catalog type written by SyncFromExport.
type SyncResult struct {
	Type        model.ItemType `json:"type"`
	Upserted    int            `json:"upserted"`
	Deactivated int64          `json:"deactivated"`
	Dropped     int            `json:"dropped"`
}

// CatalogExporter is the admin export endpoint pair.
type CatalogExporter interface {
	Configured(kind adminexport.Kind) bool
	Fetch(ctx context.Context, kind adminexport.Kind) (*adminexport.Batch, error)
}

// SharedCache is a cache tier shared between processes.
type SharedCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type CatalogService interface {
	ListServices(ctx context.Context) ([]CatalogEntry, error)
	ListMenu(ctx context.Context) ([]CatalogEntry, error)
	GetItemDetails(ctx context.Context, itemType model.ItemType, id uint) (*CatalogEntry, error)
	SyncFromExport(ctx context.Context) ([]SyncResult, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	exporter    CatalogExporter
	shared      SharedCache
	photos      *PhotoResolver
	ttl         time.Duration
	caches      map[model.ItemType]*cache.TTLCache[[]CatalogEntry]
}

// NewCatalogService builds the catalog reader. exporter and shared may be
// nil.
func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	exporter CatalogExporter,
	shared SharedCache,
	photos *PhotoResolver,
	ttl time.Duration,
) CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &catalogService{
		catalogRepo: catalogRepo,
		exporter:    exporter,
		shared:      shared,
		photos:      photos,
		ttl:         ttl,
		caches: map[model.ItemType]*cache.TTLCache[[]CatalogEntry]{
			model.ItemTypeService: cache.NewTTLCache[[]CatalogEntry]("catalog_services", ttl),
			model.ItemTypeMenu:    cache.NewTTLCache[[]CatalogEntry]("catalog_menu", ttl),
		},
	}
}

func exportKind(itemType model.ItemType) adminexport.Kind {
	if itemType == model.ItemTypeMenu {
		return adminexport.KindMenu
	}
	return adminexport.KindServices
}

func sharedKey(itemType model.ItemType) string {
	return "catalog:" + string(exportKind(itemType))
}

func (s *catalogService) ListServices(ctx context.Context) ([]CatalogEntry, error) {
	return s.list(ctx, model.ItemTypeService)
}

func (s *catalogService) ListMenu(ctx context.Context) ([]CatalogEntry, error) {
	return s.list(ctx, model.ItemTypeMenu)
}

func (s *catalogService) list(ctx context.Context, itemType model.ItemType) ([]CatalogEntry, error) {
	entries, err := s.caches[itemType].GetOrRefresh(ctx, func(ctx context.Context) ([]CatalogEntry, error) {
		return s.load(ctx, itemType)
	})
	if err != nil {
		logger.Error("Failed to load catalog", err, map[string]interface{}{
			"item_type": itemType,
		})
		return nil, err
	}
	return entries, nil
}

// load refills one catalog list: shared cache, then the admin export, then
// the local tables.
func (s *catalogService) load(ctx context.Context, itemType model.ItemType) ([]CatalogEntry, error) {
	if s.shared != nil {
		var entries []CatalogEntry
		found, err := s.shared.GetJSON(ctx, sharedKey(itemType), &entries)
		if err != nil {
			logger.Warn("Shared catalog cache read failed", map[string]interface{}{
				"item_type": itemType,
				"error":     err.Error(),
			})
		}
		if found {
			return entries, nil
		}
	}

	items, err := s.fetchExport(ctx, itemType)
	if err != nil {
		if !errors.Is(err, adminexport.ErrNotConfigured) {
			logger.Warn("Admin export unavailable, using local catalog", map[string]interface{}{
				"item_type": itemType,
				"error":     err.Error(),
			})
		}
		items, err = s.catalogRepo.ListActive(itemType)
		if err != nil {
			return nil, err
		}
	}

	entries := s.toEntries(ctx, itemType, items)
	s.publish(ctx, itemType, entries)

	logger.Info("Catalog refreshed", map[string]interface{}{
		"item_type": itemType,
		"count":     len(entries),
	})
	return entries, nil
}

// fetchExport returns the active export records of itemType in display
// order.
func (s *catalogService) fetchExport(ctx context.Context, itemType model.ItemType) ([]model.CatalogItem, error) {
	if s.exporter == nil || !s.exporter.Configured(exportKind(itemType)) {
		return nil, adminexport.ErrNotConfigured
	}
	batch, err := s.exporter.Fetch(ctx, exportKind(itemType))
	if err != nil {
		return nil, err
	}
	if len(batch.Records) == 0 {
		return nil, ErrEmptyExport
	}

	items := make([]model.CatalogItem, 0, len(batch.Records))
	for _, rec := range batch.Records {
		item := recordToItem(itemType, rec)
		if item.IsActive() {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func recordToItem(itemType model.ItemType, rec adminexport.Record) model.CatalogItem {
	status := model.CatalogStatus(strings.ToLower(strings.TrimSpace(rec.Status)))
	if status == "" {
		status = model.CatalogStatusActive
	}
	return model.CatalogItem{
		ID:   rec.ID,
		Type: itemType,
		CatalogFields: model.CatalogFields{
			Name:        strings.TrimSpace(rec.Name),
			Price:       rec.Price,
			Discount:    rec.Discount,
			FinalPrice:  rec.FinalPrice,
			Description: rec.Description,
			Status:      status,
			Photo:       rec.Photo,
			Position:    rec.Position,
			RawPayload:  datatypes.JSON(rec.Raw),
		},
	}
}

func (s *catalogService) toEntries(ctx context.Context, itemType model.ItemType, items []model.CatalogItem) []CatalogEntry {
	photos := s.photos.ResolveMany(ctx, itemType, items)

	entries := make([]CatalogEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, CatalogEntry{
			ID:          item.ID,
			Type:        itemType,
			Name:        item.Name,
			Price:       util.Money(item.Price),
			Discount:    util.Money(item.Discount),
			FinalPrice:  util.MoneyFirst(item.FinalPrice, item.Price),
			Description: item.Description,
			Photo:       photos[item.ID],
			Position:    item.Position,
		})
	}
	return entries
}

func (s *catalogService) publish(ctx context.Context, itemType model.ItemType, entries []CatalogEntry) {
	if s.shared == nil {
		return
	}
	if err := s.shared.SetJSON(ctx, sharedKey(itemType), entries, s.ttl); err != nil {
		logger.Warn("Shared catalog cache write failed", map[string]interface{}{
			"item_type": itemType,
			"error":     err.Error(),
		})
	}
}

// invalidate drops both cache tiers of itemType.
func (s *catalogService) invalidate(ctx context.Context, itemType model.ItemType) {
	s.caches[itemType].Invalidate()
	if s.shared == nil {
		return
	}
	if err := s.shared.Delete(ctx, sharedKey(itemType)); err != nil {
		logger.Warn("Shared catalog cache delete failed", map[string]interface{}{
			"item_type": itemType,
			"error":     err.Error(),
		})
	}
}

func (s *catalogService) GetItemDetails(ctx context.Context, itemType model.ItemType, id uint) (*CatalogEntry, error) {
	if !itemType.Valid() {
		return nil, ErrInvalidItemType
	}

	item, err := s.catalogRepo.FindByID(itemType, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogItemNotFound
		}
		logger.Error("Failed to fetch catalog item details", err, map[string]interface{}{
			"item_type": itemType,
			"item_id":   id,
		})
		return nil, err
	}
	if !item.IsActive() {
		return nil, ErrCatalogItemNotFound
	}

	return &CatalogEntry{
		ID:          item.ID,
		Type:        itemType,
		Name:        item.Name,
		Price:       util.Money(item.Price),
		Discount:    util.Money(item.Discount),
		FinalPrice:  util.MoneyFirst(item.FinalPrice, item.Price),
		Description: item.Description,
		Photo:       s.photos.Resolve(ctx, itemType, item.Name, item.Photo),
		Position:    item.Position,
	}, nil
}

// SyncFromExport copies every configured export into the local tables and
// deactivates local items the export no longer lists. Deactivation only runs
// for a complete, non-empty batch. A type whose export fails is skipped; the
// first such error is returned after the others ran.
func (s *catalogService) SyncFromExport(ctx context.Context) ([]SyncResult, error) {
	var (
		results  []SyncResult
		firstErr error
	)

	for _, itemType := range []model.ItemType{model.ItemTypeService, model.ItemTypeMenu} {
		kind := exportKind(itemType)
		if s.exporter == nil || !s.exporter.Configured(kind) {
			continue
		}

		batch, err := s.exporter.Fetch(ctx, kind)
		if err != nil {
			logger.Warn("Catalog sync fetch failed", map[string]interface{}{
				"item_type": itemType,
				"error":     err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		items := make([]model.CatalogItem, 0, len(batch.Records))
		ids := make([]uint, 0, len(batch.Records))
		for _, rec := range batch.Records {
			items = append(items, recordToItem(itemType, rec))
			ids = append(ids, rec.ID)
		}

		if err := s.catalogRepo.Upsert(itemType, items); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		var deactivated int64
		if len(items) == 0 || batch.Dropped > 0 {
			logger.Warn("Incomplete catalog export, keeping unlisted local items", map[string]interface{}{
				"item_type": itemType,
				"received":  len(items),
				"dropped":   batch.Dropped,
			})
		} else {
			deactivated, err = s.catalogRepo.DeactivateMissing(itemType, ids)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}

		s.invalidate(ctx, itemType)
		results = append(results, SyncResult{
			Type:        itemType,
			Upserted:    len(items),
			Deactivated: deactivated,
			Dropped:     batch.Dropped,
		})

		logger.Info("Catalog synced from admin export", map[string]interface{}{
			"item_type":   itemType,
			"upserted":    len(items),
			"deactivated": deactivated,
			"dropped":     batch.Dropped,
		})
	}

	return results, firstErr
}
