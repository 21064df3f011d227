package service

import (
	"context"
	"strings"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/storage"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
)

const (
	ServicePlaceholderPhoto = "https://res.cloudinary.com/demo/image/upload/v1633427556/sample_service.jpg"
	MenuPlaceholderPhoto    = "https://res.cloudinary.com/demo/image/upload/v1633427556/sample_food.jpg"
)

// ImageSearcher is the read side of the image host.
type ImageSearcher interface {
	ListByFolder(ctx context.Context, folder string) ([]storage.ImageObject, error)
	SearchByNamePrefix(ctx context.Context, folder, query string) ([]storage.ImageObject, error)
}

// PhotoResolver picks a displayable photo URL for a catalog item. It never
// fails: any image host problem degrades to the per-type placeholder.
type PhotoResolver struct {
	host    ImageSearcher
	folders map[model.ItemType]string
	timeout time.Duration
}

// NewPhotoResolver returns a resolver. host may be nil, in which case only
// absolute photo URLs and placeholders are used.
func NewPhotoResolver(host ImageSearcher, servicesFolder, menuFolder string, timeout time.Duration) *PhotoResolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PhotoResolver{
		host: host,
		folders: map[model.ItemType]string{
			model.ItemTypeService: servicesFolder,
			model.ItemTypeMenu:    menuFolder,
		},
		timeout: timeout,
	}
}

// Placeholder returns the fixed fallback photo for itemType.
func Placeholder(itemType model.ItemType) string {
	if itemType == model.ItemTypeMenu {
		return MenuPlaceholderPhoto
	}
	return ServicePlaceholderPhoto
}

func isAbsoluteURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Resolve returns photo if it is an absolute URL, otherwise the best image
// host match for name, otherwise the placeholder.
func (r *PhotoResolver) Resolve(ctx context.Context, itemType model.ItemType, name, photo string) string {
	if isAbsoluteURL(photo) {
		return strings.TrimSpace(photo)
	}
	if r == nil || r.host == nil || strings.TrimSpace(name) == "" {
		return Placeholder(itemType)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	matches, err := r.host.SearchByNamePrefix(lookupCtx, r.folders[itemType], name)
	if err != nil {
		logger.Warn("Photo lookup failed, using placeholder", map[string]interface{}{
			"item_type": itemType,
			"name":      name,
			"error":     err.Error(),
		})
		return Placeholder(itemType)
	}
	if len(matches) == 0 || matches[0].URL == "" {
		return Placeholder(itemType)
	}
	return matches[0].URL
}

// ResolveMany resolves photos for a batch of items of one type, listing the
// image folder at most once. The result is keyed by item ID.
func (r *PhotoResolver) ResolveMany(ctx context.Context, itemType model.ItemType, items []model.CatalogItem) map[uint]string {
	photos := make(map[uint]string, len(items))

	var pending []model.CatalogItem
	for _, item := range items {
		if isAbsoluteURL(item.Photo) {
			photos[item.ID] = strings.TrimSpace(item.Photo)
			continue
		}
		pending = append(pending, item)
	}
	if len(pending) == 0 {
		return photos
	}

	var objects []storage.ImageObject
	if r != nil && r.host != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		var err error
		objects, err = r.host.ListByFolder(lookupCtx, r.folders[itemType])
		if err != nil {
			logger.Warn("Photo folder listing failed, using placeholders", map[string]interface{}{
				"item_type": itemType,
				"count":     len(pending),
				"error":     err.Error(),
			})
			objects = nil
		}
	}

	for _, item := range pending {
		photos[item.ID] = Placeholder(itemType)
		if matches := storage.FilterByNamePrefix(objects, item.Name); len(matches) > 0 && matches[0].URL != "" {
			photos[item.ID] = matches[0].URL
		}
	}
	return photos
}
