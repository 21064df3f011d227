package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/bitemebuddy/bitemebuddy-backend/config"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names mirror the catalog tables.
var sheets = []model.ItemType{model.ItemTypeService, model.ItemTypeMenu}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	catalog, err := readCatalogFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	for _, itemType := range sheets {
		fmt.Printf("%s items to import: %d\n", itemType, len(catalog[itemType]))
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	catalogRepo := repository.NewCatalogRepository(db.GetDB())
	for _, itemType := range sheets {
		if err := catalogRepo.Upsert(itemType, catalog[itemType]); err != nil {
			log.Fatalf("Failed to import %s items: %v", itemType, err)
		}
	}

	fmt.Println("Import completed successfully!")
}

func readCatalogFromXLSX(filePath string) (map[model.ItemType][]model.CatalogItem, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	return readCatalog(f)
}

func readCatalog(f *excelize.File) (map[model.ItemType][]model.CatalogItem, error) {
	catalog := make(map[model.ItemType][]model.CatalogItem, len(sheets))
	found := false
	for _, itemType := range sheets {
		idx, err := f.GetSheetIndex(itemType.Table())
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			continue
		}
		found = true

		rows, err := f.GetRows(itemType.Table())
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", itemType.Table(), err)
		}
		items, err := parseRows(itemType, rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", itemType.Table(), err)
		}
		catalog[itemType] = items
	}

	if !found {
		return nil, fmt.Errorf("no %q or %q sheet found in XLSX file", model.ItemTypeService.Table(), model.ItemTypeMenu.Table())
	}
	return catalog, nil
}

// parseRows turns a header row plus data rows into catalog items. Columns are
// matched by header name, so their order in the sheet does not matter.
func parseRows(itemType model.ItemType, rows [][]string) ([]model.CatalogItem, error) {
	if len(rows) < 2 {
		return []model.CatalogItem{}, nil
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("missing %q column", "name")
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := make([]model.CatalogItem, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		name := cell(row, "name")
		if name == "" {
			continue
		}

		item := model.CatalogItem{
			Type: itemType,
			CatalogFields: model.CatalogFields{
				Name:        name,
				Description: cell(row, "description"),
				Photo:       cell(row, "photo"),
				Status:      model.CatalogStatusActive,
			},
		}

		if v := cell(row, "id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid id %q", line, v)
			}
			item.ID = uint(id)
		}
		if v := cell(row, "position"); v != "" {
			pos, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid position %q", line, v)
			}
			item.Position = pos
		}
		if v := strings.ToLower(cell(row, "status")); v != "" {
			item.Status = model.CatalogStatus(v)
		}

		var err error
		if item.Price, err = parseAmount(cell(row, "price")); err != nil {
			return nil, fmt.Errorf("row %d: price: %w", line, err)
		}
		if item.Discount, err = parseAmount(cell(row, "discount")); err != nil {
			return nil, fmt.Errorf("row %d: discount: %w", line, err)
		}
		if item.FinalPrice, err = parseAmount(cell(row, "final_price")); err != nil {
			return nil, fmt.Errorf("row %d: final_price: %w", line, err)
		}
		if !item.FinalPrice.Valid && item.Price.Valid {
			final := item.Price.Decimal
			if item.Discount.Valid {
				final = final.Sub(item.Discount.Decimal)
			}
			item.FinalPrice = decimal.NewNullDecimal(final)
		}

		items = append(items, item)
	}
	return items, nil
}

func parseAmount(v string) (decimal.NullDecimal, error) {
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q", v)
	}
	return decimal.NewNullDecimal(d), nil
}
