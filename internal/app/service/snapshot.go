package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"github.com/shopspring/decimal"
)

const snapshotVersion = 1

var ErrUnsupportedSnapshot = errors.New("unsupported order snapshot")

// SnapshotLine is one order line as recorded at checkout.
type SnapshotLine struct {
	ItemType    model.ItemType  `json:"item_type"`
	ItemID      uint            `json:"item_id"`
	Name        string          `json:"name"`
	Photo       string          `json:"photo,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type orderSnapshot struct {
	Version int            `json:"v"`
	Lines   []SnapshotLine `json:"lines"`
}

// EncodeOrderSnapshot derives the denormalized snapshot from the persisted
// order rows. It has no side effects.
func EncodeOrderSnapshot(items []model.OrderItem) (string, error) {
	snap := orderSnapshot{Version: snapshotVersion, Lines: make([]SnapshotLine, 0, len(items))}
	for _, item := range items {
		snap.Lines = append(snap.Lines, SnapshotLine{
			ItemType:    item.ItemType,
			ItemID:      item.ItemID,
			Name:        item.ItemName,
			Photo:       item.ItemPhoto,
			Description: item.ItemDescription,
			Quantity:    item.Quantity,
			UnitPrice:   util.Money(item.Price),
			LineTotal:   util.Money(item.LineTotal),
		})
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode order snapshot: %w", err)
	}
	return string(b), nil
}

// DecodeOrderSnapshot parses a snapshot written by EncodeOrderSnapshot.
// Malformed or foreign input returns an error so callers can fall back to
// the normalized rows.
func DecodeOrderSnapshot(raw string) ([]SnapshotLine, error) {
	if raw == "" {
		return nil, nil
	}

	var snap orderSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode order snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSnapshot, snap.Version)
	}
	for i, line := range snap.Lines {
		if !line.ItemType.Valid() || line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d", ErrUnsupportedSnapshot, i)
		}
		snap.Lines[i].UnitPrice = line.UnitPrice.Round(util.MoneyPlaces)
		snap.Lines[i].LineTotal = line.LineTotal.Round(util.MoneyPlaces)
	}
	return snap.Lines, nil
}
