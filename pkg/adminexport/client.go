// Package adminexport reads the catalog export published by the admin
// service. Each endpoint answers {"success": bool, "<kind>": [records]}.
package adminexport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindServices Kind = "services"
	KindMenu     Kind = "menu"
)

var (
	ErrNotConfigured = errors.New("admin export endpoint not configured")
	ErrUnsuccessful  = errors.New("admin export reported failure")
	ErrMissingList   = errors.New("admin export has no record list")
)

// Record is one catalog entry as published by the admin service.
type Record struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Price       decimal.NullDecimal `json:"price"`
	Discount    decimal.NullDecimal `json:"discount"`
	FinalPrice  decimal.NullDecimal `json:"final_price"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	Photo       string              `json:"photo"`
	Position    int                 `json:"position"`

	Raw json.RawMessage `json:"-"`
}

// Batch is one decoded export. Dropped counts records that failed to decode
// or lacked an id or a name.
type Batch struct {
	Records []Record
	Dropped int
}

type Client struct {
	http *resty.Client
	urls map[Kind]string
}

func NewClient(servicesURL, menuURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		urls: map[Kind]string{
			KindServices: strings.TrimSpace(servicesURL),
			KindMenu:     strings.TrimSpace(menuURL),
		},
	}
}

// Configured reports whether kind has an endpoint.
func (c *Client) Configured(kind Kind) bool {
	return c != nil && c.urls[kind] != ""
}

// Fetch downloads every record of kind. The record list must be present and
// be an array; records without an id or a name are dropped and counted.
func (c *Client) Fetch(ctx context.Context, kind Kind) (*Batch, error) {
	if !c.Configured(kind) {
		return nil, ErrNotConfigured
	}

	resp, err := c.http.R().SetContext(ctx).Get(c.urls[kind])
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s export: %w", kind, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s export returned status %d", kind, resp.StatusCode())
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s export: %w", kind, err)
	}

	var success bool
	if raw, ok := envelope["success"]; !ok || json.Unmarshal(raw, &success) != nil || !success {
		return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, kind)
	}

	raw, ok := envelope[string(kind)]
	if !ok || !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		return nil, fmt.Errorf("%w: %s", ErrMissingList, kind)
	}
	var rawRecords []json.RawMessage
	if err := json.Unmarshal(raw, &rawRecords); err != nil {
		return nil, fmt.Errorf("failed to decode %s records: %w", kind, err)
	}

	batch := &Batch{Records: make([]Record, 0, len(rawRecords))}
	for _, raw := range rawRecords {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil || rec.ID == 0 || strings.TrimSpace(rec.Name) == "" {
			batch.Dropped++
			continue
		}
		rec.Raw = raw
		batch.Records = append(batch.Records, rec)
	}
	return batch, nil
}
