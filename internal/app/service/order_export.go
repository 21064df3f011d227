package service

import (
	"context"
	"fmt"

	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const orderExportSheet = "Orders"

var orderExportHeaders = []string{
	"Order ID", "Placed At", "Status", "Payment Mode", "Delivery Location",
	"Item", "Type", "Quantity", "Unit Price", "Line Total", "Order Total",
}

// ExportOrders writes the user's order history to a workbook, one row per
// reconstructed line. The caller owns the returned file.
func (s *orderService) ExportOrders(ctx context.Context, userID uint) (*excelize.File, error) {
	views, err := s.ListOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), orderExportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name export sheet: %w", err)
	}

	header := make([]interface{}, len(orderExportHeaders))
	for i, h := range orderExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(orderExportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	row := 2
	for _, view := range views {
		for _, line := range view.Lines {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{
				view.ID,
				view.CreatedAt.Format("2006-01-02 15:04"),
				string(view.Status),
				string(view.PaymentMode),
				view.DeliveryLocation,
				line.Name,
				string(line.ItemType),
				line.Quantity,
				line.UnitPrice.InexactFloat64(),
				line.LineTotal.InexactFloat64(),
				view.TotalAmount.InexactFloat64(),
			}
			if err := f.SetSheetRow(orderExportSheet, cell, &values); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write export row %d: %w", row, err)
			}
			row++
		}
	}

	logger.Info("Order history exported", map[string]interface{}{
		"user_id": userID,
		"orders":  len(views),
		"rows":    row - 2,
	})
	return f, nil
}
