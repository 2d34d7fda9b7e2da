package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/andresuchdata/autoorder/internal/domain"
)

var planCSVHeader = []string{
	"order_number",
	"delivery_day",
	"delivery_date",
	"product_id",
	"reference",
	"name",
	"stock_unit",
	"stock_source",
	"stock",
	"consumption",
	"need_units",
	"need_packages",
	"ordered_quantity",
	"order_required",
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WritePlanCSV writes one row per order and product.
func WritePlanCSV(w io.Writer, plan *domain.WeekPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(planCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, order := range plan.Orders {
		for _, line := range order.Lines {
			ordered := ""
			if line.OrderedQuantity != nil {
				ordered = formatAmount(*line.OrderedQuantity)
			}

			record := []string{
				strconv.Itoa(order.OrderNumber),
				order.DeliveryDay,
				order.DeliveryDate.Key(),
				strconv.FormatInt(line.ProductID, 10),
				line.Reference,
				line.Name,
				line.StockUnit,
				line.StockSource,
				formatAmount(line.Stock),
				formatAmount(line.Consumption),
				formatAmount(line.Need),
				formatAmount(line.NeedPackages),
				ordered,
				strconv.FormatBool(line.OrderRequired),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
