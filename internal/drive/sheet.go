package drive

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/autoorder/internal/domain"
)

// SheetKind tells which table an import file feeds.
type SheetKind string

const (
	SheetForecast    SheetKind = "forecast"
	SheetConsumption SheetKind = "consumption"
	SheetProducts    SheetKind = "products"
)

var columnAliases = map[string]string{
	"date":             "date",
	"jour":             "date",
	"day":              "date",
	"forecast":         "forecast",
	"sales_forecast":   "forecast",
	"prevision":        "forecast",
	"reference":        "reference",
	"ref":              "reference",
	"ratio":            "ratio",
	"consumption":      "ratio",
	"consommation":     "ratio",
	"name":             "name",
	"nom":              "name",
	"category":         "category",
	"categorie":        "category",
	"stock_unit":       "stock_unit",
	"unite":            "stock_unit",
	"destination_code": "destination_code",
	"number_of_packs":  "number_of_packs",
	"units_per_pack":   "units_per_pack",
	"unit":             "unit",
}

// Sheet is a parsed import file.
type Sheet struct {
	Kind        SheetKind
	Forecast    domain.SalesForecast
	Consumption domain.ConsumptionRatios
	Products    []ProductRow
	Skipped     int
}

// ProductRow is one catalog line of a products sheet.
type ProductRow struct {
	Product  domain.Product
	Category string
}

func normalizeHeader(col string) string {
	col = strings.ToLower(strings.TrimSpace(col))
	col = strings.TrimPrefix(col, "\ufeff")
	col = strings.NewReplacer(" ", "_", "\u00e9", "e", "\u00e8", "e", "-", "_").Replace(col)
	if alias, ok := columnAliases[col]; ok {
		return alias
	}
	return col
}

// detectKind picks the sheet kind from its normalized header.
func detectKind(cols map[string]int) (SheetKind, error) {
	has := func(name string) bool {
		_, ok := cols[name]
		return ok
	}

	switch {
	case has("date") && has("forecast"):
		return SheetForecast, nil
	case has("reference") && has("ratio"):
		return SheetConsumption, nil
	case has("reference") && has("name"):
		return SheetProducts, nil
	default:
		return "", domain.ErrImportFileFormat
	}
}

// parseNumber accepts both "12.5" and "12,5".
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

// ParseSheet maps raw rows (header first) to forecast, consumption or
// product data. Rows with an unparseable key or value, and negative forecasts,
// are counted in Skipped.
func ParseSheet(records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrImportFileFormat)
	}

	cols := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		cols[normalizeHeader(col)] = i
	}

	kind, err := detectKind(cols)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Kind: kind}
	switch kind {
	case SheetForecast:
		sheet.Forecast = make(domain.SalesForecast)
	case SheetConsumption:
		sheet.Consumption = make(domain.ConsumptionRatios)
	}

	for _, record := range records[1:] {
		get := func(name string) string {
			if idx, ok := cols[name]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		if isBlank(record) {
			continue
		}

		switch kind {
		case SheetForecast:
			day, err := domain.ParseDate(get("date"))
			if err != nil {
				sheet.Skipped++
				continue
			}
			v, err := parseNumber(get("forecast"))
			if err != nil || v < 0 {
				sheet.Skipped++
				continue
			}
			sheet.Forecast[day.Key()] += v

		case SheetConsumption:
			ref := get("reference")
			v, err := parseNumber(get("ratio"))
			if ref == "" || err != nil {
				sheet.Skipped++
				continue
			}
			sheet.Consumption[ref] = v

		case SheetProducts:
			row, ok := parseProductRow(get)
			if !ok {
				sheet.Skipped++
				continue
			}
			sheet.Products = append(sheet.Products, row)
		}
	}

	return sheet, nil
}

func parseProductRow(get func(string) string) (ProductRow, bool) {
	ref, name := get("reference"), get("name")
	if ref == "" || name == "" {
		return ProductRow{}, false
	}

	row := ProductRow{
		Product: domain.Product{
			Reference:       ref,
			Name:            name,
			StockUnit:       get("stock_unit"),
			DestinationCode: get("destination_code"),
		},
		Category: get("category"),
	}

	packs, errPacks := strconv.Atoi(get("number_of_packs"))
	units, errUnits := strconv.Atoi(get("units_per_pack"))
	if errPacks == nil && errUnits == nil {
		conv := &domain.UnitConversion{NumberOfPacks: packs, UnitsPerPack: units, Unit: get("unit")}
		if conv.Valid() {
			row.Product.UnitConversion = conv
		}
	}

	return row, true
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
