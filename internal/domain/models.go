// internal/domain/models.go
package domain

// UnitConversion describes how many stock units one order package holds.
type UnitConversion struct {
	NumberOfPacks int    `json:"number_of_packs"`
	UnitsPerPack  int    `json:"units_per_pack"`
	Unit          string `json:"unit"`
}

// Valid reports whether both factors are set. An invalid conversion is a no-op.
func (u *UnitConversion) Valid() bool {
	return u != nil && u.NumberOfPacks > 0 && u.UnitsPerPack > 0
}

// Factor returns the number of stock units in one package, or 1 when the
// conversion is not valid.
func (u *UnitConversion) Factor() int {
	if !u.Valid() {
		return 1
	}
	return u.NumberOfPacks * u.UnitsPerPack
}

// Product represents a stocked product
type Product struct {
	ID              int64           `json:"id" db:"id"`
	Reference       string          `json:"reference" db:"reference"`
	Name            string          `json:"name" db:"name"`
	StockUnit       string          `json:"stock_unit" db:"stock_unit"`
	DestinationCode string          `json:"destination_code" db:"destination_code"`
	IsHidden        bool            `json:"is_hidden" db:"is_hidden"`
	CategoryID      *int64          `json:"category_id,omitempty" db:"category_id"`
	UnitConversion  *UnitConversion `json:"unit_conversion,omitempty" db:"unit_conversion"`
}

// Category groups products for display
type Category struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Products []Product `json:"products,omitempty" db:"-"`
}

// WeekData holds the forecast and consumption ratios of one calendar week.
type WeekData struct {
	ID              int64             `json:"id" db:"id"`
	Year            int               `json:"year" db:"year"`
	WeekNumber      int               `json:"week_number" db:"week_number"`
	SalesForecast   SalesForecast     `json:"sales_forecast,omitempty" db:"sales_forecast"`
	ConsumptionData ConsumptionRatios `json:"consumption_data,omitempty" db:"consumption_data"`
}

// Key returns the (year, week) identity of the record.
func (w *WeekData) Key() WeekKey {
	return WeekKey{Year: w.Year, Week: w.WeekNumber}
}

// Order is one of the three scheduled replenishments of a week.
type Order struct {
	ID                int64             `json:"id" db:"id"`
	WeekDataID        int64             `json:"week_data_id" db:"week_data_id"`
	OrderNumber       int               `json:"order_number" db:"order_number"`
	DeliveryDate      Date              `json:"delivery_date" db:"delivery_date"`
	RealStock         ProductQuantities `json:"real_stock,omitempty" db:"real_stock"`
	TheoreticalStock  ProductQuantities `json:"theoretical_stock,omitempty" db:"theoretical_stock"`
	OrderedQuantities ProductQuantities `json:"ordered_quantities,omitempty" db:"ordered_quantities"`
	WeekData          *WeekData         `json:"week_data,omitempty" db:"-"`
}
