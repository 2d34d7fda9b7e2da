package domain

import "time"

// Stock sources reported on a need line.
const (
	StockSourceReal        = "real"
	StockSourceTheoretical = "theoretical"
	StockSourceComputed    = "computed"
)

// NeedLine is the computed need of one product for one order.
type NeedLine struct {
	ProductID        int64    `json:"product_id"`
	Reference        string   `json:"reference"`
	Name             string   `json:"name"`
	StockUnit        string   `json:"stock_unit"`
	CategoryID       *int64   `json:"category_id,omitempty"`
	StockSource      string   `json:"stock_source"`
	Stock            float64  `json:"stock"`
	TheoreticalStock float64  `json:"theoretical_stock"`
	UsedDefault      bool     `json:"used_default"`
	Consumption      float64  `json:"consumption"`
	PreviousOrdered  float64  `json:"previous_ordered"`
	Need             float64  `json:"need"`
	NeedPackages     float64  `json:"need_packages"`
	OrderedQuantity  *float64 `json:"ordered_quantity,omitempty"`
	OrderRequired    bool     `json:"order_required"`
}

// OrderPlan holds the need lines of one order.
type OrderPlan struct {
	OrderID         int64      `json:"order_id"`
	OrderNumber     int        `json:"order_number"`
	DeliveryDay     string     `json:"delivery_day"`
	DeliveryDate    Date       `json:"delivery_date"`
	StockTakingDate Date       `json:"stock_taking_date"`
	PeriodStart     Date       `json:"period_start"`
	PeriodEnd       Date       `json:"period_end"`
	Lines           []NeedLine `json:"lines"`
}

// WeekPlan is the computed plan for the three orders of a week.
type WeekPlan struct {
	Year        int         `json:"year"`
	WeekNumber  int         `json:"week_number"`
	HasNextWeek bool        `json:"has_next_week"`
	Orders      []OrderPlan `json:"orders"`
	ComputedAt  time.Time   `json:"computed_at"`
}
