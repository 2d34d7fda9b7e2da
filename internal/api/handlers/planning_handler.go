package handlers

import (
	"context"
	"net/http"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/service"
	"github.com/andresuchdata/autoorder/internal/storage"
	"github.com/gin-gonic/gin"
)

// Planner is the part of service.PlanningService the handlers use.
type Planner interface {
	GetWeekPlan(ctx context.Context, year, week int) (*domain.WeekPlan, error)
	CreateWeek(ctx context.Context, year, week int, deliveryDates []string) ([]domain.Order, error)
	UpdateOrderStock(ctx context.Context, orderID, productID int64, value *float64) error
	UpdateOrderQuantity(ctx context.Context, orderID, productID int64, value *float64) error
	SnapshotTheoreticalStock(ctx context.Context, year, week int) (*service.SnapshotResult, error)
	ExportWeekPlan(ctx context.Context, year, week int) (string, error)
	ListExports(ctx context.Context) ([]storage.ObjectInfo, error)
}

type PlanningHandler struct {
	planner Planner
}

func NewPlanningHandler(planner Planner) *PlanningHandler {
	return &PlanningHandler{planner: planner}
}

type createWeekRequest struct {
	DeliveryDates []string `json:"delivery_dates"`
}

// valueRequest carries a single editable cell. A null value clears it.
type valueRequest struct {
	Value *float64 `json:"value"`
}

// GetPlan returns the computed plan of a week
func (h *PlanningHandler) GetPlan(c *gin.Context) {
	year, week, ok := parseWeekParams(c)
	if !ok {
		return
	}

	plan, err := h.planner.GetWeekPlan(c.Request.Context(), year, week)
	if err != nil {
		respondError(c, err, "failed to compute week plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// CreateWeek creates a week and its three orders. The body is optional.
func (h *PlanningHandler) CreateWeek(c *gin.Context) {
	year, week, ok := parseWeekParams(c)
	if !ok {
		return
	}

	var req createWeekRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body", err.Error())
			return
		}
	}

	orders, err := h.planner.CreateWeek(c.Request.Context(), year, week, req.DeliveryDates)
	if err != nil {
		respondError(c, err, "failed to create week")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"year":        year,
		"week_number": week,
		"orders":      orders,
	})
}

// UpdateStock sets or clears the real stock of a product on an order
func (h *PlanningHandler) UpdateStock(c *gin.Context) {
	h.updateValue(c, h.planner.UpdateOrderStock, "failed to update stock")
}

// UpdateQuantity sets or clears the ordered quantity of a product on an order
func (h *PlanningHandler) UpdateQuantity(c *gin.Context) {
	h.updateValue(c, h.planner.UpdateOrderQuantity, "failed to update ordered quantity")
}

func (h *PlanningHandler) updateValue(c *gin.Context, update func(context.Context, int64, int64, *float64) error, message string) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}

	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}

	if err := update(c.Request.Context(), orderID, productID, req.Value); err != nil {
		respondError(c, err, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":   orderID,
		"product_id": productID,
		"value":      req.Value,
	})
}

// Snapshot stores the carried-forward theoretical stock of the week's orders
func (h *PlanningHandler) Snapshot(c *gin.Context) {
	year, week, ok := parseWeekParams(c)
	if !ok {
		return
	}

	result, err := h.planner.SnapshotTheoreticalStock(c.Request.Context(), year, week)
	if err != nil {
		respondError(c, err, "failed to snapshot theoretical stock")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export uploads the week plan as CSV to object storage
func (h *PlanningHandler) Export(c *gin.Context) {
	year, week, ok := parseWeekParams(c)
	if !ok {
		return
	}

	key, err := h.planner.ExportWeekPlan(c.Request.Context(), year, week)
	if err != nil {
		respondError(c, err, "failed to export week plan")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (h *PlanningHandler) ListExports(c *gin.Context) {
	objects, err := h.planner.ListExports(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list exports")
		return
	}
	if objects == nil {
		objects = make([]storage.ObjectInfo, 0)
	}

	c.JSON(http.StatusOK, objects)
}
