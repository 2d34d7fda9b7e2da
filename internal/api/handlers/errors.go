package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ordercalc"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWeekNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidWeek),
		errors.Is(err, domain.ErrInvalidDelivery),
		errors.Is(err, domain.ErrImportFileFormat):
		return http.StatusBadRequest
	case errors.Is(err, ordercalc.ErrInvalidOrderNumber):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error", "details"}. Internal errors keep their
// details out of the body.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	_ = c.Error(err)

	body := gin.H{"error": message}
	if status != http.StatusInternalServerError {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message, details string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "details": details})
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name, c.Param(name))
		return 0, false
	}
	return id, true
}

// parseWeekParams reads :year and :week. Range checks are left to the
// service.
func parseWeekParams(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, "invalid year", c.Param("year"))
		return 0, 0, false
	}
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		badRequest(c, "invalid week", c.Param("week"))
		return 0, 0, false
	}
	return year, week, true
}

// parseIDList accepts repeated and comma-separated values.
func parseIDList(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
