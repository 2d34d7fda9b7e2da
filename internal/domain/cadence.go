package domain

import "strings"

var orderDayLabels = map[int]string{
	1: "Thursday",
	2: "Saturday",
	3: "Tuesday",
}

var orderDayNumbers = map[string]int{
	"thursday": 1,
	"saturday": 2,
	"tuesday":  3,
}

// OrderDayLabel returns the delivery day label of an order position.
func OrderDayLabel(orderNumber int) string {
	if label, ok := orderDayLabels[orderNumber]; ok {
		return label
	}

	return "Unknown"
}

// ParseOrderDay returns the order position for a delivery day label (case-insensitive).
func ParseOrderDay(label string) (int, bool) {
	n, ok := orderDayNumbers[strings.ToLower(strings.TrimSpace(label))]

	return n, ok
}
