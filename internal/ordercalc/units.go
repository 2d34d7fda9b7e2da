package ordercalc

import (
	"math"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// ToUnits converts a quantity expressed in order packages into stock units.
// Products without a valid conversion are returned unchanged.
func ToUnits(valueInPackages float64, product domain.Product) float64 {
	if !product.UnitConversion.Valid() {
		return valueInPackages
	}
	return valueInPackages * float64(product.UnitConversion.Factor())
}

// ToPackages converts a quantity in stock units into order packages, rounded
// half-up to two decimals. Products without a valid conversion, and
// non-finite values, are returned unchanged.
func ToPackages(valueInUnits float64, product domain.Product) float64 {
	if !product.UnitConversion.Valid() || math.IsNaN(valueInUnits) || math.IsInf(valueInUnits, 0) {
		return valueInUnits
	}
	packages := decimal.NewFromFloat(valueInUnits).
		Div(decimal.NewFromInt(int64(product.UnitConversion.Factor())))
	return roundHalfUp(packages, 2).InexactFloat64()
}

// roundHalfUp rounds toward +Inf on ties: 1.005 -> 1.01, -1.005 -> -1.00.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}
