package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// ProductQuantities is a sparse productID -> quantity mapping. Product ids are
// assigned externally and are not contiguous, so absent keys mean "no value".
type ProductQuantities map[int64]float64

// Get returns the quantity for productID and whether it is present.
func (q ProductQuantities) Get(productID int64) (float64, bool) {
	if q == nil {
		return 0, false
	}
	v, ok := q[productID]
	return v, ok
}

// MarshalJSON encodes the map as a JSON object keyed by decimal product id.
func (q ProductQuantities) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(q))
	for id, v := range q {
		out[strconv.FormatInt(id, 10)] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON drops null values so that they read as absent.
func (q *ProductQuantities) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = nil
		return nil
	}
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ProductQuantities, len(raw))
	for key, v := range raw {
		if v == nil {
			continue
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q: %w", key, err)
		}
		out[id] = *v
	}
	*q = out
	return nil
}

func (q *ProductQuantities) Scan(src interface{}) error {
	return scanJSONB(src, q)
}

func (q ProductQuantities) Value() (driver.Value, error) {
	if q == nil {
		return "{}", nil
	}
	return jsonValue(q)
}

// SalesForecast maps an ISO date to the forecast sales count of that day.
type SalesForecast map[string]float64

func (f *SalesForecast) Scan(src interface{}) error {
	return scanJSONB(src, f)
}

func (f SalesForecast) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	return jsonValue(f)
}

// ConsumptionRatios maps a product reference to its consumption per 1000
// forecast sales.
type ConsumptionRatios map[string]float64

func (c *ConsumptionRatios) Scan(src interface{}) error {
	return scanJSONB(src, c)
}

func (c ConsumptionRatios) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return jsonValue(c)
}

func (u *UnitConversion) Scan(src interface{}) error {
	return scanJSONB(src, u)
}

func (u UnitConversion) Value() (driver.Value, error) {
	return jsonValue(u)
}

// jsonValue encodes v as text; lib/pq sends []byte parameters as bytea,
// which does not cast to jsonb.
func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func scanJSONB(src interface{}, dest interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dest)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode jsonb into %T: %w", dest, err)
	}
	return nil
}
