package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const snapshotJSON = `{
  "week": {"id": 3, "year": 2025, "week_number": 3,
           "sales_forecast": {"2025-01-13": 500, "2025-01-14": 500},
           "consumption_data": {"PROD1": 100}},
  "products": [
    {"id": 1, "reference": "PROD1", "name": "Tomatoes"},
    {"id": 2, "reference": "PROD2", "name": "Retired", "is_hidden": true}
  ],
  "orders": [
    {"id": 21, "order_number": 1, "delivery_date": "2025-01-16"},
    {"id": 22, "order_number": 2, "delivery_date": "2025-01-18", "real_stock": {"1": 40, "2": null}}
  ],
  "previous_week": {"id": 2, "year": 2025, "week_number": 2,
                    "sales_forecast": {"2025-01-10": 100, "2025-01-11": 100, "2025-01-12": 100},
                    "consumption_data": {"PROD1": 100}},
  "previous_week_orders": [
    {"id": 12, "order_number": 2, "delivery_date": "2025-01-11", "ordered_quantities": {"1": 20}},
    {"id": 13, "order_number": 3, "delivery_date": "2025-01-14", "real_stock": {"1": 30}}
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(snapshotJSON), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestLoadSnapshotDropsHiddenProducts(t *testing.T) {
	snap, err := loadSnapshot(writeSnapshot(t))
	if err != nil {
		t.Fatalf("loadSnapshot returned error: %v", err)
	}
	if len(snap.Products) != 1 || snap.Products[0].Reference != "PROD1" {
		t.Errorf("Expected only PROD1, got %+v", snap.Products)
	}
	if _, ok := snap.Orders[1].RealStock.Get(2); ok {
		t.Error("Expected null stock to read as absent")
	}
}

func TestLoadSnapshotRequiresWeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte(`{"orders": []}`), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	if _, err := loadSnapshot(path); err == nil {
		t.Error("Expected an error for a snapshot without week")
	}
}

func TestComputeCommand(t *testing.T) {
	path := writeSnapshot(t)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "table",
			args: []string{"compute", "--snapshot", path},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "2025-W03 order 1, Thursday 2025-01-16") {
					t.Errorf("Missing order header in %s", out)
				}
				if !strings.Contains(out, "80.00") {
					t.Errorf("Expected a need of 80.00 in %s", out)
				}
			},
		},
		{
			name: "json single order",
			args: []string{"compute", "--snapshot", path, "--order", "2", "--format", "json"},
			check: func(t *testing.T, out string) {
				var plan struct {
					Orders []struct {
						OrderNumber int `json:"order_number"`
						Lines       []struct {
							StockSource string  `json:"stock_source"`
							Stock       float64 `json:"stock"`
						} `json:"lines"`
					} `json:"orders"`
				}
				if err := json.Unmarshal([]byte(out), &plan); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if len(plan.Orders) != 1 || plan.Orders[0].OrderNumber != 2 {
					t.Fatalf("Expected only order 2, got %+v", plan.Orders)
				}
				line := plan.Orders[0].Lines[0]
				if line.StockSource != "real" || line.Stock != 40 {
					t.Errorf("Expected real stock 40, got %s %v", line.StockSource, line.Stock)
				}
			},
		},
		{
			name: "csv",
			args: []string{"compute", "--snapshot", path, "--format", "csv"},
			check: func(t *testing.T, out string) {
				lines := strings.Split(strings.TrimSpace(out), "\n")
				if len(lines) != 3 {
					t.Errorf("Expected header and 2 rows, got %d", len(lines))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			app := newApp(nil)
			app.Writer = &out
			if err := app.Run(append([]string{"planner"}, tt.args...)); err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			tt.check(t, out.String())
		})
	}
}

func TestComputeUnknownOrder(t *testing.T) {
	app := newApp(nil)
	app.Writer = &bytes.Buffer{}
	if err := app.Run([]string{"planner", "compute", "--snapshot", writeSnapshot(t), "--order", "3"}); err == nil {
		t.Error("Expected an error for an order missing from the snapshot")
	}
}
