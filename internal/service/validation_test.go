package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/andresuchdata/autoorder/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		value   *float64
		wantErr bool
	}{
		{"nil clears", nil, false},
		{"zero", ptr(0), false},
		{"integer", ptr(12), false},
		{"two decimals", ptr(1.25), false},
		{"three decimals", ptr(1.255), true},
		{"negative", ptr(-0.5), true},
		{"nan", ptr(math.NaN()), true},
		{"infinite", ptr(math.Inf(-1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuantity(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateQuantity() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidQuantity) {
				t.Errorf("Expected ErrInvalidQuantity, got %v", err)
			}
		})
	}
}

func TestValidateDeliveryDates(t *testing.T) {
	tests := []struct {
		name    string
		dates   []string
		wantErr bool
	}{
		{"usual schedule", []string{"2025-01-16", "2025-01-18", "2025-01-21"}, false},
		{"two dates", []string{"2025-01-16", "2025-01-18"}, true},
		{"out of order", []string{"2025-01-18", "2025-01-16", "2025-01-21"}, true},
		{"same day twice", []string{"2025-01-16", "2025-01-16", "2025-01-21"}, true},
		{"not a date", []string{"2025-01-16", "saturday", "2025-01-21"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, err := ValidateDeliveryDates(tt.dates)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDeliveryDates() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidDelivery) {
					t.Errorf("Expected ErrInvalidDelivery, got %v", err)
				}
				return
			}
			if len(dates) != 3 || dates[2].Key() != "2025-01-21" {
				t.Errorf("Unexpected dates %v", dates)
			}
		})
	}
}

func TestDefaultDeliveryDatesAcrossYear(t *testing.T) {
	dates := DefaultDeliveryDates(domain.WeekKey{Year: 2025, Week: 1})
	want := []string{"2025-01-02", "2025-01-04", "2025-01-07"}
	for i, d := range dates {
		if d.Key() != want[i] {
			t.Errorf("order %d: expected %s, got %s", i+1, want[i], d.Key())
		}
	}
}

func TestFilterProducts(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Reference: "TOM-01", Name: "Tomatoes"},
		{ID: 2, Reference: "CUC-01", Name: "Cucumbers"},
		{ID: 3, Reference: "TOM-02", Name: "Cherry tomatoes", IsHidden: true},
		{ID: 4, Reference: "BAS-01", Name: "Basil"},
	}

	tests := []struct {
		name   string
		search string
		hidden []int64
		want   []int64
	}{
		{"visible only", "", nil, []int64{1, 2, 4}},
		{"search by name ignores case", "TOMA", nil, []int64{1}},
		{"search by reference", "cuc-", nil, []int64{2}},
		{"hidden ids", "", []int64{2, 4}, []int64{1}},
		{"no match", "carrot", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterProducts(products, tt.search, tt.hidden)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d products, got %d", len(tt.want), len(got))
			}
			for i, p := range got {
				if p.ID != tt.want[i] {
					t.Errorf("position %d: expected product %d, got %d", i, tt.want[i], p.ID)
				}
			}
		})
	}
}

type categoryRepo struct {
	memoryStore
	categories []domain.Category
}

func (r *categoryRepo) GetCategories(ctx context.Context) ([]domain.Category, error) {
	return r.categories, nil
}

func TestListCategoriesDropsHiddenProducts(t *testing.T) {
	repo := &categoryRepo{categories: []domain.Category{
		{ID: 1, Name: "Vegetables", Products: []domain.Product{
			{ID: 1, Name: "Tomatoes"},
			{ID: 2, Name: "Retired", IsHidden: true},
		}},
	}}

	categories, err := NewCatalogService(repo).ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories returned error: %v", err)
	}
	if len(categories) != 1 || len(categories[0].Products) != 1 {
		t.Errorf("Unexpected categories %+v", categories)
	}

	empty, err := NewCatalogService(&categoryRepo{}).ListCategories(context.Background())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Expected an empty non-nil slice, got %v (%v)", empty, err)
	}
}
