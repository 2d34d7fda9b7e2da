package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/ordercalc"
	"github.com/xuri/excelize/v2"
)

type fakeFiles struct {
	files    map[string]*File
	contents map[string][]byte
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: map[string]*File{}, contents: map[string][]byte{}}
}

func (f *fakeFiles) add(id, name string, data []byte) {
	f.files[id] = &File{ID: id, Name: name}
	f.contents[id] = data
}

func (f *fakeFiles) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	var out []*File
	for _, id := range []string{"a", "b", "c", "d"} {
		if file, ok := f.files[id]; ok {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeFiles) GetFile(ctx context.Context, fileID string) (*File, error) {
	file, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	return file, nil
}

func (f *fakeFiles) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	_, err := w.Write(f.contents[fileID])
	return err
}

type fakeWeeks struct {
	weeks       map[domain.WeekKey]*domain.WeekData
	forecast    map[int64]domain.SalesForecast
	consumption map[int64]domain.ConsumptionRatios
}

func newFakeWeeks() *fakeWeeks {
	return &fakeWeeks{
		weeks:       map[domain.WeekKey]*domain.WeekData{},
		forecast:    map[int64]domain.SalesForecast{},
		consumption: map[int64]domain.ConsumptionRatios{},
	}
}

func (w *fakeWeeks) CreateWeekData(ctx context.Context, year, week int) (*domain.WeekData, error) {
	key := domain.WeekKey{Year: year, Week: week}
	if existing, ok := w.weeks[key]; ok {
		return existing, nil
	}
	record := &domain.WeekData{ID: int64(len(w.weeks) + 1), Year: year, WeekNumber: week}
	w.weeks[key] = record
	return record, nil
}

func (w *fakeWeeks) UpsertSalesForecast(ctx context.Context, id int64, forecast domain.SalesForecast) error {
	w.forecast[id] = forecast
	return nil
}

func (w *fakeWeeks) UpsertConsumptionData(ctx context.Context, id int64, ratios domain.ConsumptionRatios) error {
	w.consumption[id] = ratios
	return nil
}

type fakeCatalog struct {
	categories map[string]int64
	products   []domain.Product
}

func (c *fakeCatalog) UpsertCategory(ctx context.Context, name string) (int64, error) {
	if c.categories == nil {
		c.categories = map[string]int64{}
	}
	if id, ok := c.categories[name]; ok {
		return id, nil
	}
	id := int64(len(c.categories) + 1)
	c.categories[name] = id
	return id, nil
}

func (c *fakeCatalog) UpsertProduct(ctx context.Context, product *domain.Product) (int64, error) {
	c.products = append(c.products, *product)
	return int64(len(c.products)), nil
}

func TestIngestForecastInfersWeek(t *testing.T) {
	files := newFakeFiles()
	files.add("a", "forecast.csv", []byte("Jour;Prévision\n2025-01-14;1 200,5\n2025-01-13;800\nbad;10\n\n"))
	weeks := newFakeWeeks()
	svc := NewIngestService(files, weeks, nil)

	result, err := svc.IngestFile(context.Background(), "a", domain.WeekKey{})
	if err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}

	if result.Kind != SheetForecast {
		t.Errorf("Expected forecast kind, got %s", result.Kind)
	}
	if result.Week != (domain.WeekKey{Year: 2025, Week: 3}) {
		t.Errorf("Expected 2025-W03, got %s", result.Week)
	}
	if result.Rows != 2 || result.Skipped != 1 {
		t.Errorf("Expected 2 rows and 1 skipped, got %d and %d", result.Rows, result.Skipped)
	}

	forecast := weeks.forecast[weeks.weeks[result.Week].ID]
	if forecast["2025-01-14"] != 1200.5 || forecast["2025-01-13"] != 800 {
		t.Errorf("Unexpected forecast %v", forecast)
	}
}

func TestIngestForecastSplitsWeeks(t *testing.T) {
	files := newFakeFiles()
	files.add("a", "w03.csv", []byte("date,forecast\n2025-01-13,100\n2025-01-20,100\n"))
	files.add("b", "w04.csv", []byte("date,forecast\n2025-01-20,100\n"))
	weeks := newFakeWeeks()
	svc := NewIngestService(files, weeks, nil)
	ctx := context.Background()

	w03 := domain.WeekKey{Year: 2025, Week: 3}
	w04 := domain.WeekKey{Year: 2025, Week: 4}

	result, err := svc.IngestFile(ctx, "a", domain.WeekKey{})
	if err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}
	if result.Week != w03 || len(result.Weeks) != 2 || result.Weeks[1] != w04 || result.Rows != 2 {
		t.Errorf("Unexpected result %+v", result)
	}
	if _, err := svc.IngestFile(ctx, "b", domain.WeekKey{}); err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}

	current := weeks.forecast[weeks.weeks[w03].ID]
	next := weeks.forecast[weeks.weeks[w04].ID]
	if len(current) != 1 || current["2025-01-13"] != 100 {
		t.Errorf("Expected W03 to hold only 2025-01-13, got %v", current)
	}
	if len(next) != 1 || next["2025-01-20"] != 100 {
		t.Errorf("Expected W04 to hold only 2025-01-20, got %v", next)
	}

	total := ordercalc.SumForecast(
		&domain.WeekData{SalesForecast: current},
		&domain.WeekData{SalesForecast: next},
		domain.MustParseDate("2025-01-13"), domain.MustParseDate("2025-01-20"),
	)
	if total != 200 {
		t.Errorf("Expected a forecast total of 200, got %v", total)
	}
}

func TestIngestForecastSkipsDaysOutsideTargetWeek(t *testing.T) {
	files := newFakeFiles()
	files.add("a", "forecast.csv", []byte("date,forecast\n2025-01-13,100\n2025-01-20,100\n2025-01-21,50\n"))
	weeks := newFakeWeeks()
	svc := NewIngestService(files, weeks, nil)

	w03 := domain.WeekKey{Year: 2025, Week: 3}
	result, err := svc.IngestFile(context.Background(), "a", w03)
	if err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}
	if result.Rows != 1 || result.Skipped != 2 {
		t.Errorf("Expected 1 row and 2 skipped, got %d and %d", result.Rows, result.Skipped)
	}
	if len(weeks.weeks) != 1 {
		t.Errorf("Expected only the target week to be written, got %d records", len(weeks.weeks))
	}

	files.add("b", "later.csv", []byte("date,forecast\n2025-01-20,100\n"))
	if _, err := svc.IngestFile(context.Background(), "b", w03); !errors.Is(err, domain.ErrInvalidWeek) {
		t.Errorf("Expected ErrInvalidWeek when no day falls in the target week, got %v", err)
	}
}

func TestIngestConsumptionNeedsWeek(t *testing.T) {
	files := newFakeFiles()
	files.add("b", "ratios.csv", []byte("reference,ratio\nPROD1,100\nPROD2,12.5\n"))
	weeks := newFakeWeeks()
	svc := NewIngestService(files, weeks, nil)

	if _, err := svc.IngestFile(context.Background(), "b", domain.WeekKey{}); !errors.Is(err, domain.ErrInvalidWeek) {
		t.Fatalf("Expected ErrInvalidWeek, got %v", err)
	}

	key := domain.WeekKey{Year: 2025, Week: 3}
	result, err := svc.IngestFile(context.Background(), "b", key)
	if err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}
	ratios := weeks.consumption[weeks.weeks[key].ID]
	if result.Rows != 2 || ratios["PROD1"] != 100 || ratios["PROD2"] != 12.5 {
		t.Errorf("Unexpected ratios %v", ratios)
	}
}

func TestIngestProductsFromXLSX(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]interface{}{
		{"Reference", "Name", "Category", "Number of packs", "Units per pack", "Unit"},
		{"PROD1", "Tomatoes", "Vegetables", 2, 6, "kg"},
		{"PROD2", "Basil", "Herbs", "", "", ""},
		{"PROD3", "Lettuce", "Vegetables", 1, 12, "piece"},
		{"", "Nameless", "", "", "", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow returned error: %v", err)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer returned error: %v", err)
	}

	files := newFakeFiles()
	files.add("c", "catalog.xlsx", buf.Bytes())
	catalog := &fakeCatalog{}
	svc := NewIngestService(files, newFakeWeeks(), catalog)

	result, err := svc.IngestFile(context.Background(), "c", domain.WeekKey{})
	if err != nil {
		t.Fatalf("IngestFile returned error: %v", err)
	}
	if result.Kind != SheetProducts || result.Rows != 3 || result.Skipped != 1 {
		t.Fatalf("Unexpected result %+v", result)
	}
	if len(catalog.categories) != 2 {
		t.Errorf("Expected 2 categories, got %v", catalog.categories)
	}

	tomatoes := catalog.products[0]
	if tomatoes.UnitConversion.Factor() != 12 || tomatoes.CategoryID == nil {
		t.Errorf("Unexpected product %+v", tomatoes)
	}
	if catalog.products[1].UnitConversion != nil {
		t.Errorf("Expected no conversion for basil, got %+v", catalog.products[1].UnitConversion)
	}
	if *catalog.products[0].CategoryID != *catalog.products[2].CategoryID {
		t.Error("Expected tomatoes and lettuce to share a category")
	}
}

func TestIngestFolderSkipsOtherFiles(t *testing.T) {
	files := newFakeFiles()
	files.add("a", "forecast.csv", []byte("date,forecast\n2025-01-13,100\n"))
	files.add("b", "notes.txt", []byte("hello"))
	files.add("d", "ratios.csv", []byte("reference,ratio\nPROD1,100\n"))
	weeks := newFakeWeeks()
	svc := NewIngestService(files, weeks, nil)

	results, err := svc.IngestFolder(context.Background(), "folder", domain.WeekKey{Year: 2025, Week: 3})
	if err != nil {
		t.Fatalf("IngestFolder returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if len(weeks.weeks) != 1 {
		t.Errorf("Expected a single week record, got %d", len(weeks.weeks))
	}
}

func TestParseSheetUnknownHeader(t *testing.T) {
	_, err := ParseSheet([][]string{{"foo", "bar"}, {"1", "2"}})
	if !errors.Is(err, domain.ErrImportFileFormat) {
		t.Errorf("Expected ErrImportFileFormat, got %v", err)
	}

	_, err = ParseSheet(nil)
	if !errors.Is(err, domain.ErrImportFileFormat) {
		t.Errorf("Expected ErrImportFileFormat for empty input, got %v", err)
	}
}

func TestParseSheetSkipsNegativeForecast(t *testing.T) {
	sheet, err := ParseSheet([][]string{
		{"date", "forecast"},
		{"2025-01-13", "100"},
		{"2025-01-14", "-5"},
		{"2025-01-15", "0"},
	})
	if err != nil {
		t.Fatalf("ParseSheet returned error: %v", err)
	}
	if sheet.Skipped != 1 || len(sheet.Forecast) != 2 {
		t.Errorf("Expected 2 days and 1 skipped, got %v and %d", sheet.Forecast, sheet.Skipped)
	}
	if _, ok := sheet.Forecast["2025-01-14"]; ok {
		t.Error("Expected the negative day to be dropped")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.5", 12.5, false},
		{"12,5", 12.5, false},
		{" 1 000 ", 1000, false},
		{"1,000.5", 0, true},
		{"NaN", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.in), func(t *testing.T) {
			got, err := parseNumber(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %v", tt.in, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Expected %v, got %v (%v)", tt.want, got, err)
			}
		})
	}
}
