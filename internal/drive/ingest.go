package drive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/rs/zerolog/log"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WeekStore is the part of the week repository the importer writes to.
type WeekStore interface {
	CreateWeekData(ctx context.Context, year, week int) (*domain.WeekData, error)
	UpsertSalesForecast(ctx context.Context, weekDataID int64, forecast domain.SalesForecast) error
	UpsertConsumptionData(ctx context.Context, weekDataID int64, ratios domain.ConsumptionRatios) error
}

// CatalogWriter upserts catalog rows.
type CatalogWriter interface {
	UpsertCategory(ctx context.Context, name string) (int64, error)
	UpsertProduct(ctx context.Context, product *domain.Product) (int64, error)
}

// ImportResult summarizes one imported file.
type ImportResult struct {
	FileID   string           `json:"file_id"`
	FileName string           `json:"file_name"`
	Kind     SheetKind        `json:"kind"`
	Week     domain.WeekKey   `json:"week"`
	Weeks    []domain.WeekKey `json:"weeks,omitempty"`
	Rows     int              `json:"rows"`
	Skipped  int              `json:"skipped"`
}

type IngestService struct {
	files   FileSource
	weeks   WeekStore
	catalog CatalogWriter
}

func NewIngestService(files FileSource, weeks WeekStore, catalog CatalogWriter) *IngestService {
	return &IngestService{
		files:   files,
		weeks:   weeks,
		catalog: catalog,
	}
}

// IngestFile imports one CSV or XLSX file. Forecast rows are stored in the
// week record of their own ISO week; with an explicit week, rows dated
// outside it are skipped.
func (s *IngestService) IngestFile(ctx context.Context, fileID string, week domain.WeekKey) (*ImportResult, error) {
	meta, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	records, err := s.readRecords(ctx, meta)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", meta.Name, err)
	}

	sheet, err := ParseSheet(records)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", meta.Name, err)
	}

	result := &ImportResult{
		FileID:   meta.ID,
		FileName: meta.Name,
		Kind:     sheet.Kind,
		Skipped:  sheet.Skipped,
	}
	if err := s.apply(ctx, sheet, week, result); err != nil {
		return nil, fmt.Errorf("import %s: %w", meta.Name, err)
	}

	log.Info().
		Str("file", meta.Name).
		Str("kind", string(result.Kind)).
		Str("week", result.Week.String()).
		Int("rows", result.Rows).
		Int("skipped", result.Skipped).
		Msg("imported drive file")

	return result, nil
}

// IngestFolder imports every CSV and XLSX file of a folder, in name order.
func (s *IngestService) IngestFolder(ctx context.Context, folderID string, week domain.WeekKey) ([]*ImportResult, error) {
	files, err := s.files.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var results []*ImportResult
	for _, f := range files {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		if !isSpreadsheet(f) {
			continue
		}

		result, err := s.IngestFile(ctx, f.ID, week)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *IngestService) apply(ctx context.Context, sheet *Sheet, week domain.WeekKey, result *ImportResult) error {
	switch sheet.Kind {
	case SheetForecast:
		byWeek := splitForecastByWeek(sheet.Forecast, week, result)
		if len(byWeek) == 0 {
			return fmt.Errorf("%w: no forecast rows to import", domain.ErrInvalidWeek)
		}

		keys := make([]domain.WeekKey, 0, len(byWeek))
		for k := range byWeek {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Year != keys[j].Year {
				return keys[i].Year < keys[j].Year
			}
			return keys[i].Week < keys[j].Week
		})

		for _, k := range keys {
			record, err := s.weeks.CreateWeekData(ctx, k.Year, k.Week)
			if err != nil {
				return err
			}
			if err := s.weeks.UpsertSalesForecast(ctx, record.ID, byWeek[k]); err != nil {
				return err
			}
			result.Rows += len(byWeek[k])
		}
		result.Week, result.Weeks = keys[0], keys
		return nil

	case SheetConsumption:
		if !week.Valid() {
			return fmt.Errorf("%w: consumption files need a target week", domain.ErrInvalidWeek)
		}
		record, err := s.weeks.CreateWeekData(ctx, week.Year, week.Week)
		if err != nil {
			return err
		}
		result.Week, result.Rows = week, len(sheet.Consumption)
		return s.weeks.UpsertConsumptionData(ctx, record.ID, sheet.Consumption)

	case SheetProducts:
		if s.catalog == nil {
			return fmt.Errorf("catalog import is not available")
		}
		categories := make(map[string]int64)
		for i := range sheet.Products {
			row := &sheet.Products[i]
			if row.Category != "" {
				id, ok := categories[row.Category]
				if !ok {
					var err error
					if id, err = s.catalog.UpsertCategory(ctx, row.Category); err != nil {
						return err
					}
					categories[row.Category] = id
				}
				row.Product.CategoryID = &id
			}
			if _, err := s.catalog.UpsertProduct(ctx, &row.Product); err != nil {
				return err
			}
			result.Rows++
		}
		return nil

	default:
		return domain.ErrImportFileFormat
	}
}

func (s *IngestService) readRecords(ctx context.Context, meta *File) ([][]string, error) {
	pr, pw := io.Pipe()
	go func() {
		err := s.files.DownloadFile(ctx, meta.ID, pw)
		pw.CloseWithError(err)
	}()
	defer pr.Close()

	if isXLSX(meta) {
		return readXLSXRecords(pr)
	}
	return readCSVRecords(pr)
}

// readCSVRecords reads a comma or semicolon separated file, picking the
// separator that appears most in the header line.
func readCSVRecords(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		reader.Comma = ';'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

// splitForecastByWeek groups forecast days by ISO week so that no date is
// stored in two week records. Days outside target, when set, count as skipped.
func splitForecastByWeek(forecast domain.SalesForecast, target domain.WeekKey, result *ImportResult) map[domain.WeekKey]domain.SalesForecast {
	byWeek := make(map[domain.WeekKey]domain.SalesForecast)
	for key, v := range forecast {
		day, err := domain.ParseDate(key)
		if err != nil {
			result.Skipped++
			continue
		}
		week := day.ISOWeek()
		if target.Valid() && week != target {
			result.Skipped++
			continue
		}
		if byWeek[week] == nil {
			byWeek[week] = make(domain.SalesForecast)
		}
		byWeek[week][key] = v
	}
	return byWeek
}

func isXLSX(f *File) bool {
	return f.MimeType == xlsxMimeType || strings.EqualFold(filepath.Ext(f.Name), ".xlsx")
}

func isSpreadsheet(f *File) bool {
	if isXLSX(f) {
		return true
	}
	return f.MimeType == "text/csv" || strings.EqualFold(filepath.Ext(f.Name), ".csv")
}
