package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/autoorder/internal/cache"
	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/internal/drive"
	"github.com/andresuchdata/autoorder/internal/repository"
	"github.com/andresuchdata/autoorder/internal/repository/postgres"
	"github.com/andresuchdata/autoorder/internal/service"
	"github.com/andresuchdata/autoorder/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// runMigrate applies every *.sql file of the migrations directory that is
// not yet recorded in schema_migrations, each in its own transaction.
func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	files, err := filepath.Glob(filepath.Join(c.String("migrations-dir"), "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, file := range files {
		version := filepath.Base(file)
		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		if err := applyMigration(ctx, db, file, version); err != nil {
			return err
		}
		applied++
		log.Info().Str("migration", version).Msg("applied migration")
	}

	log.Info().Int("applied", applied).Int("total", len(files)).Msg("migrations complete")
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, file, version string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}

	return tx.Commit()
}

// loadSnapshot reads a week snapshot from a JSON file and drops hidden
// products.
func loadSnapshot(path string) (*service.WeekSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap service.WeekSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Week == nil {
		return nil, fmt.Errorf("snapshot %s has no week", path)
	}
	snap.Products = service.FilterProducts(snap.Products, "", nil)
	return &snap, nil
}

func runCompute(c *cli.Context, workers int) error {
	snap, err := loadSnapshot(c.String("snapshot"))
	if err != nil {
		return err
	}

	plan, err := service.ComputeWeekPlan(c.Context, snap, workers)
	if err != nil {
		return err
	}

	if n := c.Int("order"); n != 0 {
		filtered := plan.Orders[:0]
		for _, order := range plan.Orders {
			if order.OrderNumber == n {
				filtered = append(filtered, order)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("order %d not found in snapshot", n)
		}
		plan.Orders = filtered
	}

	return writePlan(c.App.Writer, plan, c.String("format"))
}

func writePlan(w io.Writer, plan *domain.WeekPlan, format string) error {
	switch strings.ToLower(format) {
	case "csv":
		return service.WritePlanCSV(w, plan)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "table", "":
		return writePlanTable(w, plan)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writePlanTable(w io.Writer, plan *domain.WeekPlan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	week := domain.WeekKey{Year: plan.Year, Week: plan.WeekNumber}

	for _, order := range plan.Orders {
		fmt.Fprintf(tw, "%s order %d, %s %s, stock taken %s, period %s to %s\n",
			week, order.OrderNumber, order.DeliveryDay, order.DeliveryDate,
			order.StockTakingDate, order.PeriodStart, order.PeriodEnd)
		fmt.Fprintln(tw, "reference\tstock\tsource\tconsumption\tprevious\tneed\tpackages\t")
		for _, line := range order.Lines {
			source := line.StockSource
			if line.UsedDefault && source == domain.StockSourceComputed {
				source += "*"
			}
			fmt.Fprintf(tw, "%s\t%.2f\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
				line.Reference, line.Stock, source, line.Consumption,
				line.PreviousOrdered, line.Need, line.NeedPackages)
		}
		fmt.Fprintln(tw)
	}
	if !plan.HasNextWeek {
		fmt.Fprintln(tw, "next week has no forecast; periods crossing into it are partial")
	}

	return tw.Flush()
}

// withPlanner builds a PlanningService over the CLI connection.
func withPlanner(c *cli.Context, cfg *config.Config, run func(*cli.Context, *service.PlanningService) error) error {
	sqlDB, err := dbFrom(c)
	if err != nil {
		return err
	}
	db := postgres.Wrap(sqlx.NewDb(sqlDB, "pgx"), cfg.Database.MaxOpenConns)

	planCache, err := cache.NewWeekPlanCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("plan cache unavailable")
	}

	var objectStore storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(c.Context, storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return err
		}
		objectStore = client
	}

	planner := service.NewPlanningService(
		postgres.NewWeekRepository(db),
		postgres.NewOrderRepository(db),
		postgres.NewCatalogRepository(db),
		planCache,
		objectStore,
		service.PlanningOptions{Workers: cfg.Planner.Workers, ExportPrefix: cfg.Storage.Prefix},
	)
	return run(c, planner)
}

func runSnapshot(c *cli.Context, planner *service.PlanningService) error {
	week := weekFrom(c)
	result, err := planner.SnapshotTheoreticalStock(c.Context, week.Year, week.Week)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s: stored theoretical stock of %d products on %d orders\n",
		result.Week, result.Products, result.Orders)
	return nil
}

func runExport(c *cli.Context, planner *service.PlanningService) error {
	week := weekFrom(c)
	key, err := planner.ExportWeekPlan(c.Context, week.Year, week.Week)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "exported %s\n", key)
	return nil
}

func runImport(c *cli.Context, cfg *config.Config) error {
	sqlDB, err := dbFrom(c)
	if err != nil {
		return err
	}

	var week domain.WeekKey
	if c.IsSet("year") || c.IsSet("week") {
		week = weekFrom(c)
		if !week.Valid() {
			return fmt.Errorf("%w: %s", domain.ErrInvalidWeek, week)
		}
	}

	files, err := drive.NewServiceFromConfig(c.Context, cfg.Drive.CredentialsJSON, cfg.Drive.CredentialsFile)
	if err != nil {
		return err
	}

	db := postgres.Wrap(sqlx.NewDb(sqlDB, "pgx"), cfg.Database.MaxOpenConns)
	ingest := drive.NewIngestService(files, postgres.NewWeekRepository(db), repository.NewIngestRepository(sqlDB))

	var results []*drive.ImportResult
	switch {
	case c.String("file-id") != "":
		result, err := ingest.IngestFile(c.Context, c.String("file-id"), week)
		if err != nil {
			return err
		}
		results = append(results, result)
	case c.String("folder-id") != "":
		results, err = ingest.IngestFolder(c.Context, c.String("folder-id"), week)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("one of --file-id or --folder-id is required")
	}

	if planCache, err := cache.NewWeekPlanCache(cfg.Cache); err == nil {
		if err := planCache.InvalidateAll(c.Context); err != nil {
			log.Warn().Err(err).Msg("plan cache invalidation failed")
		}
	}

	for _, r := range results {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%d rows\t%d skipped\n", r.FileName, r.Kind, r.Week, r.Rows, r.Skipped)
	}
	return nil
}
