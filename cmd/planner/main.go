package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/andresuchdata/autoorder/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func weekFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "year", Usage: "ISO year", Required: true},
		&cli.IntFlag{Name: "week", Usage: "ISO week number", Required: true},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func weekFrom(c *cli.Context) domain.WeekKey {
	return domain.WeekKey{Year: c.Int("year"), Week: c.Int("week")}
}

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger.Configure(cfg.Log.Format, cfg.Log.Level)

	if err := newApp(cfg).Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("planner failed")
	}
}

func newApp(cfg *config.Config) *cli.App {
	if cfg == nil {
		cfg = &config.Config{}
	}

	return &cli.App{
		Name:  "planner",
		Usage: "Compute and maintain weekly order needs",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Apply SQL migrations in lexical order",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "migrations-dir",
						Usage:   "Directory containing *.sql migrations",
						Value:   "./scripts/migrations",
						EnvVars: []string{"MIGRATIONS_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "compute",
				Usage: "Compute a week plan from a JSON snapshot, without a database",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "snapshot", Usage: "Path to the JSON snapshot", Required: true},
					&cli.IntFlag{Name: "order", Usage: "Only print this order (1-3)"},
					&cli.StringFlag{Name: "format", Usage: "table, csv or json", Value: "table"},
				},
				Action: func(c *cli.Context) error {
					return runCompute(c, cfg.Planner.Workers)
				},
			},
			{
				Name:   "snapshot",
				Usage:  "Store the carried-forward theoretical stock of a week",
				Flags:  append(weekFlags(), newDBURLFlag()),
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return withPlanner(c, cfg, runSnapshot)
				},
			},
			{
				Name:  "import",
				Usage: "Import forecast, consumption or product sheets from Google Drive",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{Name: "year", Usage: "ISO year the sheets belong to"},
					&cli.IntFlag{Name: "week", Usage: "ISO week the sheets belong to"},
					&cli.StringFlag{Name: "file-id", Usage: "Drive file to import"},
					&cli.StringFlag{Name: "folder-id", Usage: "Drive folder to import", Value: cfg.Drive.FolderID},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return runImport(c, cfg)
				},
			},
			{
				Name:   "export",
				Usage:  "Upload the plan CSV of a week to object storage",
				Flags:  append(weekFlags(), newDBURLFlag()),
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return withPlanner(c, cfg, runExport)
				},
			},
		},
	}
}
