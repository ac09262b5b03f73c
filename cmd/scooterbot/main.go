// Package main implements scooterbot, the Telegram scooter-intake bot with
// its ops/admin HTTP API, scheduled shift reports and offline export tools.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/scooter-intake/internal/config"
	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/observability"
	"github.com/tbourn/scooter-intake/internal/repo"
	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/shift"
	"github.com/tbourn/scooter-intake/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// envFile is the optional dotenv file loaded before the environment is read.
var envFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scooterbot",
	Short: "Scooter intake bot and reporting tools",
	Long: `scooterbot records scooters accepted by field operators from Telegram
messages and produces shift statistics, spreadsheets and period reports.

Configuration comes from the environment, optionally seeded from a .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !(errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("env-file")) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load (missing default is ignored)")
	rootCmd.AddCommand(serveCmd, migrateCmd, exportCmd, reportCmd)
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg     config.Config
	db      *gorm.DB
	intake  *services.IntakeService
	reports *services.ReportService
}

// bootstrap loads configuration, sets up logging, opens and migrates the
// database and builds the services.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, nil)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	if err := observability.InstrumentDB(db, "sqlite"); err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	extra, err := config.LoadAliases(cfg.AliasesFile)
	if err != nil {
		return nil, err
	}
	reg, err := intake.NewRegistry(extra)
	if err != nil {
		return nil, fmt.Errorf("aliases: %w", err)
	}
	engine := intake.NewEngine(reg,
		intake.WithMaxBulk(cfg.BulkMax),
		intake.WithLocation(cfg.Location),
	)

	in := services.NewIntakeService(db, engine)
	in.DedupTTL = cfg.Bot.DedupTTL
	rep := services.NewReportService(db, shift.NewCalculator(cfg.Location))
	rep.ChunkLimit = cfg.ChunkLimit

	log.Debug().
		Str("db", cfg.DBPath).
		Str("tz", cfg.Timezone).
		Int("aliases", len(reg.Aliases())).
		Msg("bootstrap complete")
	return &app{cfg: cfg, db: db, intake: in, reports: rep}, nil
}

// close releases the database handle.
func (a *app) close() {
	if err := repo.Close(a.db); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}

// now is the current time in the configured timezone.
func (a *app) now() time.Time { return time.Now().In(a.cfg.Location) }
