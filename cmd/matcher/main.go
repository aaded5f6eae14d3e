package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vacancy-codes/internal/config"
	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/logging"
	"github.com/vacancy-codes/internal/store"
)

var (
	configFile string
	localDebug bool
	logCfg     logging.Config

	// set in the root PersistentPreRunE
	logger   *zap.Logger
	flushLog = func() {}
	matching *config.Matching
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "matcher",
		Short: "Vacancy area and occupation code matcher",
		Long: `Downloads vacancies, resolves their addresses to MRIGO area codes and their
job titles to OKPDTR occupation codes, and reconciles them into the database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(); err != nil {
				return err
			}
			var err error
			if logger, flushLog, err = logging.Setup(logCfg); err != nil {
				return err
			}
			matching, err = config.LoadMatching(configFile)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			flushLog()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "matching config file (YAML)")
	flags.BoolVar(&localDebug, "debug", false, "verbose debug output")
	flags.StringVar(&logCfg.Level, "log-level", config.GetEnv("LOG_LEVEL", "info"), "log level")
	flags.StringVar(&logCfg.Format, "log-format", config.GetEnv("LOG_FORMAT", "console"), "log format: console or json")

	// Add subcommands
	rootCmd.AddCommand(createRunCmd())
	rootCmd.AddCommand(createMatchCmd())
	rootCmd.AddCommand(createCatalogCmd())
	rootCmd.AddCommand(createMigrateCmd())
	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createParseAddressCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// openStore connects to the configured database
func openStore(ctx context.Context) (*db.Connection, *store.Store, error) {
	dbCfg := config.LoadDatabase()
	conn, err := db.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(conn, store.Options{
		AreaQuery:       dbCfg.AreaQuery,
		OccupationQuery: dbCfg.OccupationQuery,
	})
	return conn, st, nil
}

// createMigrateCmd creates the schema
func createMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := st.Migrate(cmd.Context(), localDebug); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			fmt.Printf("Database connection successful (%s)\n", conn.Driver)

			// Show some basic info
			for _, table := range []string{"mrigo", "okpdtr", "companies", "vacancies", "runs"} {
				var count int
				if err := conn.DB.QueryRowContext(cmd.Context(), "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
					logger.Warn("count failed", zap.String("table", table), zap.Error(err))
					continue
				}
				fmt.Printf("  %-10s %d\n", table, count)
			}
			return nil
		},
	}
}
