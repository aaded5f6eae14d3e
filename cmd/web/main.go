package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vacancy-codes/internal/audit"
	"github.com/vacancy-codes/internal/config"
	"github.com/vacancy-codes/internal/db"
	"github.com/vacancy-codes/internal/etl"
	"github.com/vacancy-codes/internal/logging"
	"github.com/vacancy-codes/internal/store"
	"github.com/vacancy-codes/internal/web"
)

func main() {
	configFile := flag.String("config", "", "matching config file (YAML)")
	flag.Parse()

	// Load environment configuration
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	logger, flush, err := logging.Setup(logging.Config{
		Format: config.GetEnv("LOG_FORMAT", "json"),
		Level:  config.GetEnv("LOG_LEVEL", "info"),
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer flush()

	if err := run(logger, *configFile); err != nil {
		logger.Error("server stopped", zap.Error(err))
		flush()
		os.Exit(1)
	}
}

func run(logger *zap.Logger, configFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("=== Vacancy Code Matcher Web Interface ===")

	matching, err := config.LoadMatching(configFile)
	if err != nil {
		return err
	}

	dbCfg := config.LoadDatabase()
	conn, err := db.NewConnection(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Printf("Database: %s connected\n", conn.Driver)

	st := store.New(conn, store.Options{
		AreaQuery:       dbCfg.AreaQuery,
		OccupationQuery: dbCfg.OccupationQuery,
	})

	// Catalogs are loaded once; restart the server after replacing them
	areas, occupations, err := etl.LoadMatchers(ctx, st, matching)
	if err != nil {
		return err
	}
	fmt.Printf("Catalogs: %d areas, %d occupations\n", areas.Catalog().Len(), occupations.Catalog().Len())

	webConfig := web.LoadConfig()
	server, err := web.NewServer(webConfig, web.Deps{
		DB:          conn.DB,
		Areas:       areas,
		Occupations: occupations,
		Vacancies:   st,
		Runs:        audit.NewTracker(conn),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nStarting web server on http://%s:%d\n", webConfig.Server.Host, webConfig.Server.Port)
	fmt.Println("\nFeatures enabled:")
	fmt.Printf("  • Export: %v\n", webConfig.Features.ExportEnabled)
	fmt.Printf("  • API key auth: %v\n", webConfig.Auth.Enabled)
	fmt.Println()

	return server.Start(ctx)
}
