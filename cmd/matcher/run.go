package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vacancy-codes/internal/audit"
	"github.com/vacancy-codes/internal/config"
	"github.com/vacancy-codes/internal/etl"
	import_pkg "github.com/vacancy-codes/internal/import"
	"github.com/vacancy-codes/internal/source/trudvsem"
	"github.com/vacancy-codes/internal/vacancy"
)

// createRunCmd downloads (or reads) vacancies and runs the whole pipeline
func createRunCmd() *cobra.Command {
	var (
		input  string
		offset int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch vacancies, resolve codes and reconcile them into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				raws   []vacancy.Raw
				source string
				err    error
			)
			if input != "" {
				source = input
				raws, err = import_pkg.LoadVacanciesJSON(input)
			} else {
				srcCfg := config.LoadSource()
				source = srcCfg.BaseURL
				client := trudvsem.NewClient(trudvsem.Config{
					BaseURL:   srcCfg.BaseURL,
					Region:    srcCfg.Region,
					PageSize:  srcCfg.PageSize,
					RateLimit: srcCfg.RateLimit,
				}, logger)
				raws, err = client.FetchAll(ctx, offset)
			}
			if err != nil {
				return fmt.Errorf("failed to get vacancies: %w", err)
			}
			if len(raws) == 0 {
				fmt.Println("No vacancies found")
				return nil
			}

			conn, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			pipeline := etl.NewPipeline(st, audit.NewTracker(conn), matching, logger)
			summary, err := pipeline.Run(ctx, localDebug, source, raws)
			if err != nil {
				return err
			}

			printSummary(summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "read a saved API response instead of downloading")
	cmd.Flags().IntVar(&offset, "offset", 0, "first API page to download")
	return cmd
}

func printSummary(s *etl.Summary) {
	fmt.Printf("\n=== Run %s ===\n", s.RunID)
	fmt.Printf("Source:       %s\n", s.Source)
	fmt.Printf("Fetched:      %d (%d skipped without OGRN or id)\n", s.Fetched, s.Skipped)
	fmt.Printf("Companies:    %d\n", s.Companies)
	fmt.Printf("Vacancies:    %d\n", s.Vacancies)
	fmt.Printf("Areas:        %d matched (%.1f%%)\n", s.Areas.Accepted, s.Areas.MatchRate())
	fmt.Printf("Occupations:  %d matched (%.1f%%)\n", s.Occupations.Accepted, s.Occupations.MatchRate())
	fmt.Printf("Companies:    +%d new, %d closed\n", s.Outcome.Companies.Inserted, s.Outcome.Companies.Closed)
	fmt.Printf("Vacancies:    +%d new, %d closed, %d reappeared closed\n",
		s.Outcome.Vacancies.Inserted, s.Outcome.Vacancies.Closed, s.Outcome.Vacancies.Reappeared)
	fmt.Printf("Took:         %v\n", s.Duration.Round(time.Millisecond))
}
