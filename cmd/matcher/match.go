package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vacancy-codes/internal/catalog"
	"github.com/vacancy-codes/internal/etl"
	import_pkg "github.com/vacancy-codes/internal/import"
	"github.com/vacancy-codes/internal/match"
	"github.com/vacancy-codes/internal/normalize"
)

// catalogFlags select a CSV catalog instead of the database one
type catalogFlags struct {
	file    string
	codeCol string
	nameCol string
}

func (f *catalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "catalog", "", "CSV catalog file instead of the database")
	cmd.Flags().StringVar(&f.codeCol, "code-col", "id", "CSV column holding the code")
	cmd.Flags().StringVar(&f.nameCol, "name-col", "name", "CSV column holding the name")
}

func (f *catalogFlags) rows(ctx context.Context, kind normalize.Kind) ([]catalog.Row, error) {
	if f.file != "" {
		rows, err := import_pkg.LoadCatalogCSV(f.file, f.codeCol, f.nameCol)
		if err != nil {
			return nil, err
		}
		if kind == normalize.Address {
			catalog.SortByCodeDesc(rows)
		}
		return rows, nil
	}

	conn, st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return st.LoadCatalog(ctx, kind)
}

// createMatchCmd resolves strings given on the command line
func createMatchCmd() *cobra.Command {
	var (
		kindName string
		cf       catalogFlags
	)

	cmd := &cobra.Command{
		Use:   "match [text...]",
		Short: "Resolve one or more strings against a catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := normalize.ParseKind(kindName)
			if err != nil {
				return err
			}
			rows, err := cf.rows(cmd.Context(), kind)
			if err != nil {
				return err
			}
			m, err := etl.BuildMatcher(kind, rows, matching)
			if err != nil {
				return err
			}

			for _, text := range args {
				printResult(text, m.Match(text), m)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kindName, "kind", "address", "address or job_title")
	cf.register(cmd)
	return cmd
}

func printResult(text string, res match.Result, m *match.Matcher) {
	status := "UNMATCHED"
	if res.Accepted {
		status = "MATCHED"
	}
	fmt.Printf("%s\n", text)
	fmt.Printf("  normalized: %q\n", res.Query)
	fmt.Printf("  %s score=%.4f threshold=%v metric=%s", status, res.Score, m.Options().Threshold, m.Scorer().Name())
	if res.Accepted {
		fmt.Printf(" -> %s %s", res.Code, strings.TrimSpace(res.Name))
	}
	fmt.Println()
}
