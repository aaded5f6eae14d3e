package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vacancy-codes/internal/catalog"
	import_pkg "github.com/vacancy-codes/internal/import"
	"github.com/vacancy-codes/internal/normalize"
)

// createCatalogCmd loads or prints a catalog
func createCatalogCmd() *cobra.Command {
	var (
		load    string
		codeCol string
		nameCol string
	)

	cmd := &cobra.Command{
		Use:   "catalog [areas|occupations]",
		Short: "Print a catalog in matching order, optionally replacing it from CSV first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := normalize.ParseKind(args[0])
			if err != nil {
				return err
			}

			conn, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			if load != "" {
				rows, err := import_pkg.LoadCatalogCSV(load, codeCol, nameCol)
				if err != nil {
					return err
				}
				if err := st.ReplaceCatalog(ctx, kind, rows); err != nil {
					return err
				}
				fmt.Printf("Loaded %d %s catalog rows from %s\n", len(rows), kind, load)
			}

			rows, err := st.LoadCatalog(ctx, kind)
			if err != nil {
				return err
			}

			kc := matching.Areas
			if kind == normalize.JobTitle {
				kc = matching.Occupations
			}
			cat, err := catalog.New(kind, rows, normalize.New(kind, kc.NoiseMarkers, kc.Prefix))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tNORMALIZED")
			for _, e := range cat.Entries() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Code, e.Name, e.Normalized)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d usable entries, %d skipped (empty after normalization)\n", cat.Len(), cat.Skipped())
			return nil
		},
	}

	cmd.Flags().StringVar(&load, "load", "", "replace the catalog from this CSV file")
	cmd.Flags().StringVar(&codeCol, "code-col", "id", "CSV column holding the code")
	cmd.Flags().StringVar(&nameCol, "name-col", "name", "CSV column holding the name")
	return cmd
}
