package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vacancy-codes/internal/export"
)

// createExportCmd writes the stored vacancies to a file
func createExportCmd() *cobra.Command {
	var (
		output        string
		includeClosed bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored vacancies with their resolved codes to CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			vacancies, err := st.ListVacancies(cmd.Context(), includeClosed)
			if err != nil {
				return err
			}

			switch strings.ToLower(filepath.Ext(output)) {
			case ".xlsx":
				err = export.ExportVacanciesXLSX(output, vacancies)
			case ".csv":
				var f *os.File
				if f, err = os.Create(output); err != nil {
					return fmt.Errorf("failed to create file: %w", err)
				}
				err = export.ExportVacanciesCSV(f, vacancies)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			default:
				return fmt.Errorf("unsupported output extension %q (want .csv or .xlsx)", filepath.Ext(output))
			}
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d vacancies to %s\n", len(vacancies), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "vacancies.xlsx", "output file (.csv or .xlsx)")
	cmd.Flags().BoolVar(&includeClosed, "closed", false, "include closed vacancies")
	return cmd
}
