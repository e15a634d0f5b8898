package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KunalKalawant/Engineering-Drawing/export"
)

var (
	exportPages string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export <pdf>",
	Short: "Recognize fields and write them to CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := runDocument(cmd.Context(), loadSettings(), args[0], exportPages)
		if err != nil {
			log.Error().Err(err).Msg("export failed")
			return err
		}

		switch filepath.Ext(exportOut) {
		case ".csv":
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("creating %s: %w", exportOut, err)
			}
			defer f.Close()
			if err := export.WriteCSV(f, records); err != nil {
				return err
			}
		case ".xlsx":
			if err := export.WriteXLSX(exportOut, records); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported output format %q, use .csv or .xlsx", exportOut)
		}

		log.Info().Str("file", exportOut).Int("records", len(records)).Msg("export written")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPages, "pages", "all",
		`pages to process: "all", "0,2", or "1-3"`)
	exportCmd.Flags().StringVar(&exportOut, "out", "annotations.csv",
		"output file, .csv or .xlsx")
}
