package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KunalKalawant/Engineering-Drawing/export"
)

var scanPages string

var scanCmd = &cobra.Command{
	Use:   "scan <pdf>",
	Short: "Recognize fields on drawing pages and print them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := runDocument(cmd.Context(), loadSettings(), args[0], scanPages)
		if err != nil {
			log.Error().Err(err).Msg("scan failed")
			return err
		}
		if len(records) == 0 {
			log.Warn().Msg("no fields recognized")
			return nil
		}
		export.RenderTable(os.Stdout, records)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanPages, "pages", "all",
		`pages to process: "all", "0,2", or "1-3"`)
}
