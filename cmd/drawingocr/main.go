// Command drawingocr processes engineering-drawing PDFs: it rasterizes
// pages, recognizes dimension and title-block text, and exports the
// resulting annotations.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
