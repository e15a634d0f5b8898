package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// settings collects everything the processing run needs, resolved from
// flags, the config file, and DRAWINGOCR_* environment variables.
type settings struct {
	EnginePath          string
	Languages           []string
	DPI                 float64
	Workers             int
	CacheCapacity       int
	ConfidenceThreshold float64
	Timeout             time.Duration
	PdftoppmPath        string
	Preprocess          bool
	MetricsAddr         string
}

var rootCmd = &cobra.Command{
	Use:   "drawingocr",
	Short: "OCR for engineering drawings",
	Long: `drawingocr rasterizes engineering-drawing PDFs, runs OCR on each
page, and exports the recognized fields as annotation records.

Examples:
  drawingocr scan drawing.pdf
  drawingocr scan drawing.pdf --pages 0-2 --dpi 300
  drawingocr export drawing.pdf --out fields.csv`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./drawingocr.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug output")

	rootCmd.PersistentFlags().String("engine-path", "", "tessdata directory for the OCR engine")
	rootCmd.PersistentFlags().StringSlice("languages", []string{"eng"}, "OCR languages")
	rootCmd.PersistentFlags().Float64("dpi", 300, "raster resolution in dots per inch")
	rootCmd.PersistentFlags().Int("workers", 2, "concurrent page workers")
	rootCmd.PersistentFlags().Int("cache-capacity", 32, "page cache capacity")
	rootCmd.PersistentFlags().Float64("confidence-threshold", 0.6, "flag tokens below this confidence")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "per-page recognition timeout")
	rootCmd.PersistentFlags().String("pdftoppm", "", "path to the pdftoppm binary")
	rootCmd.PersistentFlags().Bool("preprocess", true, "enhance pages before recognition")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address")

	for _, name := range []string{
		"engine-path", "languages", "dpi", "workers", "cache-capacity",
		"confidence-threshold", "timeout", "pdftoppm", "preprocess", "metrics-addr",
	} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(exportCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("drawingocr")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DRAWINGOCR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("loaded config file")
	}
}

func loadSettings() settings {
	return settings{
		EnginePath:          viper.GetString("engine-path"),
		Languages:           viper.GetStringSlice("languages"),
		DPI:                 viper.GetFloat64("dpi"),
		Workers:             viper.GetInt("workers"),
		CacheCapacity:       viper.GetInt("cache-capacity"),
		ConfidenceThreshold: viper.GetFloat64("confidence-threshold"),
		Timeout:             viper.GetDuration("timeout"),
		PdftoppmPath:        viper.GetString("pdftoppm"),
		Preprocess:          viper.GetBool("preprocess"),
		MetricsAddr:         viper.GetString("metrics-addr"),
	}
}
