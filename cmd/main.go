package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dealhive/extractor"
	"dealhive/internal/config"
	"dealhive/utils"
)

var (
	verbose    bool
	useBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "dealhive",
	Short: "dealhive compares retail prices for a product across Indian online stores.",
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&useBrowser, "browser", false, "Use headless browser for JavaScript-heavy sites")
}

// setup loads configuration, applies the global flags and builds the engine
func setup() (*config.Config, *logrus.Logger, *extractor.Extractor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := utils.NewLogger(level, verbose)
	// Results go to stdout; keep logs apart from them
	logger.SetOutput(os.Stderr)

	if useBrowser {
		cfg.Scraper.UseHeadlessBrowser = true
	}

	return cfg, logger, extractor.NewExtractor(&cfg.Scraper, logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
