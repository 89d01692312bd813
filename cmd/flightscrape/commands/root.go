package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightscrape/internal/config"
	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/scraper"
)

var (
	configPath *string
	jsonOutput *bool
	plainMode  *bool
)

var rootCmd = &cobra.Command{
	Use:           "flightscrape",
	Short:         "flightscrape searches flight results and builds booking links from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "", "Path to a json5 config file.")
	jsonOutput = rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON instead of a table.")
	plainMode = rootCmd.PersistentFlags().Bool("plain", false, "Disable cache, rate limiting and retries.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if se := models.AsScrapeError(err); se.Reason != models.ReasonUnknown {
			fmt.Fprintf(os.Stderr, "%s: %s\n", se.Reason, se.Description())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func loadScraper() (*scraper.Scraper, config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, cfg, err
	}
	if *plainMode {
		cfg.Mode = config.ModePlain
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	s, err := cfg.NewScraper(logger)
	if err != nil {
		return nil, cfg, err
	}
	return s, cfg, nil
}
