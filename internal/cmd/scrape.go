package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rulebench/rulebench/internal/observability"
	"github.com/rulebench/rulebench/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape a game's rules forum from BoardGameGeek",
	Long: `Scrape fetches the rules forum for a game via the BoardGameGeek
XML API and writes every thread with its posts to a grouped JSON file.
Forum metadata, threads, and posts are also recorded in the local store.`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().Int("game-id", 0, "BoardGameGeek game ID")
	scrapeCmd.Flags().String("out", "threads.json", "Output path for grouped thread JSON")
}

func runScrape(cmd *cobra.Command, _ []string) error {
	gameID, err := cmd.Flags().GetInt("game-id")
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gameID == 0 {
		gameID = cfg.Scrape.GameID
	}
	if gameID <= 0 {
		return errors.New("--game-id is required")
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() // nolint:errcheck

	client := scrape.NewClient(cfg.Scrape.BaseURL, cfg.Scrape.Timeout)
	if cfg.Scrape.MaxRetries > 0 {
		client.MaxRetries = cfg.Scrape.MaxRetries
	}
	if cfg.Scrape.RetryDelay > 0 {
		client.RetryDelay = cfg.Scrape.RetryDelay
	}
	client.Logger = observability.Logger

	scraper := scrape.NewScraper(client,
		scrape.WithRecorder(st),
		scrape.WithPageDelay(cfg.Scrape.PageDelay),
		scrape.WithLogger(observability.Logger),
	)

	grouped, err := scraper.Run(ctx, gameID)
	if err != nil {
		return err
	}
	if err := scrape.WriteGrouped(outPath, grouped); err != nil {
		return err
	}

	observability.Logger.Info("scrape complete",
		zap.Int("game_id", gameID),
		zap.Int("threads", len(grouped)),
		zap.String("out", outPath))
	fmt.Printf("Wrote %d thread(s) to %s\n", len(grouped), outPath)
	return nil
}
