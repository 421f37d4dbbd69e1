package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"mspro-labs/crop-weather/internal/config"
	"mspro-labs/crop-weather/internal/credentials"
	"mspro-labs/crop-weather/internal/crawler"
	"mspro-labs/crop-weather/internal/db"
	"mspro-labs/crop-weather/internal/models"
	"mspro-labs/crop-weather/internal/snapshot"
)

var apiKeyFlag string

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch the weekly forecast once and save it as a snapshot",
	Long:  `Downloads the CWA weekly agricultural forecast (F-A0010-001), writes it to $DATA_DIR/weather_<YYYYMMDD_HHMMSS>.json and records the run in the crawl catalog.`,
	Run: func(cmd *cobra.Command, args []string) {
		appCfg, settings := loadConfig()
		fmt.Println("🌐 Crawling CWA Open Data...")

		c := newCrawler(appCfg, settings)
		c.APIKey = apiKeyFlag

		run, err := crawlAndRecord(cmd.Context(), appCfg, c)
		if err != nil {
			fmt.Println("❌ Error:", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Saved: %s\n", run.Path)
	},
}

func init() {
	crawlCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "API key (overrides the secrets file and CWA_API_KEY)")
	rootCmd.AddCommand(crawlCmd)
}

func newCrawler(appCfg config.AppConfig, settings *config.Settings) *crawler.Crawler {
	return &crawler.Crawler{
		Keys:    credentials.NewResolver(config.DefaultKeyName, appCfg.SecretsPath),
		Fetcher: crawler.NewFetcher(settings),
		Writer:  snapshot.Writer{Dir: appCfg.DataDir},
	}
}

// crawlAndRecord runs one crawl and logs it to the catalog. A catalog failure
// is reported but never fails the crawl.
func crawlAndRecord(ctx context.Context, appCfg config.AppConfig, c *crawler.Crawler) (models.CrawlRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	run, crawlErr := c.Run(ctx)

	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Printf("⚠️ Warning: could not open crawl catalog: %v", err)
		return run, crawlErr
	}
	defer database.Close()

	if err := db.SaveRun(database, run); err != nil {
		log.Printf("⚠️ Warning: could not record crawl run: %v", err)
	}
	return run, crawlErr
}
