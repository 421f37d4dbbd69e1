package cmd

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mspro-labs/crop-weather/internal/config"
)

var dataDirFlag string

var rootCmd = &cobra.Command{
	Use:   "crop-weather",
	Short: "Weekly agricultural forecast crawler and crop suitability dashboard",
	Long: `Fetches the CWA weekly agricultural weather forecast, keeps every pull as a
timestamped JSON snapshot and judges the coming week against a crop's optimal
temperature range.

Configuration:
  CWA_API_KEY    API key (or put it in the secrets file, see SECRETS_PATH)
  SECRETS_PATH   dotenv-format secrets file (default .secrets.env)
  DATA_DIR       snapshot directory (default weather_data)
  DB_PATH        crawl catalog (default $DATA_DIR/catalog.db)
  CONFIG_PATH    YAML settings (default config.yaml, optional)

See config.example.yaml for insecure_skip_verify: it turns OFF TLS certificate
checks and exists only for hosts with a broken CA bundle.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("INFO: error loading .env: %v", err)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "snapshot directory (overrides DATA_DIR)")
}

// loadConfig reads env and YAML settings, applying command-line overrides.
func loadConfig() (config.AppConfig, *config.Settings) {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if dataDirFlag != "" {
		appCfg.DataDir = dataDirFlag
		if os.Getenv("DB_PATH") == "" {
			appCfg.DBPath = filepath.Join(dataDirFlag, config.CatalogFile)
		}
	}

	settings, err := config.LoadSettings(appCfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	return appCfg, settings
}
