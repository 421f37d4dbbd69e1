package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"mspro-labs/crop-weather/internal/db"
	"mspro-labs/crop-weather/internal/models"
	"mspro-labs/crop-weather/internal/snapshot"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [clear]",
	Short: "List recent crawl runs",
	Long: `Shows the crawl catalog: when each crawl ran, how many attempts it took and
which snapshot it produced.

  crop-weather history
  crop-weather history clear   (forgets the runs; snapshot files stay on disk)`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		appCfg, _ := loadConfig()
		database, err := db.Connect(appCfg.DBPath)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		defer database.Close()

		if len(args) == 1 {
			if strings.ToLower(args[0]) != "clear" {
				log.Fatalf("Unknown argument %q (did you mean 'clear'?)", args[0])
			}
			affected, err := db.ClearRuns(database)
			if err != nil {
				log.Fatalf("Failed to clear history: %v", err)
			}
			fmt.Printf("🗑️ Done. Removed %d run(s) from the catalog.\n", affected)
			return
		}

		runs, err := db.ListRuns(database, historyLimit)
		if err != nil {
			log.Fatalf("Failed to list history: %v", err)
		}
		names, err := snapshot.List(appCfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to list snapshots: %v", err)
		}

		fmt.Printf("📜 Crawl History (%d snapshot file(s) in %s)\n", len(names), appCfg.DataDir)
		fmt.Println("------------------------------------")
		last, err := lastSuccessLine(database)
		if err != nil {
			log.Fatalf("Failed to read last success: %v", err)
		}
		fmt.Println(last)
		if len(runs) == 0 {
			fmt.Println("No history found.")
			return
		}
		for _, r := range runs {
			icon := "✅"
			detail := r.Path
			if r.Status != models.StatusOK {
				icon = "❌"
				detail = r.Error
			}
			fmt.Printf("[%s] %s %d attempt(s) %s\n", r.StartedAt.Local().Format("2006-01-02 15:04"), icon, r.Attempts, detail)
		}
	},
}

// lastSuccessLine summarises the newest successful crawl for the history header.
func lastSuccessLine(database *sql.DB) (string, error) {
	run, err := db.LastSuccess(database)
	if errors.Is(err, sql.ErrNoRows) {
		return "Last successful crawl: never", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Last successful crawl: %s (%s, %d bytes)",
		run.StartedAt.Local().Format("2006-01-02 15:04"), run.Path, run.Bytes), nil
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
