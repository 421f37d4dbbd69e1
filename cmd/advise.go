package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"mspro-labs/crop-weather/internal/ai"
	"mspro-labs/crop-weather/internal/dashboard"
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Ask Gemini for a short field advisory for the coming week",
	Long:  `Builds the same view as 'show' and asks the Gemini API (GEMINI_API_KEY) to turn it into practical advice.`,
	Run: func(cmd *cobra.Command, args []string) {
		runAdvise()
	},
}

func init() {
	adviseCmd.Flags().StringVar(&cropFlag, "crop", "", "crop name or English alias (default from settings)")
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 1. Config & view
	appCfg, settings := loadConfig()
	cropID := cropFlag
	if cropID == "" {
		cropID = settings.DefaultCrop
	}
	view, err := dashboard.Build(appCfg.DataDir, cropID, time.Now())
	if err != nil {
		log.Fatalf("Failed to build view: %v", err)
	}
	if !view.HasData {
		log.Println("⚠️ No snapshot yet; the advisory will be based on demo values.")
	}

	// 2. Initialize AI
	aiClient, err := ai.NewClient(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize AI client: %v", err)
	}
	defer aiClient.Close()

	// 3. Ask
	advice, err := aiClient.Advise(ctx, view)
	if err != nil {
		log.Fatalf("Advisory failed: %v", err)
	}
	fmt.Printf("%s %s: %s\n\n%s\n", view.Verdict.Icon, view.Profile.Name, view.Verdict.Label, advice)
}
