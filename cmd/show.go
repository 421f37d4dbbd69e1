package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mspro-labs/crop-weather/internal/crop"
	"mspro-labs/crop-weather/internal/dashboard"
)

var (
	cropFlag string
	jsonFlag bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the coming week and the crop suitability verdict",
	Long: `Loads the newest snapshot, extracts the seven daily mean temperatures and
judges them against the crop's optimal range.
Examples:
  crop-weather show
  crop-weather show --crop 高麗菜
  crop-weather show --crop tomato --json`,
	Run: func(cmd *cobra.Command, args []string) {
		appCfg, settings := loadConfig()
		cropID := cropFlag
		if cropID == "" {
			cropID = settings.DefaultCrop
		}

		view, err := dashboard.Build(appCfg.DataDir, cropID, time.Now())
		if err != nil {
			log.Fatalf("Failed to build view: %v", err)
		}

		if jsonFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(view); err != nil {
				log.Fatalf("Failed to encode view: %v", err)
			}
			return
		}
		printView(view)
	},
}

func init() {
	showCmd.Flags().StringVar(&cropFlag, "crop", "", "crop: "+strings.Join(crop.Names(), ", ")+" (default from settings)")
	showCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the view as JSON")
	rootCmd.AddCommand(showCmd)
}

func printView(v dashboard.View) {
	if !v.HasData {
		fmt.Println("⚠️  No forecast snapshot yet. Run `crop-weather crawl` first; showing demo values.")
	} else {
		fmt.Printf("📄 Snapshot: %s\n", v.Snapshot)
	}
	if v.ErrorMessage != "" {
		fmt.Printf("❌ %s\n", v.ErrorMessage)
	}
	if v.Degraded {
		fmt.Printf("ℹ️  Temperatures are estimated (source: %s), not a confirmed forecast field.\n", v.Source)
	}

	name := v.Profile.Name
	if en := v.Profile.EnglishName(); en != "" {
		name += " / " + en
	}
	if !v.KnownCrop {
		name = fmt.Sprintf("%s (unknown crop, default range)", v.Crop)
	}

	header := fmt.Sprintf("7-Day Forecast for %s:", name)
	fmt.Println()
	fmt.Println(header)
	fmt.Println(strings.Repeat("-", len(header)))
	for _, d := range v.Days {
		fmt.Printf("%s %s: %5.1f°C\n", d.Date.Format("Mon"), d.Date.Format("2006-01-02"), d.Temperature)
	}
	fmt.Println()
	fmt.Printf("Mean:        %.1f°C\n", v.Stats.Mean)
	fmt.Printf("  Min:       %.1f°C\n", v.Stats.Min)
	fmt.Printf("  Max:       %.1f°C\n", v.Stats.Max)
	fmt.Printf("Accumulated: %.1f°C·day above %.0f°C\n", v.Stats.Accumulated, crop.BaseTemperature)
	fmt.Printf("Optimal:     %.0f-%.0f°C\n", v.Profile.Min, v.Profile.Max)
	fmt.Println()
	fmt.Printf("%s %s: %s\n", v.Verdict.Icon, v.Verdict.Label, v.Verdict.Explanation)
}
