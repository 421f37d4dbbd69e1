package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"mspro-labs/crop-weather/internal/dashboard"
)

const modelName = "gemini-1.5-flash"

// Client wraps the GenAI client.
type Client struct {
	genaiClient *genai.Client
	model       *genai.GenerativeModel
}

// NewClient creates a connected AI client.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	model := c.GenerativeModel(modelName)
	model.SetTemperature(0.3)

	return &Client{
		genaiClient: c,
		model:       model,
	}, nil
}

// Close terminates the connection.
func (c *Client) Close() {
	if c.genaiClient != nil {
		c.genaiClient.Close()
	}
}

// Advise asks the model for a short field advisory for the view.
func (c *Client) Advise(ctx context.Context, v dashboard.View) (string, error) {
	res, err := c.model.GenerateContent(ctx, genai.Text(BuildPrompt(v)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		break
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("AI returned an empty advisory")
	}
	return strings.TrimSpace(sb.String()), nil
}

// BuildPrompt renders the view as plain facts for the model.
func BuildPrompt(v dashboard.View) string {
	var sb strings.Builder
	sb.WriteString("You are an agricultural extension officer in Taiwan. ")
	sb.WriteString("Write at most four short sentences of practical advice for the coming week.\n\n")

	fmt.Fprintf(&sb, "Crop: %s", v.Profile.Name)
	if en := v.Profile.EnglishName(); en != "" {
		fmt.Fprintf(&sb, " (%s)", en)
	}
	fmt.Fprintf(&sb, "\nOptimal daily mean: %.1f-%.1f °C\n", v.Profile.Min, v.Profile.Max)

	sb.WriteString("Forecast daily means:")
	for _, d := range v.Days {
		fmt.Fprintf(&sb, " %s=%.1f", d.Date.Format("01-02"), d.Temperature)
	}
	fmt.Fprintf(&sb, "\nWeek mean %.1f, min %.1f, max %.1f, accumulated heat above 10 °C %.1f\n",
		v.Stats.Mean, v.Stats.Min, v.Stats.Max, v.Stats.Accumulated)
	fmt.Fprintf(&sb, "Assessment: %s (%s)\n", v.Verdict.Level, v.Verdict.Explanation)

	if v.Degraded {
		sb.WriteString("Note: these temperatures are an estimate, not a confirmed forecast. Say so.\n")
	}
	return sb.String()
}
