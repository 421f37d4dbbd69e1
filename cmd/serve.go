package cmd

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/url"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"mspro-labs/crop-weather/internal/config"
	"mspro-labs/crop-weather/internal/crop"
	"mspro-labs/crop-weather/internal/dashboard"
	"mspro-labs/crop-weather/internal/models"
	"mspro-labs/crop-weather/internal/web"
)

var validate = validator.New()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// refreshFunc runs the crawl path for the dashboard's refresh button.
type refreshFunc func(ctx context.Context) (models.CrawlRun, error)

type dashboardQuery struct {
	Crop string `validate:"max=32"`
}

type pageData struct {
	View  dashboard.View
	Crops []string
	Flash string
}

func runServer() {
	// 1. Setup
	appCfg, settings := loadConfig()

	// One fetcher (and breaker) for the life of the server.
	c := newCrawler(appCfg, settings)
	refresh := func(ctx context.Context) (models.CrawlRun, error) {
		return crawlAndRecord(ctx, appCfg, c)
	}

	app, err := newServer(appCfg.DataDir, settings, refresh)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	// 2. Start Server
	addr := settings.ListenAddr
	if addr == "" {
		addr = ":" + appCfg.Port
	}
	go func() {
		log.Printf("🌐 Dashboard started at http://localhost%s", addr)
		if err := app.Listen(addr); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// 3. Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// newServer wires the dashboard routes.
func newServer(dataDir string, settings *config.Settings, refresh refreshFunc) (*fiber.App, error) {
	// Pre-build Templates (base layout + home page)
	base, err := template.New("base.html").ParseFS(web.TemplatesFS(), "templates/base.html")
	if err != nil {
		return nil, err
	}
	homeTmpl, err := template.Must(base.Clone()).ParseFS(web.TemplatesFS(), "templates/home.html")
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               "crop-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// A refresh can take timeout*retries plus backoff.
		WriteTimeout: 3 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(logger.New())
	app.Use(recover.New())

	// Only one crawl at a time, however many times the button is pressed.
	var crawlMu sync.Mutex

	buildView := func(c *fiber.Ctx) (dashboard.View, error) {
		q := dashboardQuery{Crop: c.Query("crop", settings.DefaultCrop)}
		if err := validate.Struct(q); err != nil {
			return dashboard.View{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		view, err := dashboard.Build(dataDir, q.Crop, time.Now())
		if err != nil {
			log.Printf("Dashboard error: %v", err)
			return dashboard.View{}, fiber.NewError(fiber.StatusInternalServerError, "failed to load forecast")
		}
		return view, nil
	}

	app.Get("/", func(c *fiber.Ctx) error {
		view, err := buildView(c)
		if err != nil {
			return err
		}
		c.Type("html", "utf-8")
		return homeTmpl.ExecuteTemplate(c, "base.html", pageData{
			View:  view,
			Crops: crop.Names(),
			Flash: c.Query("msg"),
		})
	})

	app.Get("/api/forecast", func(c *fiber.Ctx) error {
		view, err := buildView(c)
		if err != nil {
			return err
		}
		return c.JSON(view)
	})

	app.Post("/refresh", func(c *fiber.Ctx) error {
		crawlMu.Lock()
		run, err := refresh(c.UserContext())
		crawlMu.Unlock()

		msg := "✅ Saved: " + run.Path
		if err != nil {
			log.Printf("Refresh failed: %v", err)
			msg = "❌ Error: " + err.Error()
		}
		target := "/?msg=" + url.QueryEscape(msg)
		if cropID := c.FormValue("crop"); cropID != "" {
			target += "&crop=" + url.QueryEscape(cropID)
		}
		return c.Redirect(target, fiber.StatusSeeOther)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "crop-weather",
		})
	})

	return app, nil
}
