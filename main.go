package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cartelera-bot/internal/api"
	"cartelera-bot/internal/bot"
	"cartelera-bot/internal/config"
	"cartelera-bot/internal/scraper"
	"cartelera-bot/pkg/httpclient"
	"cartelera-bot/pkg/logger"
	"cartelera-bot/pkg/renderer"
	"cartelera-bot/pkg/tmdb"
	"cartelera-bot/pkg/utils"
)

const Version = "1.0.0"

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Config file path")
		debug      = flag.Bool("debug", false, "Enable debug mode")
		version    = flag.Bool("version", false, "Show version")
		logDir     = flag.String("logdir", "", "Log directory")
		cinemaID   = flag.String("cinema", "", "Scrape one cinema once and print its listings as JSON")
	)
	flag.Parse()

	if *version {
		fmt.Printf("Cartelera Bot Version %s\n", Version)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *debug {
		cfg.Common.Debug = true
	}
	if *logDir != "" {
		cfg.Common.LogDir = *logDir
	}

	// Initialize logger
	if cfg.Common.LogDir != "" {
		if err := logger.InitFileLogger(cfg.Common.LogDir); err != nil {
			log.Fatalf("Failed to init file logger: %v", err)
		}
	} else {
		logger.InitConsoleLogger()
	}
	defer logger.Close()
	if cfg.Common.Debug {
		logger.SetLevel(logger.DEBUG)
	} else {
		logger.SetLevel(logger.INFO)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config: %v", err)
		os.Exit(1)
	}

	printHeader()
	logger.Info("Load Config file '%s'", *configPath)
	if cfg.Common.Debug {
		logger.Info("Debug mode enabled")
	}

	client := httpclient.NewClient(&cfg.Proxy)
	chrome := renderer.NewChrome(renderer.OptionsFromConfig(cfg.Render, cfg.Proxy.UserAgent))
	s := scraper.New(cfg, client, chrome)
	defer s.Close()

	lookup := tmdb.New(tmdb.Config{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Language:     cfg.TMDB.Language,
		Timeout:      time.Duration(cfg.TMDB.Timeout) * time.Second,
	}, client.HTTPClient())
	if !lookup.Enabled() {
		logger.Warn("TMDB_API_KEY not set, film information lookups are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle single cinema mode
	if *cinemaID != "" {
		if err := handleCinemaMode(ctx, s, *cinemaID); err != nil {
			logger.Error("Scrape failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, s, lookup); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	logger.Info("All finished!")
}

func printHeader() {
	logger.Info("==================== Cartelera Bot ====================")
	versionLine := fmt.Sprintf("Version %s", Version)
	padding := (54 - len(versionLine)) / 2
	if padding > 0 {
		versionLine = strings.Repeat(" ", padding) + versionLine
	}
	logger.Info("%s", versionLine)
	logger.Info("======================================================")
	logger.Info("Platform: %s/%s - Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
	logger.Info("======================================================")
}

func handleCinemaMode(ctx context.Context, s *scraper.Scraper, cinemaID string) error {
	logger.Info("==================== Cinema Mode =====================")

	start := time.Now()
	listings, err := s.Listings(ctx, cinemaID)
	if err != nil {
		return err
	}
	if listings == nil {
		listings = []scraper.Listing{}
	}

	stats := utils.CountListings(listings)
	logger.Info("%s: %d titles, %d sessions in %v", cinemaID, stats.Titles, stats.Sessions, time.Since(start).Round(time.Millisecond))
	utils.DebugPrint(cinemaID, listings)

	return utils.WriteJSON(os.Stdout, listings)
}

// run starts the bot and, when enabled, the HTTP API, and blocks until ctx is
// cancelled or one of them fails.
func run(ctx context.Context, cfg *config.Config, s *scraper.Scraper, lookup *tmdb.Client) error {
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Telegram.Token == "" && cfg.API.Enabled {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, running the HTTP API only")
	} else {
		telegram, err := bot.New(cfg.Telegram, s, lookup)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return telegram.Run(ctx)
		})
	}

	if cfg.API.Enabled {
		server := api.NewServer(cfg.API, s, lookup)
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	return g.Wait()
}
