package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"channel-catalog/cache"
	"channel-catalog/config"
	"channel-catalog/fetcher"
	"channel-catalog/handlers"
	"channel-catalog/logger"
	"channel-catalog/recommend"
	"channel-catalog/store"
	"channel-catalog/updater"

	"github.com/joho/godotenv"
)

func newServer(cfg *config.Config) (*store.CatalogStore, http.Handler) {
	src := fetcher.New(cfg.APIBase, cfg.FetchTimeout, fetcher.WithLogger(logger.Named("fetcher")))

	catalogStore := store.NewCatalogStore(src, store.Options{
		Country:       cfg.Country,
		TTL:           cfg.CacheTTL,
		LanguageCodes: cfg.LanguageCodes,
		Related: recommend.Options{
			Limit:   cfg.RelatedLimit,
			MinFill: cfg.RelatedMinFill,
		},
	},
		store.WithCache(cache.New(cache.WithLogger(logger.Named("cache")))),
		store.WithLogger(logger.Named("store")),
	)

	handler := handlers.NewChannelsHTTPHandler(catalogStore, logger.Named("http"))
	return catalogStore, handlers.NewRouter(handler, handlers.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Variables already set in the environment win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Default.Warnf("Error loading .env file: %v", err)
	}

	if os.Getenv("LOG_FORMAT") == "json" {
		logger.SetOutput(os.Stdout, false)
	}

	// manually set time zone
	if tz := os.Getenv("TZ"); tz != "" {
		var err error
		time.Local, err = time.LoadLocation(tz)
		if err != nil {
			logger.Default.Errorf("error loading location '%s': %v", tz, err)
		}
	}

	cfg := config.LoadFromEnv(logger.Default)
	config.SetConfig(cfg)

	catalogStore, router := newServer(cfg)

	up, err := updater.Initialize(ctx, logger.Named("updater"), catalogStore)
	if err != nil {
		logger.Default.Fatalf("Error initializing updater: %v", err)
	}
	defer up.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Default.Logf("Server is running on port %s...", cfg.Port)
		logger.Default.Logf("Catalog endpoint is running (`/api/channels/india`) for country %s", cfg.Country)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Default.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Default.Log("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Default.Errorf("Error during server shutdown: %v", err)
	}
}
