// Package daemon manages the Aerial runtime lifecycle: config migration,
// store migration, the sanity pass, and the HTTP API server.
package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aerialtv/aerial/internal/api"
	"github.com/aerialtv/aerial/internal/health"
	_ "github.com/aerialtv/aerial/internal/infra/metrics" // Register Prometheus metrics
	"github.com/aerialtv/aerial/internal/infra/sqlite"
	"github.com/aerialtv/aerial/internal/settings"
)

// Daemon is the core Aerial runtime.
type Daemon struct {
	Home     string
	Settings *settings.Settings
	File     *settings.File
	DB       *sqlite.DB
	Server   *api.Server
	Health   *health.Checker
	cancel   context.CancelFunc
}

// New opens the store and config at the Aerial home directory and brings
// both fully current. Startup order matters: the config chain runs first
// because its season-folder step reads show flags from the store as-is,
// then the schema chain, then the sanity pass over the migrated schema.
func New() (*Daemon, error) {
	return NewAt(Home())
}

// NewAt is New rooted at an explicit home directory.
func NewAt(home string) (*Daemon, error) {
	db, err := sqlite.Open(home)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	configPath := filepath.Join(home, "config.toml")
	cfg, file, err := settings.Load(configPath, db.Conn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := db.Migrate(sqlite.DiskFileExists); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	db.SanityCheck(sqlite.DiskFileExists)

	checker := health.NewChecker(db, home, configPath)

	srv := api.NewServer(db, checker, cfg.ConfigVersion)
	srv.EnableMetrics()

	return &Daemon{
		Home:     home,
		Settings: cfg,
		File:     file,
		DB:       db,
		Server:   srv,
		Health:   checker,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Settings.WebHost, d.Settings.WebPort)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	log.Printf("[daemon] Aerial serving on http://%s", addr)
	log.Printf("[daemon] metrics: http://%s/metrics", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// Home returns the Aerial data directory: $AERIAL_HOME or ~/.aerial.
func Home() string {
	if env := os.Getenv("AERIAL_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".aerial")
}
