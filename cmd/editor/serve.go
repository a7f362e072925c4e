package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/boostify/editor-agent/internal/api"
	"github.com/boostify/editor-agent/internal/config"
	"github.com/boostify/editor-agent/internal/db"
	"github.com/boostify/editor-agent/internal/logging"
	"github.com/boostify/editor-agent/internal/project"
	"github.com/boostify/editor-agent/internal/render"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor API and the render follow-up runner",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting boostify editor agent", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logging.WithComponent(logger, "db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deviceID, err := ensureDeviceID(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	printBanner(cfg.Port(), authToken, deviceID, cfg.RenderURL())

	renderLogger := logging.WithComponent(logger, "render")
	var renderClient render.Client
	if cfg.RenderURL() != "" {
		renderClient = render.NewHTTPClient(render.HTTPClientConfig{
			BaseURL:       cfg.RenderURL(),
			Token:         cfg.RenderToken(),
			Timeout:       cfg.RenderTimeout(),
			RatePerSecond: cfg.RenderRate(),
			Logger:        renderLogger,
		})
		logger.Info("render service configured",
			"url", logging.SanitizeURL(cfg.RenderURL()),
			"token", logging.SanitizeToken(cfg.RenderToken()),
			"rate_per_s", cfg.RenderRate(),
		)
	} else {
		renderClient = render.NewStubClient(renderLogger)
		logger.Warn("no render service configured, exports will be refused", "env", config.EnvRenderURL)
	}

	health := render.NewCachedHealth(renderClient, renderLogger)
	svc := project.NewService(repo, renderClient, logging.WithComponent(logger, "projects"))
	runner := project.NewRunner(svc, repo, renderClient, logging.WithComponent(logger, "runner"), project.RunnerConfig{
		PollInterval: cfg.PollInterval(),
		MaxWait:      cfg.PollMaxWait(),
	})

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Service:        svc,
		Repository:     repo,
		Runner:         runner,
		Health:         health,
		Logger:         logging.WithComponent(logger, "api"),
		StartTime:      startTime,
		AllowedOrigins: cfg.AllowedOrigins(),
		DeviceID:       deviceID,
		Version:        Version,
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(apiServer.Start)

	g.Go(func() error {
		runner.Start(gctx)
		return nil
	})

	g.Go(func() error {
		probeCtx, cancel := context.WithTimeout(gctx, cfg.RenderTimeout())
		defer cancel()
		if h := health.Refresh(probeCtx); h.Reachable {
			logger.Info("render service reachable")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP server", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func printBanner(port int, authToken, deviceID, renderURL string) {
	if renderURL == "" {
		renderURL = "(not configured)"
	}
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Printf("║  BOOSTIFY EDITOR AGENT v%-54s║\n", Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:     http://127.0.0.1:%-47d║\n", port)
	fmt.Printf("║  Auth Token:  %-64s║\n", authToken)
	fmt.Printf("║  Device ID:   %-64s║\n", deviceID[:16]+"...")
	fmt.Printf("║  Render:      %-64s║\n", logging.SanitizeURL(renderURL))
	fmt.Println("╚═══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func ensureDeviceID(ctx context.Context, repo project.Repository) (string, error) {
	return ensureSecret(ctx, repo, project.ConfigDeviceID, 16)
}

func ensureAuthToken(ctx context.Context, repo project.Repository) (string, error) {
	return ensureSecret(ctx, repo, project.ConfigAuthToken, 32)
}

// ensureSecret returns the stored value for key, generating and persisting a
// random hex string of n bytes on first start.
func ensureSecret(ctx context.Context, repo project.Repository, key string, n int) (string, error) {
	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}

	return value, nil
}
