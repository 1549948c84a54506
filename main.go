package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/altbridge/chatd/internal/config"
	"github.com/altbridge/chatd/internal/hub"
	"github.com/altbridge/chatd/internal/prompt"
	"github.com/altbridge/chatd/internal/provider"
	"github.com/altbridge/chatd/internal/service"
	"github.com/altbridge/chatd/internal/store"
	"github.com/altbridge/chatd/internal/telemetry"
	"github.com/altbridge/chatd/internal/tools"
	transporthttp "github.com/altbridge/chatd/internal/transport/http"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: could not load .env: %v", err)
	}

	cfg := config.Load()

	log.Printf("Starting chatd...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Default provider: %s", cfg.DefaultProvider)

	ctx := context.Background()

	// Initialize store
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize telemetry
	tel, err := telemetry.NewLogger(cfg.TelemetryLogPath)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer tel.Close()

	rotator := telemetry.NewRotator(tel, cfg.TelemetryHorizon)
	if err := rotator.Start(); err != nil {
		log.Fatalf("Failed to start telemetry rotation: %v", err)
	}
	defer rotator.Stop()

	// Initialize providers
	providers := buildProviderRegistry(cfg)
	if _, err := providers.Resolve(cfg.DefaultProvider); err != nil {
		log.Printf("WARN: default provider %q not registered, falling back to %s", cfg.DefaultProvider, providers.Names()[0])
		cfg.DefaultProvider = providers.Names()[0]
	}

	// Initialize hub and service
	h := hub.NewHub()
	prompts := prompt.NewAssembler(cfg.SystemPrompt)
	toolReg := tools.NewBuiltinRegistry()
	svc := service.New(db, providers, h, tel, prompts, toolReg, cfg)

	// Create HTTP server
	server := transporthttp.NewServer(cfg, svc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-gctx.Done():
			return gctx.Err()
		}

		log.Println("Shutting down chatd...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Printf("API started on port %d", cfg.HTTPPort)

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shutdown complete")
}

// buildProviderRegistry wires every provider the configuration enables.
// MOCK mode replaces real backends with the in-process mock.
func buildProviderRegistry(cfg *config.Config) *provider.Registry {
	registry := provider.NewRegistry()

	if cfg.Mode == config.ModeMock {
		registry.Register(provider.NewMock())
		log.Printf("MOCK mode: registered mock provider only")
		return registry
	}

	if cfg.OpenAIAPIKey != "" {
		registry.Register(provider.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL))
		log.Printf("Registered provider: openai")
	}
	if cfg.YandexOAuthToken != "" && cfg.YandexFolderID != "" {
		yandex, err := provider.NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
		if err != nil {
			log.Printf("WARN: yandex provider unavailable: %v", err)
		} else {
			registry.Register(yandex)
			log.Printf("Registered provider: yandex")
		}
	}
	if len(registry.Names()) == 0 {
		// No credentials at all still yields a usable dev server.
		registry.Register(provider.NewMock())
		log.Printf("No provider credentials found, registered mock provider")
	}
	return registry
}
