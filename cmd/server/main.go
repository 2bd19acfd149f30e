package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/macrolens/productmatch/config"
	"github.com/macrolens/productmatch/internal/bootstrap"
	httpDelivery "github.com/macrolens/productmatch/internal/delivery/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Product Match Service v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire rules, providers and the matching service
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize matching service: %v", err)
	}
	defer app.Close()

	log.Printf("Matching: profile=%s, tolerance=%.2f, store concurrency=%d, debug=%v",
		cfg.Matching.DefaultProfile,
		cfg.Matching.QuantityTolerance,
		cfg.Matching.StoreConcurrency,
		cfg.Matching.EnableDebugLogging)
	log.Printf("Providers: llm=%s (available: %v), embeddings=%s (available: %v)",
		cfg.LLM.Provider, app.Service.ExtractorAvailable(),
		cfg.Embedding.Provider, app.Service.EmbeddingsAvailable())

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(app.Service)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
