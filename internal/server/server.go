// Package server provides HTTP server initialization and lifecycle management
// for the tubuyaki API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/snagasawa/tubuyaki/internal/config"
	"github.com/snagasawa/tubuyaki/internal/engine"
	"github.com/snagasawa/tubuyaki/internal/llm"
	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server.
// Returns the actual address being listened on (useful for testing with port 0)
// and the CaptureHub for wiring live capture broadcasts.
// gen may be nil when no LLM credentials are configured; notes are then saved
// with pending status. The extras parameter is optional and may carry an
// llm.EmbeddingGenerator and a storage.EmbeddingProvider to enable the
// related-notes endpoint.
func Start(ctx context.Context, cfg *config.Config, store storage.RecordStore, gen llm.TextGenerator, extras ...interface{}) (string, *handlers.CaptureHub) {
	var embedder llm.EmbeddingGenerator
	var vectors storage.EmbeddingProvider

	for _, arg := range extras {
		switch v := arg.(type) {
		case llm.EmbeddingGenerator:
			embedder = v
		case storage.EmbeddingProvider:
			vectors = v
		}
	}

	transform := engine.NewTransformEngine(gen, llm.SummaryPolicy(cfg.Transform.SummaryPolicy))
	lifecycle, err := engine.NewManager(store, transform)
	if err != nil {
		log.Fatalf("Failed to build lifecycle manager: %v", err)
	}
	if embedder != nil && vectors != nil {
		lifecycle = lifecycle.WithEmbeddings(embedder, vectors)
	}

	query := engine.NewQueryService(store)
	feedback := engine.NewFeedbackService(store)
	related := engine.NewRelatedService(store, vectors)
	apiHandlers := handlers.NewAPIHandlers(lifecycle, query, feedback, related, cfg)

	// Capture hub drives the WebSocket capture channel through the same
	// lifecycle path as the REST endpoint.
	captureHub := handlers.NewCaptureHub(lifecycle.Create)
	go captureHub.Run()

	rateLimiter := handlers.NewRateLimiter(cfg.Security.RateLimitPerSec, cfg.Security.RateLimitBurst)

	// API routes (require auth when a token is configured)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/tubuyaki", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			apiHandlers.ListRecords(w, r)
		case http.MethodPost:
			apiHandlers.CreateRecord(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/tubuyaki/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			apiHandlers.GetRecord(w, r)
		case http.MethodPatch:
			apiHandlers.UpdateRecord(w, r)
		case http.MethodDelete:
			apiHandlers.DeleteRecord(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/tubuyaki/{id}/related", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandlers.RelatedRecords(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/tubuyaki/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandlers.SearchRecords(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			apiHandlers.GetConfig(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux := http.NewServeMux()

	// Health endpoint, no auth required, used by monitoring
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket capture endpoint (no auth required - origin validation handles security)
	mux.Handle("/ws/capture", captureHub)

	// Wrap entire server with rate limiting, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	// Create server with security timeouts
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		captureHub.Stop()
	}()

	return actualAddr, captureHub
}
