// Command tubuyaki-web runs the note capture API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/snagasawa/tubuyaki/internal/config"
	"github.com/snagasawa/tubuyaki/internal/llm"
	"github.com/snagasawa/tubuyaki/internal/server"
	"github.com/snagasawa/tubuyaki/internal/snapshot"
	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/internal/storage/postgres"
	"github.com/snagasawa/tubuyaki/internal/storage/sqlite"
)

func main() {
	// .env is optional; environment variables win either way
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store storage.RecordStore
	var extras []interface{}

	switch cfg.Storage.StorageEngine {
	case "postgres":
		pgStore, err := postgres.NewRecordStore(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		store = pgStore
		if pgStore.PgvectorAvailable() {
			extras = append(extras, storage.EmbeddingProvider(postgres.NewEmbeddingProvider(pgStore.GetDB())))
			embedder, err := llm.NewEmbeddingGenerator(llmConfig(cfg), cfg.LLM.EmbeddingModel())
			if err != nil {
				log.Printf("Warning: embedding generator unavailable: %v", err)
			} else if embedder != nil {
				extras = append(extras, embedder)
			}
		} else {
			log.Println("pgvector extension not available; related notes disabled")
		}
	default:
		dbPath := cfg.Storage.DataPath + "/tubuyaki.db"
		store, err = sqlite.NewRecordStore(dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		if cfg.Storage.SnapshotDir != "" {
			snapSvc, err := snapshot.NewService(snapshot.Options{
				DBPath:   dbPath,
				Dir:      cfg.Storage.SnapshotDir,
				Interval: time.Duration(cfg.Storage.SnapshotIntervalMin) * time.Minute,
			})
			if err != nil {
				log.Fatalf("Failed to initialize snapshot service: %v", err)
			}
			go snapSvc.Run(ctx)
		}
	}
	defer store.Close()

	gen, err := llm.NewTextGenerator(llmConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	if gen == nil {
		log.Printf("No %s credentials configured; notes will be saved with pending status", cfg.LLM.LLMProvider)
	}

	addr, _ := server.Start(ctx, cfg, store, gen, extras...)
	log.Printf("tubuyaki API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

func llmConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Provider: cfg.LLM.LLMProvider,
		APIKey:   cfg.LLM.APIKey(),
		Model:    cfg.LLM.Model(),
		BaseURL:  cfg.LLM.BaseURL(),
	}
}
