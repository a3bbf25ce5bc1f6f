// Command tubuyaki-import bulk-imports markdown journal files as notes.
// Imported notes are stored with pending status and can be processed later
// through the reprocess endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/snagasawa/tubuyaki/internal/config"
	"github.com/snagasawa/tubuyaki/internal/importer"
	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/internal/storage/postgres"
	"github.com/snagasawa/tubuyaki/internal/storage/sqlite"
)

var (
	dir     = flag.String("dir", "", "Directory containing markdown journal files (required)")
	verbose = flag.Bool("verbose", false, "Print per-file errors")
)

func main() {
	flag.Parse()
	if *dir == "" {
		log.Fatal("Usage: tubuyaki-import -dir <journal directory>")
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store storage.RecordStore
	if cfg.Storage.StorageEngine == "postgres" {
		store, err = postgres.NewRecordStore(cfg.Storage.PostgresDSN)
	} else {
		store, err = sqlite.NewRecordStore(cfg.Storage.DataPath + "/tubuyaki.db")
	}
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	imp := importer.NewJournalImporter(store)
	result, err := imp.ImportDirectory(context.Background(), *dir)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Files found:     %d\n", result.FilesFound)
	fmt.Printf("Files processed: %d\n", result.FilesProcessed)
	fmt.Printf("Files skipped:   %d\n", result.FilesSkipped)
	fmt.Printf("Files failed:    %d\n", result.FilesFailed)
	fmt.Printf("Records created: %d\n", result.RecordsCreated)
	fmt.Printf("Duration:        %s\n", result.Duration)

	if *verbose {
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
}
