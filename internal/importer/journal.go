package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// ImportResult is the summary produced by a completed import run.
type ImportResult struct {
	FilesFound     int           `json:"files_found"`
	FilesProcessed int           `json:"files_processed"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesFailed    int           `json:"files_failed"`
	RecordsCreated int           `json:"records_created"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration_ms"`
}

// JournalImporter loads Markdown journal exports into the record store.
// Imported notes are stored with pending status: the transform runs later via
// reprocess, so a bulk import never fires hundreds of LLM calls.
type JournalImporter struct {
	store storage.RecordStore
}

// NewJournalImporter creates an importer writing to the given store.
func NewJournalImporter(store storage.RecordStore) *JournalImporter {
	return &JournalImporter{store: store}
}

// ImportDirectory walks dirPath recursively, parses every Markdown file, and
// creates one pending record per extracted note. Unreadable or unparseable
// files are skipped and reported; they never abort the run.
func (imp *JournalImporter) ImportDirectory(ctx context.Context, dirPath string) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{}

	files, err := collectMarkdownFiles(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dirPath, err)
	}
	result.FilesFound = len(files)

	for _, absPath := range files {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "import cancelled")
			break
		}

		rel, _ := filepath.Rel(dirPath, absPath)

		data, err := os.ReadFile(absPath)
		if err != nil {
			log.Printf("import: skip %s: read error: %v", rel, err)
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: read error: %v", rel, err))
			continue
		}

		if len(strings.TrimSpace(string(data))) == 0 {
			result.FilesSkipped++
			continue
		}

		parsed, err := ParseJournalFile(data, absPath, rel)
		if err != nil {
			log.Printf("import: skip %s: parse error: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: parse error: %v", rel, err))
			continue
		}

		created, err := imp.storeNotes(ctx, parsed)
		result.RecordsCreated += created
		if err != nil {
			log.Printf("import: partial store of %s: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: store error: %v", rel, err))
			continue
		}

		result.FilesProcessed++
	}

	result.Duration = time.Since(start)
	return result, nil
}

// storeNotes creates one pending record per note and returns how many were
// written before the first store failure, if any.
func (imp *JournalImporter) storeNotes(ctx context.Context, parsed *ParsedJournal) (int, error) {
	created := 0
	for _, note := range parsed.Notes {
		if _, err := imp.store.Create(ctx, note, types.StatusPending); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// collectMarkdownFiles returns all .md files under root, sorted by WalkDir's
// lexical order so daily notes import chronologically.
func collectMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.obsidian, .git) hold tool state, not notes.
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
