// Package snapshot takes periodic point-in-time copies of the sqlite note
// database, verifies them, and prunes old copies. It only applies to the
// sqlite engine; postgres deployments are expected to use pg_dump or
// managed backups.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Options configures a snapshot Service.
type Options struct {
	// DBPath is the sqlite database file to snapshot.
	DBPath string

	// Dir is where snapshot files are written.
	Dir string

	// Interval between automatic snapshots. Defaults to one hour.
	Interval time.Duration

	// KeepLatest is how many most-recent snapshots survive pruning
	// regardless of age. Defaults to 6.
	KeepLatest int

	// KeepDays is how many calendar days keep their newest snapshot.
	// Defaults to 14.
	KeepDays int
}

// Info describes one snapshot file on disk.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Service writes and prunes snapshots of the note database.
type Service struct {
	dbPath     string
	dir        string
	interval   time.Duration
	keepLatest int
	keepDays   int

	mu       sync.Mutex
	lastRun  time.Time
	lastPath string
}

// NewService validates options and prepares the snapshot directory.
func NewService(opts Options) (*Service, error) {
	if opts.DBPath == "" {
		return nil, fmt.Errorf("snapshot: database path is required")
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("snapshot: directory is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.KeepLatest <= 0 {
		opts.KeepLatest = 6
	}
	if opts.KeepDays <= 0 {
		opts.KeepDays = 14
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: failed to create directory: %w", err)
	}
	return &Service{
		dbPath:     opts.DBPath,
		dir:        opts.Dir,
		interval:   opts.Interval,
		keepLatest: opts.KeepLatest,
		keepDays:   opts.KeepDays,
	}, nil
}

// Run takes snapshots at the configured interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Snapshot service started: interval=%v, dir=%s", s.interval, s.dir)
	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping")
			return
		case <-ticker.C:
			if path, err := s.Take(ctx); err != nil {
				log.Printf("Scheduled snapshot failed: %v", err)
			} else {
				log.Printf("Snapshot written: %s", path)
			}
		}
	}
}

// Take writes one verified snapshot and prunes old ones. Returns the path of
// the new snapshot file.
func (s *Service) Take(ctx context.Context) (string, error) {
	if _, err := os.Stat(s.dbPath); err != nil {
		return "", fmt.Errorf("snapshot: database not found: %w", err)
	}

	name := fmt.Sprintf("tubuyaki-%s.db", time.Now().Format("20060102-150405.000000"))
	path := filepath.Join(s.dir, name)

	if err := vacuumInto(ctx, s.dbPath, path); err != nil {
		return "", err
	}
	if err := verify(ctx, path); err != nil {
		os.Remove(path)
		return "", err
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastPath = path
	s.mu.Unlock()

	if err := s.prune(); err != nil {
		// A failed prune never fails the snapshot itself.
		log.Printf("Warning: snapshot prune failed: %v", err)
	}
	return path, nil
}

// Restore replaces the note database with the given snapshot. The server must
// not be running against the database file while this executes.
func (s *Service) Restore(ctx context.Context, snapshotPath string) error {
	if err := verify(ctx, snapshotPath); err != nil {
		return err
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("snapshot: failed to open %s: %w", snapshotPath, err)
	}
	defer src.Close()

	dst, err := os.Create(s.dbPath)
	if err != nil {
		return fmt.Errorf("snapshot: failed to create target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("snapshot: failed to copy: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("snapshot: failed to sync target: %w", err)
	}
	return verify(ctx, s.dbPath)
}

// Last returns when the last snapshot ran and where it was written.
func (s *Service) Last() (time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastPath
}

// vacuumInto copies the live database into destPath. VACUUM INTO produces a
// consistent copy even under WAL mode.
func vacuumInto(ctx context.Context, sourcePath, destPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("snapshot: failed to open source: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("snapshot: source not readable: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("snapshot: vacuum failed: %w", err)
	}
	return nil
}

// verify runs sqlite's integrity check against a snapshot file.
func verify(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("snapshot: failed to open %s: %w", path, err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("snapshot: integrity check failed to run: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("snapshot: integrity check failed: %s", result)
	}
	return nil
}
