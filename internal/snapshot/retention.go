package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// List returns all snapshot files in the directory, newest first.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: failed to read directory: %w", err)
	}

	var snaps []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, Info{
			Path:      filepath.Join(s.dir, entry.Name()),
			Timestamp: info.ModTime(),
			Size:      info.Size(),
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.After(snaps[j].Timestamp)
	})
	return snaps, nil
}

// prune deletes snapshots that fall outside the retention window. The newest
// keepLatest files always survive; beyond those, the newest snapshot of each
// of the last keepDays calendar days survives. Everything else is removed.
func (s *Service) prune() error {
	snaps, err := s.List()
	if err != nil {
		return err
	}
	if len(snaps) <= s.keepLatest {
		return nil
	}

	keep := make(map[string]bool, len(snaps))
	for _, snap := range snaps[:s.keepLatest] {
		keep[snap.Path] = true
	}

	daysSeen := 0
	lastDay := ""
	for _, snap := range snaps {
		day := snap.Timestamp.Format("2006-01-02")
		if day == lastDay {
			continue
		}
		lastDay = day
		daysSeen++
		if daysSeen > s.keepDays {
			break
		}
		// Newest-first order means the first file of a day is its newest.
		keep[snap.Path] = true
	}

	var lastErr error
	for _, snap := range snaps {
		if keep[snap.Path] {
			continue
		}
		if err := os.Remove(snap.Path); err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("snapshot: failed to delete some snapshots: %w", lastErr)
	}
	return nil
}
