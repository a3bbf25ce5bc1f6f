package importer

import (
	"testing"
	"time"
)

func TestParseJournalFile_FrontmatterDate(t *testing.T) {
	content := []byte(`---
date: 2026-08-30
tags: [journal]
---
- 牛乳を買う
- call the dentist
`)
	parsed, err := ParseJournalFile(content, "/vault/2026-08-30.md", "2026-08-30.md")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}

	if parsed.Date.Format("2006-01-02") != "2026-08-30" {
		t.Errorf("unexpected date: %v", parsed.Date)
	}
	if len(parsed.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d: %v", len(parsed.Notes), parsed.Notes)
	}
	if parsed.Notes[0] != "牛乳を買う" {
		t.Errorf("unexpected first note: %q", parsed.Notes[0])
	}
}

func TestParseJournalFile_FilenameDateFallback(t *testing.T) {
	parsed, err := ParseJournalFile([]byte("- one note"), "/vault/daily/2026-01-15.md", "daily/2026-01-15.md")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.Local)
	if !parsed.Date.Equal(want) {
		t.Errorf("expected filename date %v, got %v", want, parsed.Date)
	}
}

func TestParseJournalFile_NoFrontmatter(t *testing.T) {
	parsed, err := ParseJournalFile([]byte("plain line\n\nanother line\n"), "/vault/notes.md", "notes.md")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}
	if !parsed.Date.IsZero() {
		t.Errorf("expected zero date, got %v", parsed.Date)
	}
	if len(parsed.Notes) != 2 {
		t.Errorf("expected 2 notes, got %v", parsed.Notes)
	}
}

func TestParseJournalFile_SkipsStructuralLines(t *testing.T) {
	content := []byte(`# Daily log

## Morning

- first thought

---

` + "```" + `
code, not a note
` + "```" + `

second thought
`)
	parsed, err := ParseJournalFile(content, "/vault/log.md", "log.md")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}
	if len(parsed.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %v", parsed.Notes)
	}
	if parsed.Notes[0] != "first thought" || parsed.Notes[1] != "second thought" {
		t.Errorf("unexpected notes: %v", parsed.Notes)
	}
}

func TestParseJournalFile_BulletVariants(t *testing.T) {
	content := []byte(`- dash bullet
* star bullet
+ plus bullet
- [ ] open task
- [x] closed task
`)
	parsed, err := ParseJournalFile(content, "/vault/t.md", "t.md")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}
	want := []string{"dash bullet", "star bullet", "plus bullet", "open task", "closed task"}
	if len(parsed.Notes) != len(want) {
		t.Fatalf("expected %d notes, got %v", len(want), parsed.Notes)
	}
	for i, note := range parsed.Notes {
		if note != want[i] {
			t.Errorf("note %d: got %q, want %q", i, note, want[i])
		}
	}
}

func TestParseJournalFile_StripsWikiLinks(t *testing.T) {
	content := []byte("- talked to [[Tanaka-san]] about [[project-x|the project]]\n")
	parsed, err := ParseJournalFile(content, "/vault/t.md", "t.md")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}
	if parsed.Notes[0] != "talked to Tanaka-san about the project" {
		t.Errorf("wiki links not stripped: %q", parsed.Notes[0])
	}
}

func TestParseJournalFile_BadFrontmatter(t *testing.T) {
	content := []byte("---\n: not yaml :\n\t-\n---\nbody\n")
	if _, err := ParseJournalFile(content, "/vault/bad.md", "bad.md"); err == nil {
		t.Error("expected error for malformed frontmatter")
	}
}

func TestParseJournalFile_UnclosedFrontmatterTreatedAsBody(t *testing.T) {
	content := []byte("---\ndate: 2026-08-30\nno closing delimiter\n")
	parsed, err := ParseJournalFile(content, "/vault/t.md", "t.md")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}
	if len(parsed.Notes) != 2 {
		t.Errorf("unclosed frontmatter should be parsed as body text, got %v", parsed.Notes)
	}
}
