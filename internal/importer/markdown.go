// Package importer parses Markdown journal exports (daily-note folders,
// voice-memo transcripts dumped as bullet lists) into individual tubuyaki
// notes and loads them into the record store.
package importer

import (
	"bufio"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ParsedJournal represents a single Markdown journal file that has been parsed.
type ParsedJournal struct {
	// Path is the absolute filesystem path to the file.
	Path string

	// RelativePath is the path relative to the import root directory.
	RelativePath string

	// Date is from the frontmatter "date" field, falling back to a
	// YYYY-MM-DD filename, or zero when neither is present.
	Date time.Time

	// Frontmatter holds the parsed YAML frontmatter key/value pairs.
	Frontmatter map[string]interface{}

	// Notes are the individual utterances extracted from the body, one per
	// bullet or paragraph line, in file order.
	Notes []string
}

// bulletRe matches list markers at the start of a line, including task
// checkboxes: "- ", "* ", "+ ", "- [ ] ", "- [x] ".
var bulletRe = regexp.MustCompile(`^\s*[-*+]\s+(?:\[[ xX]\]\s+)?`)

// wikilinkRe matches [[link]] and [[link|alias]] patterns left over from
// Obsidian-style vaults; imports keep the readable text only.
var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]|]+?)(?:\|([^\[\]]+?))?\]\]`)

// ParseJournalFile parses a single journal file's content.
// relativePath is used for error messages and the filename date fallback.
func ParseJournalFile(content []byte, absolutePath, relativePath string) (*ParsedJournal, error) {
	text := string(content)

	fm, body, err := splitFrontmatter(text)
	if err != nil {
		return nil, fmt.Errorf("frontmatter parse error in %s: %w", relativePath, err)
	}

	date := extractDate(fm)
	if date.IsZero() {
		date = dateFromFilename(relativePath)
	}

	return &ParsedJournal{
		Path:         absolutePath,
		RelativePath: relativePath,
		Date:         date,
		Frontmatter:  fm,
		Notes:        extractNotes(body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the Markdown body. Returns empty map and full text when no frontmatter found.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		// No closing delimiter, treat the entire file as body.
		return map[string]interface{}{}, text, nil
	}

	fmText := strings.Join(lines[1:closeIdx], "\n")
	fm := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return nil, "", err
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body, nil
}

// extractNotes turns the Markdown body into individual notes: one per bullet
// item or plain paragraph line. Headings, blank lines, code fences, and
// horizontal rules are skipped.
func extractNotes(body string) []string {
	notes := []string{}
	inFence := false

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") || trimmed == "---" || trimmed == "***" {
			continue
		}

		note := bulletRe.ReplaceAllString(line, "")
		note = stripWikiLinks(note)
		note = strings.TrimSpace(note)
		if note != "" {
			notes = append(notes, note)
		}
	}
	return notes
}

// stripWikiLinks replaces [[target]] with target and [[target|alias]] with
// alias, keeping only readable text.
func stripWikiLinks(text string) string {
	return wikilinkRe.ReplaceAllStringFunc(text, func(raw string) string {
		m := wikilinkRe.FindStringSubmatch(raw)
		if m[2] != "" {
			return m[2]
		}
		return m[1]
	})
}

// extractDate reads the frontmatter "date" field. yaml.v3 parses bare dates
// as time.Time; string values are parsed as YYYY-MM-DD.
func extractDate(fm map[string]interface{}) time.Time {
	raw, ok := fm["date"]
	if !ok {
		return time.Time{}
	}
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// dateFromFilename parses a YYYY-MM-DD filename into a date.
func dateFromFilename(relativePath string) time.Time {
	base := strings.TrimSuffix(filepath.Base(relativePath), filepath.Ext(relativePath))
	if t, err := time.ParseInLocation("2006-01-02", base, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
