// Package sqlite provides the default SQLite implementation of
// storage.RecordStore using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/google/uuid"

	"github.com/snagasawa/tubuyaki/internal/storage"
	"github.com/snagasawa/tubuyaki/pkg/types"
)

// RecordStore implements storage.RecordStore using SQLite.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore opens (creating if necessary) a SQLite database at the given
// DSN and applies the schema. The parent directory is created if it does not
// exist. Use ":memory:" for an ephemeral store in tests.
func NewRecordStore(dsn string) (*RecordStore, error) {
	if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode lets readers proceed without blocking the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing immediately when the connection is held.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &RecordStore{db: db}, nil
}

// GetDB returns the underlying database connection.
func (s *RecordStore) GetDB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// Create persists a new record containing only the raw text and status.
// The store allocates the ID and both timestamps.
func (s *RecordStore) Create(ctx context.Context, rawText string, status types.RecordStatus) (*types.Record, error) {
	if rawText == "" {
		return nil, fmt.Errorf("%w: rawText is required", storage.ErrInvalidInput)
	}
	if !types.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", storage.ErrInvalidInput, status)
	}

	now := time.Now().UTC()
	rec := &types.Record{
		ID:        uuid.New().String(),
		RawText:   rawText,
		Intent:    []string{},
		Ideas:     []string{},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, raw_text, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.RawText, string(rec.Status), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to create record: %w", err)
	}

	return rec, nil
}

// recordColumns is the canonical column list shared by Get and List.
const recordColumns = `
	id, raw_text, clean_text, intent, entities, summary_3lines,
	ideas, next_action, confidence, context,
	feedback, feedback_detail, status, created_at, updated_at
`

// Get retrieves a record by ID.
func (s *RecordStore) Get(ctx context.Context, id string) (*types.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get record: %w", err)
	}
	return rec, nil
}

// Update applies the partial update described by upd and bumps updated_at.
// The merge runs as a single UPDATE statement, so interleaved updates on the
// same ID resolve last-write-wins at the database level.
func (s *RecordStore) Update(ctx context.Context, id string, upd storage.RecordUpdate) (*types.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	set := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	appendSet := func(col string, val interface{}) {
		set = append(set, col+" = ?")
		args = append(args, val)
	}

	if upd.RawText != nil {
		appendSet("raw_text", *upd.RawText)
	}
	if upd.CleanText != nil {
		appendSet("clean_text", *upd.CleanText)
	}
	if upd.Intent != nil {
		data, err := json.Marshal(upd.Intent)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to marshal intent: %w", err)
		}
		appendSet("intent", string(data))
	}
	if upd.Entities != nil {
		data, err := json.Marshal(upd.Entities)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to marshal entities: %w", err)
		}
		appendSet("entities", string(data))
	}
	if upd.Summary3Lines != nil {
		appendSet("summary_3lines", *upd.Summary3Lines)
	}
	if upd.Ideas != nil {
		data, err := json.Marshal(upd.Ideas)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to marshal ideas: %w", err)
		}
		appendSet("ideas", string(data))
	}
	if upd.NextAction != nil {
		appendSet("next_action", *upd.NextAction)
	}
	if upd.Confidence != nil {
		appendSet("confidence", *upd.Confidence)
	}
	if upd.Context != nil {
		appendSet("context", *upd.Context)
	}
	if upd.Status != nil {
		if !types.IsValidStatus(*upd.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", storage.ErrInvalidInput, *upd.Status)
		}
		appendSet("status", string(*upd.Status))
	}

	if upd.ClearFeedback {
		set = append(set, "feedback = NULL", "feedback_detail = NULL")
	} else {
		if upd.Feedback != nil {
			appendSet("feedback", string(*upd.Feedback))
		}
		switch {
		case upd.FeedbackDetail != nil:
			appendSet("feedback_detail", string(*upd.FeedbackDetail))
		case upd.ClearFeedbackDetail:
			set = append(set, "feedback_detail = NULL")
		}
	}

	query := "UPDATE records SET " + strings.Join(set, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, storage.ErrNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes a record permanently.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns records matching opts, newest first.
func (s *RecordStore) List(ctx context.Context, opts storage.ListOptions) ([]*types.Record, error) {
	opts.Normalize()

	query := `SELECT ` + recordColumns + ` FROM records`
	var where []string
	var args []interface{}

	if opts.Query != "" {
		// Substring OR-match over the text-bearing fields. Ideas are matched
		// against their serialized form, same as the other JSON columns.
		where = append(where, `(
			raw_text LIKE '%' || ? || '%'
			OR clean_text LIKE '%' || ? || '%'
			OR summary_3lines LIKE '%' || ? || '%'
			OR ideas LIKE '%' || ? || '%'
			OR next_action LIKE '%' || ? || '%'
		)`)
		args = append(args, opts.Query, opts.Query, opts.Query, opts.Query, opts.Query)
	}

	if opts.Intent != "" {
		// Match the quoted JSON element so "Note" doesn't match a hypothetical
		// future tag that merely contains the substring.
		where = append(where, `intent LIKE '%"' || ? || '"%'`)
		args = append(args, opts.Intent)
	}

	if !opts.CreatedFrom.IsZero() {
		where = append(where, `created_at >= ?`)
		args = append(args, opts.CreatedFrom.UTC())
	}

	if !opts.CreatedTo.IsZero() {
		where = append(where, `created_at <= ?`)
		args = append(args, opts.CreatedTo.UTC())
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += ` ORDER BY created_at DESC`
	if opts.Limit != storage.ListUnlimited {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*types.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: row iteration failed: %w", err)
	}

	return records, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRecord.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one record row, unmarshalling JSON columns and mapping
// NULLs to nil pointers / empty slices.
func scanRecord(row rowScanner) (*types.Record, error) {
	var rec types.Record
	var cleanText, intentJSON, entitiesJSON, summary, ideasJSON sql.NullString
	var nextAction, contextTag, feedback, feedbackDetail sql.NullString
	var confidence sql.NullFloat64
	var status string

	err := row.Scan(
		&rec.ID,
		&rec.RawText,
		&cleanText,
		&intentJSON,
		&entitiesJSON,
		&summary,
		&ideasJSON,
		&nextAction,
		&confidence,
		&contextTag,
		&feedback,
		&feedbackDetail,
		&status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = types.RecordStatus(status)
	rec.Intent = []string{}
	rec.Ideas = []string{}

	if cleanText.Valid {
		rec.CleanText = &cleanText.String
	}
	if intentJSON.Valid && intentJSON.String != "" {
		if err := json.Unmarshal([]byte(intentJSON.String), &rec.Intent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal intent: %w", err)
		}
	}
	if entitiesJSON.Valid && entitiesJSON.String != "" {
		var e types.Entities
		if err := json.Unmarshal([]byte(entitiesJSON.String), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entities: %w", err)
		}
		rec.Entities = &e
	}
	if summary.Valid {
		rec.Summary3Lines = &summary.String
	}
	if ideasJSON.Valid && ideasJSON.String != "" {
		if err := json.Unmarshal([]byte(ideasJSON.String), &rec.Ideas); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ideas: %w", err)
		}
	}
	if nextAction.Valid {
		rec.NextAction = &nextAction.String
	}
	if confidence.Valid {
		rec.Confidence = &confidence.Float64
	}
	if contextTag.Valid {
		rec.Context = &contextTag.String
	}
	if feedback.Valid {
		f := types.Feedback(feedback.String)
		rec.Feedback = &f
	}
	if feedbackDetail.Valid {
		d := types.FeedbackDetail(feedbackDetail.String)
		rec.FeedbackDetail = &d
	}

	return &rec, nil
}
