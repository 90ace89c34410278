// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog writes a queryable SQLite snapshot of the topic index and
// paper detail store. The JSON stores stay authoritative; the catalog is
// rebuilt from them on demand and used for offline queries such as title
// lookup.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-mcp/internal/store"
	"github.com/pdiddy/research-mcp/pkg/types"
)

// Catalog manages the snapshot SQLite database.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens or creates the snapshot database at path, creating its
// directory and schema when missing.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Catalog{db: db, path: path}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path returns the database file location.
func (c *Catalog) Path() string {
	return c.path
}

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT,
			summary TEXT,
			published TEXT,
			updated TEXT,
			url TEXT,
			pdf_url TEXT,
			category TEXT,
			doi TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			key TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS topic_papers (
			topic_key TEXT NOT NULL REFERENCES topics(key) ON DELETE CASCADE,
			paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			PRIMARY KEY (topic_key, paper_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_topic_papers_paper_id ON topic_papers(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published)`,
		`CREATE TABLE IF NOT EXISTS snapshot_info (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Summary holds counts from a snapshot rebuild.
type Summary struct {
	Papers int
	Topics int
	Links  int

	// Dangling counts topic identifiers with no stored record. They are
	// left out of the snapshot.
	Dangling int
}

// Rebuild replaces the catalog contents with papers and topics in a single
// transaction. Readers see either the previous snapshot or the new one.
func (c *Catalog) Rebuild(ctx context.Context, papers []types.Paper, topics []store.TopicEntry, now time.Time) (Summary, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM topic_papers`,
		`DELETE FROM topics`,
		`DELETE FROM papers`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return Summary{}, fmt.Errorf("clearing snapshot: %w", err)
		}
	}

	var summary Summary
	known := make(map[string]bool, len(papers))

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (id, title, authors, summary, published, updated, url, pdf_url, category, doi)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Summary{}, fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	for _, p := range papers {
		authorsJSON, _ := json.Marshal(p.Authors)
		var updated string
		if p.Updated != nil {
			updated = p.Updated.UTC().Format(time.RFC3339)
		}
		_, err := paperStmt.ExecContext(ctx,
			p.ID, p.Title, string(authorsJSON), p.Summary,
			formatTime(p.Published), updated,
			p.URL, p.PDFURL, p.Category, p.DOI,
		)
		if err != nil {
			return Summary{}, fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}
		known[p.ID] = true
		summary.Papers++
	}

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO topic_papers (topic_key, paper_id, rank) VALUES (?, ?, ?)`)
	if err != nil {
		return Summary{}, fmt.Errorf("preparing link insert: %w", err)
	}
	defer linkStmt.Close()

	for _, t := range topics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO topics (key, topic, updated_at) VALUES (?, ?, ?)`,
			t.Key, t.Topic, formatTime(t.UpdatedAt),
		)
		if err != nil {
			return Summary{}, fmt.Errorf("inserting topic %q: %w", t.Topic, err)
		}
		summary.Topics++

		for rank, id := range t.PaperIDs {
			if !known[id] {
				summary.Dangling++
				continue
			}
			if _, err := linkStmt.ExecContext(ctx, t.Key, id, rank); err != nil {
				return Summary{}, fmt.Errorf("linking %s to %q: %w", id, t.Topic, err)
			}
			summary.Links++
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_info (key, value) VALUES ('generated_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return Summary{}, fmt.Errorf("recording snapshot time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("committing snapshot: %w", err)
	}
	return summary, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// GeneratedAt returns the time of the last successful rebuild, or the
// zero time if the catalog has never been built.
func (c *Catalog) GeneratedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM snapshot_info WHERE key = 'generated_at'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading snapshot time: %w", err)
	}
	return time.Parse(time.RFC3339, value)
}
