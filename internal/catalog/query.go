// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

const defaultFindLimit = 20

// Match is a paper whose title matched a Find query, with the topics it
// is cached under.
type Match struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Authors   []string `json:"authors" yaml:"authors"`
	Published string   `json:"published" yaml:"published"`
	Category  string   `json:"category,omitempty" yaml:"category,omitempty"`
	Topics    []string `json:"topics" yaml:"topics"`
}

// Find returns papers whose title contains every word of query, ignoring
// case, newest first.
func (c *Catalog) Find(ctx context.Context, query string, limit int) ([]Match, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, fmt.Errorf("empty title query")
	}
	if limit <= 0 {
		limit = defaultFindLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT p.id, p.title, p.authors, p.published, p.category,
			(SELECT json_group_array(t.topic) FROM topic_papers tp
				JOIN topics t ON t.key = tp.topic_key
				WHERE tp.paper_id = p.id)
		FROM papers p
		WHERE 1=1`)
	for _, w := range words {
		qb.WriteString(` AND instr(lower(p.title), lower(?)) > 0`)
		args = append(args, w)
	}
	qb.WriteString(` ORDER BY p.published DESC, p.id LIMIT ?`)
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m           Match
			authorsJSON sql.NullString
			category    sql.NullString
			topicsJSON  sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Title, &authorsJSON, &m.Published, &category, &topicsJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if authorsJSON.Valid {
			if err := json.Unmarshal([]byte(authorsJSON.String), &m.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors for %s: %w", m.ID, err)
			}
		}
		m.Category = category.String
		if topicsJSON.Valid {
			if err := json.Unmarshal([]byte(topicsJSON.String), &m.Topics); err != nil {
				return nil, fmt.Errorf("decoding topics for %s: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Counts returns the number of topics and papers in the snapshot.
func (c *Catalog) Counts(ctx context.Context) (topics, papers int, err error) {
	err = c.db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM topics), (SELECT count(*) FROM papers)`,
	).Scan(&topics, &papers)
	if err != nil {
		return 0, 0, fmt.Errorf("counting snapshot rows: %w", err)
	}
	return topics, papers, nil
}

// TopicRow is one topic of the snapshot with its identifiers in rank order.
type TopicRow struct {
	Topic     string   `json:"topic" yaml:"topic"`
	UpdatedAt string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	PaperIDs  []string `json:"paper_ids" yaml:"paper_ids"`
}

// Topics lists the snapshot's topics ordered by key.
func (c *Catalog) Topics(ctx context.Context) ([]TopicRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT t.key, t.topic, t.updated_at, tp.paper_id
		FROM topics t
		LEFT JOIN topic_papers tp ON tp.topic_key = t.key
		ORDER BY t.key, tp.rank`)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var (
		out     []TopicRow
		lastKey string
	)
	for rows.Next() {
		var (
			key, topic string
			updatedAt  sql.NullString
			paperID    sql.NullString
		)
		if err := rows.Scan(&key, &topic, &updatedAt, &paperID); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if len(out) == 0 || key != lastKey {
			out = append(out, TopicRow{Topic: topic, UpdatedAt: updatedAt.String, PaperIDs: []string{}})
			lastKey = key
		}
		if paperID.Valid {
			cur := &out[len(out)-1]
			cur.PaperIDs = append(cur.PaperIDs, paperID.String)
		}
	}
	return out, rows.Err()
}
