// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the paper stores,
// the arXiv gateway, and the tool surface: the Paper record, tool results,
// and process configuration.
package types

// ResultSource records where a search_papers answer came from.
type ResultSource string

const (
	// SourceCache means the topic index already held enough identifiers.
	SourceCache ResultSource = "cache"

	// SourceRemote means the remote index was queried and the stores updated.
	SourceRemote ResultSource = "remote"

	// SourceStaleCache means the remote index failed and cached identifiers
	// were served instead.
	SourceStaleCache ResultSource = "stale-cache"
)

// SearchResult is the answer to a search_papers call.
type SearchResult struct {
	// Topic is the topic as the caller supplied it, trimmed.
	Topic string `json:"topic" yaml:"topic"`

	// PaperIDs are the identifiers in relevance order, at most max_results long.
	PaperIDs []string `json:"paper_ids" yaml:"paper_ids"`

	// Source tells whether the answer was served from cache or the remote index.
	Source ResultSource `json:"source" yaml:"source"`
}

// TopicStats summarizes one topic entry.
type TopicStats struct {
	Topic       string `json:"topic" yaml:"topic"`
	PaperCount  int    `json:"paper_count" yaml:"paper_count"`
	LatestPaper string `json:"latest_paper,omitempty" yaml:"latest_paper,omitempty"`
	OldestPaper string `json:"oldest_paper,omitempty" yaml:"oldest_paper,omitempty"`
	LastUpdated string `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// DatabaseStats is the answer to a get_database_stats call.
type DatabaseStats struct {
	TopicCount  int          `json:"topic_count" yaml:"topic_count"`
	PaperCount  int          `json:"paper_count" yaml:"paper_count"`
	Topics      []TopicStats `json:"topics" yaml:"topics"`
	GeneratedAt string       `json:"generated_at" yaml:"generated_at"`
}
