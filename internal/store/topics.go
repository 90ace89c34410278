// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// TopicEntry is the cached identifier list for one normalized topic.
type TopicEntry struct {
	// Key is the normalized topic. It is the map key on disk and is not
	// repeated inside the entry.
	Key string `json:"-"`

	// Topic is the topic as it was first searched, for display.
	Topic string `json:"topic"`

	// PaperIDs is the relevance-ordered, duplicate-free identifier list.
	PaperIDs []string `json:"paper_ids"`

	// UpdatedAt is the time of the last merge that added identifiers.
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeTopic returns the lookup key for topic: trimmed, inner runs of
// whitespace collapsed to one space, and Unicode case-folded. Reads and
// writes both go through it, so "Machine  Learning" and "machine learning"
// share an entry.
func NormalizeTopic(topic string) string {
	collapsed := strings.Join(strings.Fields(topic), " ")
	return cases.Fold().String(collapsed)
}

// TopicIndex maps normalized topics to identifier lists. The index only
// grows: merges append, nothing removes.
type TopicIndex struct {
	file jsonFile[TopicEntry]
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]TopicEntry
}

// NewTopicIndex returns an index backed by dir/topics.json. The file is
// not read until the first call that needs it.
func NewTopicIndex(dir string, logger *slog.Logger) *TopicIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicIndex{
		file: jsonFile[TopicEntry]{path: filepath.Join(dir, topicsFile), logger: logger},
		now:  time.Now,
	}
}

// loadLocked reads the backing file on first use. Callers hold t.mu.
func (t *TopicIndex) loadLocked() {
	if t.entries != nil {
		return
	}
	t.entries = t.file.load()
}

// Lookup returns a copy of the identifiers cached for topic and whether an
// entry exists.
func (t *TopicIndex) Lookup(topic string) ([]string, bool) {
	key := NormalizeTopic(topic)
	if key == "" {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadLocked()

	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(e.PaperIDs), true
}

// Merge appends the identifiers in ids that topic does not already hold,
// keeping the existing order and the order of ids for the new ones.
// Duplicates inside ids keep their first occurrence. Existing identifiers
// are never removed. The merged list is returned. Merging no identifiers
// into an unknown topic creates no entry.
func (t *TopicIndex) Merge(topic string, ids []string) ([]string, error) {
	key := NormalizeTopic(topic)
	if key == "" {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadLocked()

	e, exists := t.entries[key]
	if !exists {
		e = TopicEntry{Topic: strings.Join(strings.Fields(topic), " ")}
	}

	seen := make(map[string]bool, len(e.PaperIDs)+len(ids))
	for _, id := range e.PaperIDs {
		seen[id] = true
	}
	merged := slices.Clone(e.PaperIDs)
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}

	if len(merged) == len(e.PaperIDs) {
		return merged, nil
	}

	e.PaperIDs = merged
	e.UpdatedAt = t.now().UTC()

	next := make(map[string]TopicEntry, len(t.entries)+1)
	for k, v := range t.entries {
		next[k] = v
	}
	next[key] = e
	if err := t.file.save(next); err != nil {
		return nil, err
	}
	t.entries = next
	return slices.Clone(merged), nil
}

// CountTopics returns the number of topic entries.
func (t *TopicIndex) CountTopics() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadLocked()
	return len(t.entries)
}

// Entries returns every topic entry sorted by key.
func (t *TopicIndex) Entries() []TopicEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadLocked()

	out := make([]TopicEntry, 0, len(t.entries))
	for k, e := range t.entries {
		e.Key = k
		e.PaperIDs = slices.Clone(e.PaperIDs)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
