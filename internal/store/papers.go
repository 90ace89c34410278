// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/pdiddy/research-mcp/pkg/types"
)

// PaperStore maps paper identifiers to full records. It is the only source
// extract_info reads from.
type PaperStore struct {
	file jsonFile[types.Paper]

	mu     sync.Mutex
	papers map[string]types.Paper
}

// NewPaperStore returns a store backed by dir/papers.json. The file is not
// read until the first call that needs it.
func NewPaperStore(dir string, logger *slog.Logger) *PaperStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaperStore{
		file: jsonFile[types.Paper]{path: filepath.Join(dir, papersFile), logger: logger},
	}
}

func (s *PaperStore) loadLocked() {
	if s.papers != nil {
		return
	}
	s.papers = s.file.load()
}

// Get returns the record for id. Version suffixes are ignored.
func (s *PaperStore) Get(id string) (types.Paper, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	p, ok := s.papers[types.CanonicalID(id)]
	if !ok {
		return types.Paper{}, false
	}
	p.Authors = slices.Clone(p.Authors)
	return p, true
}

// Upsert stores every record in papers, replacing any record with the same
// identifier, and rewrites the backing file once. All records are
// validated first; if one is invalid nothing is written.
func (s *PaperStore) Upsert(papers []types.Paper) error {
	if len(papers) == 0 {
		return nil
	}
	for _, p := range papers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("upserting papers: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	next := make(map[string]types.Paper, len(s.papers)+len(papers))
	for k, v := range s.papers {
		next[k] = v
	}
	for _, p := range papers {
		p.Authors = slices.Clone(p.Authors)
		next[p.ID] = p
	}

	if err := s.file.save(next); err != nil {
		return err
	}
	s.papers = next
	return nil
}

// CountPapers returns the number of stored records.
func (s *PaperStore) CountPapers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return len(s.papers)
}

// All returns every stored record sorted by identifier.
func (s *PaperStore) All() []types.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	out := make([]types.Paper, 0, len(s.papers))
	for _, p := range s.papers {
		p.Authors = slices.Clone(p.Authors)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
