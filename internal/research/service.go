// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research implements the paper tools on top of the local stores
// and the remote index: topic search with cache-first lookup, paper
// detail retrieval, and database statistics. The same Service backs the
// MCP tools and the CLI commands.
package research

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/research-mcp/internal/search"
	"github.com/pdiddy/research-mcp/internal/store"
	"github.com/pdiddy/research-mcp/pkg/types"
)

// ErrInvalidArgument is returned when a caller supplies an empty topic, a
// non-positive result count, a malformed identifier, or an unknown export
// format.
var ErrInvalidArgument = errors.New("invalid argument")

// TopicIndex is the subset of store.TopicIndex the service uses.
type TopicIndex interface {
	Lookup(topic string) ([]string, bool)
	Merge(topic string, ids []string) ([]string, error)
	CountTopics() int
	Entries() []store.TopicEntry
}

// PaperStore is the subset of store.PaperStore the service uses.
type PaperStore interface {
	Get(id string) (types.Paper, bool)
	Upsert(papers []types.Paper) error
	CountPapers() int
}

// Service answers tool calls. Reads of the stores take the read lock; the
// upsert-then-merge pair after a remote fetch takes the write lock so that
// no reader observes a topic entry whose papers are not yet stored. The
// remote call itself runs without any lock held.
type Service struct {
	topics TopicIndex
	papers PaperStore
	remote search.Gateway
	cfg    types.Config
	logger *slog.Logger
	now    func() time.Time

	mu sync.RWMutex
}

// NewService wires a service from its collaborators. A nil logger falls
// back to slog.Default.
func NewService(topics TopicIndex, papers PaperStore, remote search.Gateway, cfg types.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		topics: topics,
		papers: papers,
		remote: remote,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Open builds a service over the file-backed stores under
// cfg.Store.PapersDir() and the arXiv gateway.
func Open(cfg types.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	dir := cfg.Store.PapersDir()
	return NewService(
		store.NewTopicIndex(dir, logger),
		store.NewPaperStore(dir, logger),
		search.NewArxivGateway(cfg.Arxiv),
		cfg,
		logger,
	)
}

// Config returns the configuration the service was built with.
func (s *Service) Config() types.Config {
	return s.cfg
}

type loggerKey struct{}

// withLogger attaches a request-scoped logger to ctx.
func withLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return s.logger
}

// SearchPapers returns up to maxResults identifiers for topic. The topic
// index is consulted first and answers alone when it already holds at
// least maxResults identifiers. Otherwise the remote index is queried, the
// returned records are stored, and their identifiers merged into the
// topic entry. When the remote index fails and the topic has a cached
// entry, the cached identifiers are served instead.
func (s *Service) SearchPapers(ctx context.Context, topic string, maxResults int) (types.SearchResult, error) {
	log := s.log(ctx)

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return types.SearchResult{}, fmt.Errorf("%w: topic must not be empty", ErrInvalidArgument)
	}
	if maxResults < 1 {
		return types.SearchResult{}, fmt.Errorf("%w: max_results must be at least 1, got %d", ErrInvalidArgument, maxResults)
	}
	if limit := s.cfg.Arxiv.MaxResultsLimit; limit > 0 && maxResults > limit {
		log.Info("clamping max_results", "requested", maxResults, "limit", limit)
		maxResults = limit
	}

	s.mu.RLock()
	cached, hasEntry := s.topics.Lookup(topic)
	s.mu.RUnlock()

	if hasEntry && len(cached) >= maxResults {
		log.Debug("topic cache hit", "topic", topic, "cached", len(cached))
		return searchResult(topic, cached, maxResults, types.SourceCache), nil
	}

	log.Info("querying remote index", "topic", topic, "max_results", maxResults, "cached", len(cached))
	papers, err := s.remote.Search(ctx, topic, maxResults)
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Info("search cancelled, discarding remote results", "topic", topic)
		return types.SearchResult{}, fmt.Errorf("searching %q: %w", topic, ctxErr)
	}
	if err != nil {
		if hasEntry && search.IsRemoteFailure(err) {
			log.Warn("remote index failed, serving cached results", "topic", topic, "error", err)
			return searchResult(topic, cached, maxResults, types.SourceStaleCache), nil
		}
		return types.SearchResult{}, fmt.Errorf("searching %q: %w", topic, err)
	}

	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.papers.Upsert(papers); err != nil {
		return types.SearchResult{}, fmt.Errorf("storing papers for %q: %w", topic, err)
	}
	merged, err := s.topics.Merge(topic, ids)
	if err != nil {
		return types.SearchResult{}, fmt.Errorf("updating topic %q: %w", topic, err)
	}

	log.Info("stored remote results", "topic", topic, "fetched", len(papers), "topic_total", len(merged))
	return searchResult(topic, merged, maxResults, types.SourceRemote), nil
}

func searchResult(topic string, ids []string, maxResults int, source types.ResultSource) types.SearchResult {
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return types.SearchResult{Topic: topic, PaperIDs: out, Source: source}
}

// PaperInfo is the answer to an extract_info call. An unknown paper is
// reported with Found false and a Message, not as an error.
type PaperInfo struct {
	Found   bool
	PaperID string
	Paper   *types.Paper
	Message string
}

// ExtractInfo looks up one paper in the local detail store. It never
// contacts the remote index.
func (s *Service) ExtractInfo(paperID string) (PaperInfo, error) {
	id, err := parsePaperID(paperID)
	if err != nil {
		return PaperInfo{}, err
	}

	s.mu.RLock()
	p, ok := s.papers.Get(id)
	s.mu.RUnlock()

	if !ok {
		return PaperInfo{
			PaperID: id,
			Message: fmt.Sprintf("There's no saved information related to paper %s.", id),
		}, nil
	}
	return PaperInfo{Found: true, PaperID: id, Paper: &p}, nil
}

func parsePaperID(paperID string) (string, error) {
	paperID = strings.TrimSpace(paperID)
	if err := types.ValidateID(paperID); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return types.CanonicalID(paperID), nil
}

// DatabaseStats counts stored topics and papers and summarizes each topic.
// Topics are ordered by paper count, largest first.
func (s *Service) DatabaseStats() types.DatabaseStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.topics.Entries()
	stats := types.DatabaseStats{
		TopicCount:  s.topics.CountTopics(),
		PaperCount:  s.papers.CountPapers(),
		Topics:      make([]types.TopicStats, 0, len(entries)),
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}

	for _, e := range entries {
		ts := types.TopicStats{
			Topic:      e.Topic,
			PaperCount: len(e.PaperIDs),
		}
		if !e.UpdatedAt.IsZero() {
			ts.LastUpdated = e.UpdatedAt.UTC().Format(time.RFC3339)
		}

		var latest, oldest time.Time
		for _, id := range e.PaperIDs {
			p, ok := s.papers.Get(id)
			if !ok || p.Published.IsZero() {
				continue
			}
			if latest.IsZero() || p.Published.After(latest) {
				latest = p.Published
			}
			if oldest.IsZero() || p.Published.Before(oldest) {
				oldest = p.Published
			}
		}
		if !latest.IsZero() {
			ts.LatestPaper = latest.UTC().Format(time.RFC3339)
			ts.OldestPaper = oldest.UTC().Format(time.RFC3339)
		}
		stats.Topics = append(stats.Topics, ts)
	}

	slices.SortStableFunc(stats.Topics, func(a, b types.TopicStats) int {
		if c := cmp.Compare(b.PaperCount, a.PaperCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Topic, b.Topic)
	})
	return stats
}

// ListTopics returns the display form of every cached topic, ordered by
// normalized key.
func (s *Service) ListTopics() []string {
	s.mu.RLock()
	entries := s.topics.Entries()
	s.mu.RUnlock()

	topics := make([]string, len(entries))
	for i, e := range entries {
		topics[i] = e.Topic
	}
	return topics
}

// TopicPapers holds the stored records cached for one topic.
type TopicPapers struct {
	Topic  string
	Found  bool
	Papers []types.Paper
}

// TopicPapers returns the stored records for topic, newest first.
// Identifiers without a stored record are skipped.
func (s *Service) TopicPapers(topic string) (TopicPapers, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return TopicPapers{}, fmt.Errorf("%w: topic must not be empty", ErrInvalidArgument)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := TopicPapers{Topic: topic, Papers: []types.Paper{}}
	ids, ok := s.topics.Lookup(topic)
	if !ok {
		return out, nil
	}
	out.Found = true
	for _, id := range ids {
		if p, ok := s.papers.Get(id); ok {
			out.Papers = append(out.Papers, p)
		}
	}
	slices.SortStableFunc(out.Papers, func(a, b types.Paper) int {
		if c := b.Published.Compare(a.Published); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Export is the rendered form of one paper.
type Export struct {
	Found   bool
	PaperID string
	Format  Format
	Content string
}

// ExportPaper renders a stored paper in the requested format.
func (s *Service) ExportPaper(paperID, format string) (Export, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return Export{}, err
	}
	id, err := parsePaperID(paperID)
	if err != nil {
		return Export{}, err
	}

	s.mu.RLock()
	p, ok := s.papers.Get(id)
	s.mu.RUnlock()

	out := Export{PaperID: id, Format: f}
	if !ok {
		return out, nil
	}
	content, err := render(p, f, s.cfg.Store.JSONIndent)
	if err != nil {
		return Export{}, fmt.Errorf("exporting %s as %s: %w", id, f, err)
	}
	out.Found = true
	out.Content = content
	return out, nil
}
