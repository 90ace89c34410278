// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-mcp/internal/httputil"
	"github.com/pdiddy/research-mcp/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivGateway queries the arXiv Atom API.
type ArxivGateway struct {
	Client *http.Client
	Config types.ArxivConfig

	// Limiter paces outgoing queries. Nil means unpaced.
	Limiter *rate.Limiter
}

// NewArxivGateway returns a gateway whose HTTP client enforces the
// configured timeout and whose queries are spaced by MinInterval.
func NewArxivGateway(cfg types.ArxivConfig) *ArxivGateway {
	g := &ArxivGateway{
		Client: httputil.NewClient(cfg.Timeout),
		Config: cfg,
	}
	if cfg.MinInterval > 0 {
		g.Limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return g
}

// clamp bounds maxResults to [1, MaxResultsLimit]; non-positive values
// fall back to the configured default.
func (g *ArxivGateway) clamp(maxResults int) int {
	if maxResults <= 0 {
		maxResults = g.Config.MaxResultsDefault
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	if limit := g.Config.MaxResultsLimit; limit > 0 && maxResults > limit {
		maxResults = limit
	}
	return maxResults
}

// Search queries arXiv for topic sorted by relevance and returns at most
// maxResults validated records. Any entry that cannot be turned into a
// valid record fails the whole response with ErrRemoteFormat.
func (g *ArxivGateway) Search(ctx context.Context, topic string, maxResults int) ([]types.Paper, error) {
	q := buildArxivQuery(topic)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	maxResults = g.clamp(maxResults)

	if g.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Config.Timeout)
		defer cancel()
	}

	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: waiting for arXiv rate limit: %w", ErrRemoteUnavailable, err)
		}
	}

	params := url.Values{}
	params.Set("search_query", q)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")
	reqURL := arxivAPIBase + "?" + params.Encode()

	body, err := httputil.Get(ctx, g.Client, reqURL, g.Config.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: arXiv API %s: %w", ErrRemoteUnavailable, failureKind(err), err)
	}

	papers, err := parseArxivFeed(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteFormat, err)
	}
	if len(papers) > maxResults {
		papers = papers[:maxResults]
	}
	return papers, nil
}

// failureKind labels a failed request as a timeout, a transient status
// (429 or 5xx), another status, or a transport failure.
func failureKind(err error) string {
	var se *httputil.StatusError
	switch {
	case httputil.IsTimeout(err):
		return "timeout"
	case errors.As(err, &se) && se.Temporary():
		return "transient status"
	case errors.As(err, &se):
		return "status"
	default:
		return "transport failure"
	}
}

// buildArxivQuery turns a free-text topic into a search_query value that
// requires every term to appear in some field.
func buildArxivQuery(topic string) string {
	terms := strings.Fields(topic)
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = "all:" + term
	}
	return strings.Join(parts, " AND ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	XMLName xml.Name     `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string        `xml:"id"`
	Title           string        `xml:"title"`
	Summary         string        `xml:"summary"`
	Published       string        `xml:"published"`
	Updated         string        `xml:"updated"`
	Authors         []arxivAuthor `xml:"author"`
	Links           []arxivLink   `xml:"link"`
	PrimaryCategory arxivCategory `xml:"http://arxiv.org/schemas/atom primary_category"`
	DOI             string        `xml:"http://arxiv.org/schemas/atom doi"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// parseArxivFeed decodes an Atom response into records, in feed order,
// dropping repeated identifiers.
func parseArxivFeed(body []byte) ([]types.Paper, error) {
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	seen := make(map[string]bool, len(feed.Entries))
	papers := make([]types.Paper, 0, len(feed.Entries))
	for i, entry := range feed.Entries {
		// arXiv reports query errors as a single entry under /api/errors.
		if strings.Contains(entry.ID, "/api/errors") {
			return nil, fmt.Errorf("arXiv API error: %s", strings.TrimSpace(entry.Summary))
		}

		p, err := entry.toPaper()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		papers = append(papers, p)
	}
	return papers, nil
}

// toPaper converts one feed entry into a validated record.
func (e arxivEntry) toPaper() (types.Paper, error) {
	id := extractArxivID(e.ID)
	if id == "" {
		return types.Paper{}, fmt.Errorf("no arXiv identifier in %q", e.ID)
	}

	published, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
	if err != nil {
		return types.Paper{}, fmt.Errorf("paper %s: published date: %w", id, err)
	}

	p := types.Paper{
		ID:        id,
		Title:     strings.Join(strings.Fields(e.Title), " "),
		Summary:   strings.TrimSpace(e.Summary),
		Published: published.UTC(),
		URL:       "https://arxiv.org/abs/" + id,
		Category:  strings.TrimSpace(e.PrimaryCategory.Term),
		DOI:       strings.TrimSpace(e.DOI),
	}

	if updated, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated)); err == nil && !updated.Equal(published) {
		u := updated.UTC()
		p.Updated = &u
	}

	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}

	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			p.PDFURL = l.Href
		}
	}

	if err := p.Validate(); err != nil {
		return types.Paper{}, err
	}
	return p, nil
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041",
// "http://arxiv.org/abs/hep-th/9901001v2" → "hep-th/9901001").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])
	if types.ValidateID(id) != nil {
		return ""
	}
	return types.CanonicalID(id)
}
