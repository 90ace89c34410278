// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-mcp/internal/httputil"
	"github.com/pdiddy/research-mcp/pkg/types"
)

const sampleArxivSearchXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <updated>2023-08-02T00:41:18Z</updated>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  We propose a new architecture based solely on attention mechanisms.
</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:doi>10.5555/3295222.3295349</arxiv:doi>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <updated>2018-10-11T00:00:00Z</updated>
    <published>2018-10-11T00:00:00Z</published>
    <title>BERT: Pre-training of Deep Bidirectional Transformers</title>
    <summary>We introduce BERT.</summary>
    <author><name>Jacob Devlin</name></author>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v1</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All You Need (older version)</title>
    <summary>Duplicate.</summary>
  </entry>
</feed>`

const arxivErrorXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_1234.12345</id>
    <title>Error</title>
    <summary>incorrect id format for 1234.12345</summary>
  </entry>
</feed>`

func testArxivConfig() types.ArxivConfig {
	return types.ArxivConfig{
		MaxResultsDefault: 5,
		MaxResultsLimit:   10,
		Timeout:           5 * time.Second,
		UserAgent:         "research-mcp/test",
	}
}

// withArxivServer points arxivAPIBase at an httptest server for the test.
func withArxivServer(t *testing.T, h http.HandlerFunc) *ArxivGateway {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() { arxivAPIBase = old })

	return &ArxivGateway{Client: ts.Client(), Config: testArxivConfig()}
}

func TestArxivGatewaySearch(t *testing.T) {
	var query url.Values
	g := withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, sampleArxivSearchXML)
	})

	papers, err := g.Search(context.Background(), "attention  mechanisms", 3)
	require.NoError(t, err)
	require.Len(t, papers, 2, "duplicate identifiers are dropped")

	assert.Equal(t, "all:attention AND all:mechanisms", query.Get("search_query"))
	assert.Equal(t, "3", query.Get("max_results"))
	assert.Equal(t, "relevance", query.Get("sortBy"))

	p := papers[0]
	assert.Equal(t, "1706.03762", p.ID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, "We propose a new architecture based solely on attention mechanisms.", p.Summary)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, p.Authors)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", p.URL, "the alternate link carries a version and is not used")
	assert.Equal(t, "http://arxiv.org/pdf/1706.03762v7", p.PDFURL)
	assert.Equal(t, "cs.CL", p.Category)
	assert.Equal(t, "10.5555/3295222.3295349", p.DOI)
	assert.True(t, p.Published.Equal(time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC)))
	require.NotNil(t, p.Updated)
	assert.Equal(t, 2023, p.Updated.Year())

	bert := papers[1]
	assert.Equal(t, "1810.04805", bert.ID)
	assert.Nil(t, bert.Updated, "updated equal to published is not recorded")
	assert.Equal(t, "https://arxiv.org/abs/1810.04805", bert.URL)
}

func TestArxivGatewayClampsMaxResults(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      string
	}{
		{"within limit", 7, "7"},
		{"above limit", 500, "10"},
		{"zero uses default", 0, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			g := withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("max_results")
				fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
			})

			papers, err := g.Search(context.Background(), "graphs", tt.requested)
			require.NoError(t, err)
			assert.Empty(t, papers)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArxivGatewayTruncatesOversizedFeed(t *testing.T) {
	g := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sampleArxivSearchXML)
	})

	papers, err := g.Search(context.Background(), "attention", 1)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "1706.03762", papers[0].ID)
}

func TestArxivGatewayRemoteUnavailable(t *testing.T) {
	g := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := g.Search(context.Background(), "attention", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.True(t, IsRemoteFailure(err))
	assert.Contains(t, err.Error(), "transient status")
}

func TestArxivGatewayPermanentStatus(t *testing.T) {
	g := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := g.Search(context.Background(), "attention", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.NotContains(t, err.Error(), "transient")
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", fmt.Errorf("HTTP request: %w", context.DeadlineExceeded), "timeout"},
		{"rate limited", &httputil.StatusError{StatusCode: http.StatusTooManyRequests}, "transient status"},
		{"server error", &httputil.StatusError{StatusCode: http.StatusBadGateway}, "transient status"},
		{"not found", &httputil.StatusError{StatusCode: http.StatusNotFound}, "status"},
		{"refused", errors.New("connection refused"), "transport failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureKind(tt.err))
		})
	}
}

func TestArxivGatewayTimeout(t *testing.T) {
	g := withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	g.Config.Timeout = 50 * time.Millisecond

	_, err := g.Search(context.Background(), "attention", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timeout")
}

func TestArxivGatewayPacesQueries(t *testing.T) {
	var hits atomic.Int32
	g := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, sampleArxivSearchXML)
	})
	g.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := g.Search(context.Background(), "attention", 5)
	require.NoError(t, err)

	// The next token is an hour away, past the query deadline.
	_, err = g.Search(context.Background(), "attention", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNewArxivGatewayLimiter(t *testing.T) {
	cfg := testArxivConfig()
	assert.Nil(t, NewArxivGateway(cfg).Limiter)

	cfg.MinInterval = 3 * time.Second
	g := NewArxivGateway(cfg)
	require.NotNil(t, g.Limiter)
	assert.Equal(t, rate.Every(3*time.Second), g.Limiter.Limit())
	assert.Equal(t, 1, g.Limiter.Burst())
}

func TestArxivGatewayFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not xml", "this is not xml"},
		{"html page", "<html><body>maintenance</body></html>"},
		{"api error entry", arxivErrorXML},
		{"missing published date", `<feed xmlns="http://www.w3.org/2005/Atom"><entry>
			<id>http://arxiv.org/abs/2301.07041v1</id><title>T</title></entry></feed>`},
		{"missing title", `<feed xmlns="http://www.w3.org/2005/Atom"><entry>
			<id>http://arxiv.org/abs/2301.07041v1</id><published>2023-01-17T00:00:00Z</published></entry></feed>`},
		{"bad identifier", `<feed xmlns="http://www.w3.org/2005/Atom"><entry>
			<id>http://example.com/paper/42</id><title>T</title><published>2023-01-17T00:00:00Z</published></entry></feed>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			papers, err := g.Search(context.Background(), "attention", 5)
			require.Error(t, err)
			assert.Nil(t, papers)
			assert.True(t, errors.Is(err, ErrRemoteFormat), "want ErrRemoteFormat, got %v", err)
			assert.False(t, errors.Is(err, ErrRemoteUnavailable))
		})
	}
}

func TestArxivGatewayEmptyTopic(t *testing.T) {
	g := &ArxivGateway{Client: http.DefaultClient, Config: testArxivConfig()}
	_, err := g.Search(context.Background(), "   ", 5)
	require.Error(t, err)
	assert.False(t, IsRemoteFailure(err))
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/1706.03762v5", "1706.03762"},
		{"http://arxiv.org/abs/2301.12345", "2301.12345"},
		{"https://arxiv.org/abs/2301.07041v2", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v2", "hep-th/9901001"},
		{"http://arxiv.org/abs/math.GT/0309136v1", "math.GT/0309136"},
		{"http://arxiv.org/abs/garbage", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, extractArxivID(tt.input))
		})
	}
}

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"attention", "all:attention"},
		{"attention mechanisms", "all:attention AND all:mechanisms"},
		{"  spaced   out ", "all:spaced AND all:out"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, buildArxivQuery(tt.topic))
		})
	}
}
