// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/research-mcp/pkg/types"
)

// Tool names registered on the MCP server.
const (
	ToolSearchPapers  = "search_papers"
	ToolExtractInfo   = "extract_info"
	ToolDatabaseStats = "get_database_stats"
	ToolListTopics    = "list_topics"
	ToolTopicPapers   = "topic_papers"
	ToolExportPaper   = "export_paper"
)

// SearchPapersInput is the argument of search_papers.
type SearchPapersInput struct {
	Topic      string `json:"topic" jsonschema:"the topic to search for, e.g. 'graph neural networks'"`
	MaxResults *int   `json:"max_results,omitempty" jsonschema:"maximum number of paper IDs to return (default 5, capped by the server limit)"`
}

// SearchPapersOutput is the result of search_papers.
type SearchPapersOutput struct {
	Topic    string   `json:"topic"`
	PaperIDs []string `json:"paper_ids"`
	Source   string   `json:"source" jsonschema:"cache, remote, or stale-cache"`
}

// PaperIDInput is the argument of extract_info.
type PaperIDInput struct {
	PaperID string `json:"paper_id" jsonschema:"arXiv identifier, e.g. 2301.07041 or hep-th/9901001"`
}

// PaperDTO is the wire form of a stored paper. Dates are RFC 3339 strings.
type PaperDTO struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Summary   string   `json:"summary"`
	Published string   `json:"published"`
	URL       string   `json:"url"`
	PDFURL    string   `json:"pdf_url,omitempty"`
	Category  string   `json:"category,omitempty"`
	Updated   string   `json:"updated,omitempty"`
	DOI       string   `json:"doi,omitempty"`
}

func toPaperDTO(p types.Paper) PaperDTO {
	dto := PaperDTO{
		ID:        p.ID,
		Title:     p.Title,
		Authors:   append([]string{}, p.Authors...),
		Summary:   p.Summary,
		Published: p.Published.UTC().Format(time.RFC3339),
		URL:       p.URL,
		PDFURL:    p.PDFURL,
		Category:  p.Category,
		DOI:       p.DOI,
	}
	if p.Updated != nil {
		dto.Updated = p.Updated.UTC().Format(time.RFC3339)
	}
	return dto
}

// ExtractInfoOutput is the result of extract_info.
type ExtractInfoOutput struct {
	Found   bool      `json:"found"`
	PaperID string    `json:"paper_id"`
	Paper   *PaperDTO `json:"paper,omitempty"`
	Message string    `json:"message,omitempty"`
}

// NoInput is the argument of tools that take none.
type NoInput struct{}

// DatabaseStatsOutput is the result of get_database_stats.
type DatabaseStatsOutput struct {
	TopicCount  int                `json:"topic_count"`
	PaperCount  int                `json:"paper_count"`
	Topics      []types.TopicStats `json:"topics"`
	GeneratedAt string             `json:"generated_at"`
}

// ListTopicsOutput is the result of list_topics.
type ListTopicsOutput struct {
	Topics []string `json:"topics"`
}

// TopicInput is the argument of topic_papers.
type TopicInput struct {
	Topic string `json:"topic" jsonschema:"a topic previously passed to search_papers"`
}

// TopicPapersOutput is the result of topic_papers.
type TopicPapersOutput struct {
	Topic  string     `json:"topic"`
	Found  bool       `json:"found"`
	Papers []PaperDTO `json:"papers"`
}

// ExportPaperInput is the argument of export_paper.
type ExportPaperInput struct {
	PaperID string `json:"paper_id" jsonschema:"arXiv identifier of a stored paper"`
	Format  string `json:"format,omitempty" jsonschema:"json (default), bibtex, plain, or csl"`
}

// ExportPaperOutput is the result of export_paper.
type ExportPaperOutput struct {
	Found   bool   `json:"found"`
	PaperID string `json:"paper_id"`
	Format  string `json:"format"`
	Content string `json:"content,omitempty"`
}

// NewMCPServer returns an MCP server exposing svc's operations as tools.
func NewMCPServer(svc *Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: svc.cfg.Server.Name, Version: version}, nil)
	h := &toolHandlers{svc: svc}

	mcp.AddTool(server, &mcp.Tool{
		Name: ToolSearchPapers,
		Description: "Search arXiv for papers on a topic and return their IDs. " +
			"Results are cached locally per topic; use extract_info to read a paper's details.",
	}, h.searchPapers)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolExtractInfo,
		Description: "Return the stored details of a paper previously found by search_papers.",
	}, h.extractInfo)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolDatabaseStats,
		Description: "Report how many topics and papers are stored, with a per-topic breakdown.",
	}, h.databaseStats)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListTopics,
		Description: "List every topic that has been searched.",
	}, h.listTopics)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolTopicPapers,
		Description: "Return the stored papers for a topic, newest first.",
	}, h.topicPapers)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolExportPaper,
		Description: "Export a stored paper as json, bibtex, plain text, or CSL-YAML.",
	}, h.exportPaper)

	return server
}

type toolHandlers struct {
	svc *Service
}

// begin tags the call with a fresh request id.
func (h *toolHandlers) begin(ctx context.Context, tool string) (context.Context, *slog.Logger) {
	log := h.svc.logger.With("tool", tool, "request_id", uuid.NewString())
	log.Debug("tool call")
	return withLogger(ctx, log), log
}

func (h *toolHandlers) searchPapers(ctx context.Context, _ *mcp.CallToolRequest, in SearchPapersInput) (*mcp.CallToolResult, SearchPapersOutput, error) {
	ctx, log := h.begin(ctx, ToolSearchPapers)

	maxResults := h.svc.cfg.Arxiv.MaxResultsDefault
	if in.MaxResults != nil {
		maxResults = *in.MaxResults
	}
	res, err := h.svc.SearchPapers(ctx, in.Topic, maxResults)
	if err != nil {
		log.Warn("search_papers failed", "topic", in.Topic, "error", err)
		return nil, SearchPapersOutput{}, err
	}
	return nil, SearchPapersOutput{
		Topic:    res.Topic,
		PaperIDs: res.PaperIDs,
		Source:   string(res.Source),
	}, nil
}

func (h *toolHandlers) extractInfo(ctx context.Context, _ *mcp.CallToolRequest, in PaperIDInput) (*mcp.CallToolResult, ExtractInfoOutput, error) {
	_, log := h.begin(ctx, ToolExtractInfo)

	info, err := h.svc.ExtractInfo(in.PaperID)
	if err != nil {
		log.Warn("extract_info failed", "paper_id", in.PaperID, "error", err)
		return nil, ExtractInfoOutput{}, err
	}
	out := ExtractInfoOutput{Found: info.Found, PaperID: info.PaperID, Message: info.Message}
	if info.Paper != nil {
		dto := toPaperDTO(*info.Paper)
		out.Paper = &dto
	}
	return nil, out, nil
}

func (h *toolHandlers) databaseStats(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, DatabaseStatsOutput, error) {
	h.begin(ctx, ToolDatabaseStats)

	st := h.svc.DatabaseStats()
	return nil, DatabaseStatsOutput{
		TopicCount:  st.TopicCount,
		PaperCount:  st.PaperCount,
		Topics:      st.Topics,
		GeneratedAt: st.GeneratedAt,
	}, nil
}

func (h *toolHandlers) listTopics(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, ListTopicsOutput, error) {
	h.begin(ctx, ToolListTopics)
	return nil, ListTopicsOutput{Topics: h.svc.ListTopics()}, nil
}

func (h *toolHandlers) topicPapers(ctx context.Context, _ *mcp.CallToolRequest, in TopicInput) (*mcp.CallToolResult, TopicPapersOutput, error) {
	_, log := h.begin(ctx, ToolTopicPapers)

	tp, err := h.svc.TopicPapers(in.Topic)
	if err != nil {
		log.Warn("topic_papers failed", "topic", in.Topic, "error", err)
		return nil, TopicPapersOutput{}, err
	}
	out := TopicPapersOutput{Topic: tp.Topic, Found: tp.Found, Papers: make([]PaperDTO, len(tp.Papers))}
	for i, p := range tp.Papers {
		out.Papers[i] = toPaperDTO(p)
	}
	return nil, out, nil
}

func (h *toolHandlers) exportPaper(ctx context.Context, _ *mcp.CallToolRequest, in ExportPaperInput) (*mcp.CallToolResult, ExportPaperOutput, error) {
	_, log := h.begin(ctx, ToolExportPaper)

	exp, err := h.svc.ExportPaper(in.PaperID, in.Format)
	if err != nil {
		log.Warn("export_paper failed", "paper_id", in.PaperID, "format", in.Format, "error", err)
		return nil, ExportPaperOutput{}, err
	}
	return nil, ExportPaperOutput{
		Found:   exp.Found,
		PaperID: exp.PaperID,
		Format:  string(exp.Format),
		Content: exp.Content,
	}, nil
}
