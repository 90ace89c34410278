package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-mcp/internal/store"
	"github.com/pdiddy/research-mcp/pkg/types"
)

// withBaseDir points the CLI at a fresh base directory holding one topic
// with two stored papers.
func withBaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MCP_BASE_DIR", dir)
	t.Setenv("MCP_LOG_LEVEL", "ERROR")
	t.Setenv("MCP_TRANSPORT", "stdio")

	papersDir := filepath.Join(dir, "data", "papers")
	papers := []types.Paper{
		{
			ID:        "1706.03762",
			Title:     "Attention Is All You Need",
			Authors:   []string{"Ashish Vaswani", "Noam Shazeer"},
			Summary:   "A new architecture based solely on attention mechanisms.",
			Published: time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC),
			URL:       "https://arxiv.org/abs/1706.03762",
			Category:  "cs.CL",
		},
		{
			ID:        "1810.04805",
			Title:     "BERT: Pre-training of Deep Bidirectional Transformers",
			Authors:   []string{"Jacob Devlin"},
			Published: time.Date(2018, 10, 11, 0, 0, 0, 0, time.UTC),
			URL:       "https://arxiv.org/abs/1810.04805",
			Category:  "cs.CL",
		},
	}
	require.NoError(t, store.NewPaperStore(papersDir, nil).Upsert(papers))
	_, err := store.NewTopicIndex(papersDir, nil).Merge("Transformers", []string{"1706.03762", "1810.04805"})
	require.NoError(t, err)
	return dir
}

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSnapshotCommand(t *testing.T) {
	dir := withBaseDir(t)

	out, err := execute(t, "snapshot", "info", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "never")

	exportPath := filepath.Join(t.TempDir(), "topics.yaml")
	out, err = execute(t, "snapshot", "--export", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 papers, 1 topics, 2 links")
	assert.Contains(t, out, "Exported to "+exportPath)
	assert.FileExists(t, filepath.Join(dir, "data", "catalog", "research.db"))
	assert.FileExists(t, exportPath)

	out, err = execute(t, "snapshot", "info", "--json=true")
	require.NoError(t, err)
	var info snapshotInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 1, info.Topics)
	assert.Equal(t, 2, info.Papers)
	assert.NotEmpty(t, info.GeneratedAt)

	out, err = execute(t, "snapshot", "find", "attention", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "1706.03762")
	assert.Contains(t, out, "topics: Transformers")
	assert.NotContains(t, out, "1810.04805")
}

func TestSnapshotCommandRejectsUnknownExport(t *testing.T) {
	withBaseDir(t)

	_, err := execute(t, "snapshot", "--export", filepath.Join(t.TempDir(), "topics.csv"))
	assert.Error(t, err)
}

func TestSearchCommandServesFromCache(t *testing.T) {
	withBaseDir(t)

	out, err := execute(t, "search", "transformers", "--max-results", "2", "--json=true")
	require.NoError(t, err)

	var res types.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, types.SourceCache, res.Source)
	assert.Equal(t, []string{"1706.03762", "1810.04805"}, res.PaperIDs)
}

func TestInfoCommand(t *testing.T) {
	withBaseDir(t)

	out, err := execute(t, "info", "1706.03762v5", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Title:     Attention Is All You Need")
	assert.Contains(t, out, "Published: 2017-06-12")
	assert.Contains(t, out, "URL:       https://arxiv.org/abs/1706.03762")

	out, err = execute(t, "info", "2401.00001", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "no saved information")

	_, err = execute(t, "info", "not-an-id", "--json=false")
	assert.Error(t, err)
}

func TestTopicsCommand(t *testing.T) {
	withBaseDir(t)

	out, err := execute(t, "topics", "--json=false")
	require.NoError(t, err)
	assert.Equal(t, "Transformers\n", out)

	out, err = execute(t, "topics", "transformers", "--json=true")
	require.NoError(t, err)
	var papers []types.Paper
	require.NoError(t, json.Unmarshal([]byte(out), &papers))
	require.Len(t, papers, 2)
	assert.Equal(t, "1810.04805", papers[0].ID, "newest first")
}

func TestStatsCommand(t *testing.T) {
	withBaseDir(t)

	out, err := execute(t, "stats", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Topics: 1")
	assert.Contains(t, out, "Papers: 2")
}

func TestExportCommand(t *testing.T) {
	withBaseDir(t)

	out, err := execute(t, "export", "1706.03762", "--format", "bibtex", "--output", "")
	require.NoError(t, err)
	assert.Contains(t, out, "@")
	assert.Contains(t, out, "Attention Is All You Need")

	path := filepath.Join(t.TempDir(), "paper.yaml")
	_, err = execute(t, "export", "1706.03762", "--format", "csl", "--output", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "arXiv:1706.03762")

	_, err = execute(t, "export", "2401.00001", "--format", "json", "--output", "")
	assert.Error(t, err, "unknown papers are reported")
}
