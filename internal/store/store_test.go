// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-mcp/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePaper(id, title string) types.Paper {
	return types.Paper{
		ID:        id,
		Title:     title,
		Authors:   []string{"Ada Lovelace", "Alan Turing"},
		Summary:   "An abstract.",
		Published: time.Date(2023, 1, 17, 0, 0, 0, 0, time.UTC),
		URL:       "https://arxiv.org/abs/" + id,
	}
}

// --- NormalizeTopic ---

func TestNormalizeTopic(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"machine learning", "machine learning"},
		{"Machine Learning", "machine learning"},
		{"  Neural   Nets ", "neural nets"},
		{"\tQUANTUM\ncomputing", "quantum computing"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTopic(tt.in))
		})
	}
}

// --- TopicIndex ---

func TestTopicIndexLookupMissing(t *testing.T) {
	idx := NewTopicIndex(t.TempDir(), discardLogger())

	ids, ok := idx.Lookup("anything")
	assert.False(t, ok)
	assert.Nil(t, ids)
	assert.Equal(t, 0, idx.CountTopics())
}

func TestTopicIndexMergeKeepsOrderAndDropsDuplicates(t *testing.T) {
	idx := NewTopicIndex(t.TempDir(), discardLogger())

	merged, err := idx.Merge("transformers", []string{"1706.03762", "1810.04805", "1706.03762"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1706.03762", "1810.04805"}, merged)

	merged, err = idx.Merge("transformers", []string{"2005.14165", "1810.04805", "2303.08774"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1706.03762", "1810.04805", "2005.14165", "2303.08774"}, merged)

	ids, ok := idx.Lookup("transformers")
	require.True(t, ok)
	assert.Equal(t, merged, ids)
}

func TestTopicIndexNeverShrinks(t *testing.T) {
	idx := NewTopicIndex(t.TempDir(), discardLogger())

	_, err := idx.Merge("graphs", []string{"2101.00001", "2101.00002", "2101.00003"})
	require.NoError(t, err)

	// A later fetch that omits earlier identifiers must not remove them.
	merged, err := idx.Merge("graphs", []string{"2101.00003"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2101.00001", "2101.00002", "2101.00003"}, merged)

	merged, err = idx.Merge("graphs", nil)
	require.NoError(t, err)
	assert.Len(t, merged, 3)
}

func TestTopicIndexCaseInsensitive(t *testing.T) {
	idx := NewTopicIndex(t.TempDir(), discardLogger())

	_, err := idx.Merge("Neural Nets", []string{"2101.00001"})
	require.NoError(t, err)
	_, err = idx.Merge("neural nets", []string{"2101.00002"})
	require.NoError(t, err)

	ids, ok := idx.Lookup("NEURAL  NETS")
	require.True(t, ok)
	assert.Equal(t, []string{"2101.00001", "2101.00002"}, ids)
	assert.Equal(t, 1, idx.CountTopics())

	entries := idx.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "neural nets", entries[0].Key)
	assert.Equal(t, "Neural Nets", entries[0].Topic, "display form keeps the first spelling")
}

func TestTopicIndexEmptyMergeCreatesNoEntry(t *testing.T) {
	dir := t.TempDir()
	idx := NewTopicIndex(dir, discardLogger())

	merged, err := idx.Merge("nothing found", nil)
	require.NoError(t, err)
	assert.Empty(t, merged)
	assert.Equal(t, 0, idx.CountTopics())

	_, err = os.Stat(filepath.Join(dir, topicsFile))
	assert.True(t, os.IsNotExist(err), "no-op merge should not write the file")
}

func TestTopicIndexLookupReturnsCopy(t *testing.T) {
	idx := NewTopicIndex(t.TempDir(), discardLogger())
	_, err := idx.Merge("copy", []string{"2101.00001"})
	require.NoError(t, err)

	ids, _ := idx.Lookup("copy")
	ids[0] = "mutated"

	again, _ := idx.Lookup("copy")
	assert.Equal(t, "2101.00001", again[0])
}

func TestTopicIndexPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first := NewTopicIndex(dir, discardLogger())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first.now = func() time.Time { return fixed }

	_, err := first.Merge("Quantum Computing", []string{"2101.00001", "2101.00002"})
	require.NoError(t, err)

	second := NewTopicIndex(dir, discardLogger())
	ids, ok := second.Lookup("quantum computing")
	require.True(t, ok)
	assert.Equal(t, []string{"2101.00001", "2101.00002"}, ids)

	entries := second.Entries()
	require.Len(t, entries, 1)
	assert.True(t, fixed.Equal(entries[0].UpdatedAt))
}

func TestTopicIndexCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, topicsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	idx := NewTopicIndex(dir, discardLogger())
	assert.Equal(t, 0, idx.CountTopics())

	moved, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, moved, 1, "corrupted file should be moved aside")

	_, err = idx.Merge("recovered", []string{"2101.00001"})
	require.NoError(t, err)

	reopened := NewTopicIndex(dir, discardLogger())
	assert.Equal(t, 1, reopened.CountTopics())
}

// --- PaperStore ---

func TestPaperStoreGetMissing(t *testing.T) {
	s := NewPaperStore(t.TempDir(), discardLogger())

	_, ok := s.Get("9999.99999")
	assert.False(t, ok)
	assert.Equal(t, 0, s.CountPapers())
}

func TestPaperStoreUpsertAddsAndOverwrites(t *testing.T) {
	s := NewPaperStore(t.TempDir(), discardLogger())

	require.NoError(t, s.Upsert([]types.Paper{
		samplePaper("1706.03762", "Attention Is All You Need"),
		samplePaper("1810.04805", "BERT"),
	}))
	assert.Equal(t, 2, s.CountPapers())

	fresher := samplePaper("1810.04805", "BERT: Pre-training of Deep Bidirectional Transformers")
	fresher.Category = "cs.CL"
	require.NoError(t, s.Upsert([]types.Paper{fresher}))

	assert.Equal(t, 2, s.CountPapers())
	got, ok := s.Get("1810.04805")
	require.True(t, ok)
	assert.True(t, got.Equal(fresher), "last write wins")
}

func TestPaperStoreGetIgnoresVersionSuffix(t *testing.T) {
	s := NewPaperStore(t.TempDir(), discardLogger())
	require.NoError(t, s.Upsert([]types.Paper{samplePaper("2301.07041", "Versioned")}))

	got, ok := s.Get("2301.07041v3")
	require.True(t, ok)
	assert.Equal(t, "2301.07041", got.ID)
}

func TestPaperStoreUpsertRejectsInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	s := NewPaperStore(dir, discardLogger())
	require.NoError(t, s.Upsert([]types.Paper{samplePaper("1706.03762", "Kept")}))

	err := s.Upsert([]types.Paper{
		samplePaper("1810.04805", "Valid"),
		{ID: "not an id", Title: "Broken"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidID)

	reopened := NewPaperStore(dir, discardLogger())
	assert.Equal(t, 1, reopened.CountPapers(), "a rejected batch must not be partially written")
}

func TestPaperStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	p := samplePaper("1706.03762", "Attention Is All You Need")
	updated := time.Date(2023, 8, 2, 0, 0, 0, 0, time.UTC)
	p.Updated = &updated
	p.DOI = "10.5555/3295222.3295349"

	require.NoError(t, NewPaperStore(dir, discardLogger()).Upsert([]types.Paper{p}))

	got, ok := NewPaperStore(dir, discardLogger()).Get("1706.03762")
	require.True(t, ok)
	assert.True(t, got.Equal(p))
}

func TestPaperStoreCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, papersFile), []byte(`{"version":1,"items":[`), 0o644))

	s := NewPaperStore(dir, discardLogger())
	assert.Equal(t, 0, s.CountPapers())
	require.NoError(t, s.Upsert([]types.Paper{samplePaper("1706.03762", "After recovery")}))
	assert.Equal(t, 1, s.CountPapers())
}

func TestPaperStoreAllSorted(t *testing.T) {
	s := NewPaperStore(t.TempDir(), discardLogger())
	require.NoError(t, s.Upsert([]types.Paper{
		samplePaper("2303.08774", "C"),
		samplePaper("1706.03762", "A"),
		samplePaper("1810.04805", "B"),
	}))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "1706.03762", all[0].ID)
	assert.Equal(t, "1810.04805", all[1].ID)
	assert.Equal(t, "2303.08774", all[2].ID)
}

// --- jsonFile ---

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewPaperStore(dir, discardLogger())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Upsert([]types.Paper{samplePaper("1706.03762", "Rewrite")}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, papersFile, entries[0].Name())
}

func TestSaveCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "papers")
	idx := NewTopicIndex(dir, discardLogger())

	_, err := idx.Merge("fresh", []string{"2101.00001"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, topicsFile))
	assert.NoError(t, err)
}
