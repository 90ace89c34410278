// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/pdiddy/research-mcp/pkg/types"
)

// writeStatsTable renders database statistics with one row per topic.
func writeStatsTable(w io.Writer, st types.DatabaseStats) error {
	fmt.Fprintf(w, "Topics: %d\n", st.TopicCount)
	fmt.Fprintf(w, "Papers: %d\n", st.PaperCount)
	if len(st.Topics) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.Header("Topic", "Papers", "Oldest", "Latest", "Updated")
	for _, t := range st.Topics {
		err := table.Append([]string{
			truncate(t.Topic, 40),
			strconv.Itoa(t.PaperCount),
			datePart(t.OldestPaper),
			datePart(t.LatestPaper),
			datePart(t.LastUpdated),
		})
		if err != nil {
			return fmt.Errorf("adding row for %q: %w", t.Topic, err)
		}
	}
	return table.Render()
}

// writePapersTable renders papers newest first as id, date and title.
func writePapersTable(w io.Writer, papers []types.Paper) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Published", "Title", "Authors")
	for _, p := range papers {
		err := table.Append([]string{
			p.ID,
			p.Published.UTC().Format(time.DateOnly),
			truncate(p.Title, 60),
			truncate(strings.Join(p.Authors, ", "), 40),
		})
		if err != nil {
			return fmt.Errorf("adding row for %s: %w", p.ID, err)
		}
	}
	return table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// datePart keeps the YYYY-MM-DD prefix of an RFC 3339 timestamp.
func datePart(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
