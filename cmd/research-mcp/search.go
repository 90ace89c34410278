// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [topic]",
	Short: "Search papers on a topic, using the local cache when it suffices",
	Long: `Search returns arXiv paper IDs for a topic. When the topic index already
holds at least --max-results IDs they are returned without contacting arXiv;
otherwise arXiv is queried and the results are stored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of IDs to return (default from MCP_ARXIV_MAX_RESULTS)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc := openService()
	topic := strings.Join(args, " ")
	maxResults := svc.Config().Arxiv.MaxResultsDefault
	if cmd.Flags().Changed("max-results") {
		maxResults, _ = cmd.Flags().GetInt("max-results")
	}

	res, err := svc.SearchPapers(context.Background(), topic, maxResults)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "%d paper(s) for %q (%s)\n", len(res.PaperIDs), res.Topic, res.Source)
	for _, id := range res.PaperIDs {
		fmt.Fprintln(out, "  "+id)
	}
	return nil
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", strings.Repeat(" ", max(cfg.Store.JSONIndent, 1)))
	return enc.Encode(v)
}
