// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-mcp/internal/catalog"
	"github.com/pdiddy/research-mcp/internal/store"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Rebuild the SQLite catalog from the paper stores",
	Long: `Snapshot copies the topic index and paper store into a SQLite database
under data/catalog/ for offline queries. The JSON stores remain the source
of truth; rerun snapshot to refresh the catalog.`,
	RunE: runSnapshot,
}

var snapshotInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show catalog counts and when it was last rebuilt",
	RunE:  runSnapshotInfo,
}

var snapshotFindCmd = &cobra.Command{
	Use:   "find [title words]",
	Short: "Find catalog papers whose title contains every word",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSnapshotFind,
}

func init() {
	snapshotCmd.PersistentFlags().String("db", "", "catalog database path (default <base_dir>/data/catalog/research.db)")
	snapshotCmd.Flags().String("export", "", "also write the topic listing to this .yaml or .json file")
	snapshotFindCmd.Flags().Int("limit", 20, "maximum number of matches")
	snapshotFindCmd.Flags().Bool("json", false, "output matches as JSON")
	snapshotInfoCmd.Flags().Bool("json", false, "output as JSON")

	snapshotCmd.AddCommand(snapshotFindCmd)
	snapshotCmd.AddCommand(snapshotInfoCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func openCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = cfg.Store.CatalogPath()
	}
	return catalog.Open(path)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := cfg.Store.PapersDir()
	papers := store.NewPaperStore(dir, logger).All()
	topics := store.NewTopicIndex(dir, logger).Entries()

	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer cat.Close()

	summary, err := cat.Rebuild(ctx, papers, topics, time.Now())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "snapshot %s: %d papers, %d topics, %d links\n", cat.Path(), summary.Papers, summary.Topics, summary.Links)
	if summary.Dangling > 0 {
		logger.Warn("topic identifiers without stored papers", "count", summary.Dangling)
	}

	exportPath, _ := cmd.Flags().GetString("export")
	switch {
	case exportPath == "":
	case strings.HasSuffix(exportPath, ".json"):
		err = cat.ExportJSON(ctx, exportPath)
	case strings.HasSuffix(exportPath, ".yaml"), strings.HasSuffix(exportPath, ".yml"):
		err = cat.ExportYAML(ctx, exportPath)
	default:
		err = fmt.Errorf("unsupported export file %q: use .yaml or .json", exportPath)
	}
	if err != nil {
		return err
	}
	if exportPath != "" {
		fmt.Fprintln(out, "Exported to", exportPath)
	}
	return nil
}

func runSnapshotFind(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer cat.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	matches, err := cat.Find(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(out, matches)
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%-18s  %s  %s\n", m.ID, datePart(m.Published), m.Title)
		if len(m.Topics) > 0 {
			fmt.Fprintf(out, "%-18s  topics: %s\n", "", strings.Join(m.Topics, ", "))
		}
	}
	return nil
}

// snapshotInfo describes the catalog for `snapshot info`.
type snapshotInfo struct {
	Path        string `json:"path"`
	Topics      int    `json:"topics"`
	Papers      int    `json:"papers"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

func runSnapshotInfo(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := context.Background()
	topics, papers, err := cat.Counts(ctx)
	if err != nil {
		return err
	}
	at, err := cat.GeneratedAt(ctx)
	if err != nil {
		return err
	}

	info := snapshotInfo{Path: cat.Path(), Topics: topics, Papers: papers}
	if !at.IsZero() {
		info.GeneratedAt = at.UTC().Format(time.RFC3339)
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(out, info)
	}
	fmt.Fprintf(out, "Catalog: %s\n", info.Path)
	fmt.Fprintf(out, "Topics:  %d\n", info.Topics)
	fmt.Fprintf(out, "Papers:  %d\n", info.Papers)
	if info.GeneratedAt == "" {
		fmt.Fprintln(out, "Built:   never (run research-mcp snapshot)")
	} else {
		fmt.Fprintf(out, "Built:   %s\n", info.GeneratedAt)
	}
	return nil
}
