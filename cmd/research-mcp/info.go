// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [paper-id]",
	Short: "Show the stored details of a paper",
	Long: `Info prints the locally stored record for an arXiv ID. It never contacts
arXiv; search for a topic first to populate the store.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "output the record as JSON")

	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	info, err := openService().ExtractInfo(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !info.Found {
		fmt.Fprintln(out, info.Message)
		return nil
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(out, info.Paper)
	}

	p := info.Paper
	fmt.Fprintf(out, "Title:     %s\n", p.Title)
	fmt.Fprintf(out, "Authors:   %s\n", strings.Join(p.Authors, ", "))
	fmt.Fprintf(out, "Published: %s\n", p.Published.Format(time.DateOnly))
	fmt.Fprintf(out, "ID:        %s\n", p.ID)
	if p.Category != "" {
		fmt.Fprintf(out, "Category:  %s\n", p.Category)
	}
	fmt.Fprintf(out, "URL:       %s\n", p.URL)
	if p.PDFURL != "" {
		fmt.Fprintf(out, "PDF:       %s\n", p.PDFURL)
	}
	fmt.Fprintf(out, "\n%s\n", p.Summary)
	return nil
}
