// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics [topic]",
	Short: "List cached topics, or the stored papers of one topic",
	RunE:  runTopics,
}

func init() {
	topicsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	svc := openService()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		topics := svc.ListTopics()
		if jsonOutput {
			return printJSON(out, topics)
		}
		if len(topics) == 0 {
			fmt.Fprintln(out, "No topics cached yet.")
			return nil
		}
		for _, t := range topics {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	tp, err := svc.TopicPapers(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, tp.Papers)
	}
	if !tp.Found {
		fmt.Fprintf(out, "Topic %q has not been searched.\n", tp.Topic)
		return nil
	}
	return writePapersTable(out, tp.Papers)
}
