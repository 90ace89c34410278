// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import "github.com/spf13/cobra"

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print topic and paper counts",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "output statistics as JSON")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	st := openService().DatabaseStats()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(cmd.OutOrStdout(), st)
	}
	return writeStatsTable(cmd.OutOrStdout(), st)
}
