// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [paper-id]",
	Short: "Export a stored paper as json, bibtex, plain, or csl",
	Long: `Export renders a stored paper record. The csl format writes CSL-YAML
consumable by Pandoc and reference managers.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "json", "export format: json, bibtex, plain, or csl")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	exp, err := openService().ExportPaper(args[0], format)
	if err != nil {
		return err
	}
	if !exp.Found {
		return fmt.Errorf("paper %s is not stored", exp.PaperID)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), exp.Content)
		return nil
	}
	if err := os.WriteFile(output, []byte(exp.Content+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s as %s to %s\n", exp.PaperID, exp.Format, output)
	return nil
}
