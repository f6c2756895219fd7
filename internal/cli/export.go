package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [DIR]",
	Short: "Export catalog labels as JSON Lines, YAML or Parquet",
	Long: "export writes every catalog record of DIR (the whole catalog when DIR is omitted).\n" +
		"The format defaults to the --output extension, then jsonl.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := exportFormatFor(exportFormat, exportOutput)
		if err != nil {
			return err
		}

		var dir string
		if len(args) == 1 {
			if dir, err = filepath.Abs(args[0]); err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}
		}

		ws, err := openWorkspace(workspaceOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()

		rows, err := export.Rows(cmd.Context(), ws.store, dir)
		if err != nil {
			return err
		}

		if exportOutput == "" || exportOutput == "-" {
			return export.Write(os.Stdout, format, rows)
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		if err := export.Write(f, format, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d records to %s (%s)\n", len(rows), exportOutput, format)
		return nil
	},
}

func exportFormatFor(flag, output string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if f, ok := export.FormatFromPath(output); ok {
		return f, nil
	}
	return export.JSONL, nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: jsonl, yaml or parquet")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}
