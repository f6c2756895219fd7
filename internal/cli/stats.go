package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/history"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show bulk operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		h := history.New(history.DefaultPath())
		stats := h.Stats()

		if jsonFlag {
			return printJSON(buildStatsJSON(stats))
		}

		fmt.Println("imgtag -- Operation Stats")
		fmt.Println()
		fmt.Printf("  Total operations:  %d\n", stats.TotalOperations)

		if len(stats.ByOperation) > 0 {
			fmt.Println()
			fmt.Println("  By Operation:")

			ops := make([]string, 0, len(stats.ByOperation))
			for name := range stats.ByOperation {
				ops = append(ops, name)
			}
			sort.Strings(ops)

			for _, name := range ops {
				op := stats.ByOperation[name]
				line := fmt.Sprintf("    %-10s %s, %s", name, utils.Plural(op.Runs, "run"), utils.Plural(op.Items, "image"))
				if op.Bytes > 0 {
					line += fmt.Sprintf(", %s", utils.FormatSize(op.Bytes))
				}
				fmt.Println(line)
			}
		}

		if len(stats.Recent) > 0 {
			fmt.Println()
			fmt.Println("  Recent:")

			for _, e := range stats.Recent {
				status := ""
				if e.Cancelled {
					status = warnStyle.Render(" (cancelled)")
				}
				fmt.Printf("    %s  %-9s %4d ok %3d skipped %3d failed  %s%s\n",
					e.Timestamp.Format("2006-01-02 15:04"),
					e.Operation,
					e.Items,
					e.Skipped,
					e.Failed,
					truncatePath(e.Directory, 40),
					status)
			}
		}

		if stats.TotalOperations == 0 {
			fmt.Println("  No history yet. Run 'imgtag rename', 'organize' or 'purge' to get started.")
		}

		fmt.Println()
		return nil
	},
}
