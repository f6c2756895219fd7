package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

var (
	scanAll      bool
	scanTagged   bool
	scanUntagged bool
)

var scanCmd = &cobra.Command{
	Use:   "scan DIR",
	Short: "Track the images of a directory and list their labels",
	Long: "scan lists the images of DIR and adds the first page of them to the catalog.\n" +
		"Use --all to track every image at once.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanTagged && scanUntagged {
			return errors.New("--tagged and --untagged are mutually exclusive")
		}
		ctx := cmd.Context()

		ws, err := openDir(ctx, args[0], workspaceOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()

		if scanAll {
			if _, err := ws.session.LoadAll(ctx); err != nil {
				return fmt.Errorf("failed to track images: %w", err)
			}
		}

		st := ws.session.Status()
		records, err := loadedRecords(ctx, ws, st.Loaded)
		if err != nil {
			return err
		}
		records = filterRecords(records, scanTagged, scanUntagged)

		stats, err := ws.store.Stats(ctx, st.Directory)
		if err != nil {
			return fmt.Errorf("failed to read catalog stats: %w", err)
		}

		if jsonFlag {
			return printJSON(buildScanJSON(st, stats, records))
		}

		fmt.Printf("%s: %s, %d tracked (%d tagged)\n\n",
			st.Directory, utils.Plural(st.Total, "image"), st.Loaded, stats.Tagged)
		printRecords(st.Directory, records)
		if st.HasMore() {
			fmt.Printf("\n%d more not tracked yet. Run with --all to track them.\n", st.Total-st.Loaded)
		}
		return nil
	},
}

// loadedRecords returns the first n images of the working set with their
// labels.
func loadedRecords(ctx context.Context, ws *workspace, n int) ([]catalog.Record, error) {
	paths := ws.session.WorkingSet()
	n = min(n, len(paths))
	records := make([]catalog.Record, 0, n)
	for _, p := range paths[:n] {
		labels, err := ws.store.Labels(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read labels of %s: %w", p, err)
		}
		records = append(records, catalog.Record{Path: p, Labels: labels})
	}
	return records, nil
}

func filterRecords(records []catalog.Record, tagged, untagged bool) []catalog.Record {
	if !tagged && !untagged {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if (len(r.Labels) > 0) == tagged {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "Track every image, not just the first page")
	scanCmd.Flags().BoolVar(&scanTagged, "tagged", false, "List labeled images only")
	scanCmd.Flags().BoolVar(&scanUntagged, "untagged", false, "List unlabeled images only")
}
