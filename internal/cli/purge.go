package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/trash"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

var (
	purgeTrash  bool
	purgeDryRun bool
	purgeYes    bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge DIR",
	Short: "Delete every tracked image of a directory that has no labels",
	Long: "purge deletes the unlabeled images of DIR that are in the catalog and drops their rows.\n" +
		"Images that were never tracked (see scan --all) are left alone.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		method, err := trash.ParseMethod(appConfig.Purge.Method)
		if err != nil {
			method = trash.Permanent
		}
		if purgeTrash {
			method = trash.Trash
		}

		ws, err := openDir(ctx, args[0], workspaceOptions{purgeMethod: method})
		if err != nil {
			return err
		}
		defer ws.Close()

		st := ws.session.Status()
		out := newPurgeJSON(st.Directory, string(method))

		candidates, err := ws.engine.PurgeCandidates(ctx, st.Directory)
		if err != nil {
			return err
		}

		if purgeDryRun {
			out.DryRun = true
			out.Candidates = candidates
			if jsonFlag {
				return printJSON(out)
			}
			fmt.Printf("Would delete %s (%s):\n", utils.Plural(len(candidates), "image"), method)
			for _, p := range candidates {
				fmt.Printf("  %s\n", truncatePath(filepath.Base(p), 60))
			}
			return nil
		}

		if len(candidates) == 0 {
			if jsonFlag {
				return printJSON(out)
			}
			fmt.Println("No unlabeled images to purge.")
			return nil
		}

		printYoloWarning()
		if !shouldSkipConfirm(purgeYes) {
			prompt := fmt.Sprintf("Delete %s (%s)?", utils.Plural(len(candidates), "unlabeled image"), method)
			if !confirmAction(prompt) {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		progress, finish := newProgress("Purging")
		sum, err := ws.session.PurgeUnlabeled(ctx, progress)
		finish()
		if err != nil && !errors.Is(err, ctx.Err()) {
			return fmt.Errorf("purge failed: %w", err)
		}

		if jsonFlag {
			out.Summary = sum
			return printJSON(out)
		}
		fmt.Println()
		fmt.Println(outcomeLine("Deleted", sum.Deleted, sum.Missing, len(sum.Failures)))
		printFailures("Failures", sum.Failures)
		return err
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeTrash, "trash", false, "Move files to the trash instead of deleting them")
	purgeCmd.Flags().BoolVar(&purgeDryRun, "dry-run", false, "Preview deletions without removing files")
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip confirmation prompt")
}
