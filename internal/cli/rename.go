package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/engine"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

var (
	renamePrefix string
	renameDryRun bool
	renameYes    bool
)

var renameCmd = &cobra.Command{
	Use:   "rename DIR",
	Short: "Renumber every image of a directory to PREFIX_0001.ext, PREFIX_0002.ext, ...",
	Long: "rename renames the images of DIR in listing order and moves their labels along.\n" +
		"A blank prefix does nothing.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		prefix, err := engine.ValidatePrefix(renamePrefix)
		if err != nil {
			return err
		}

		ws, err := openDir(ctx, args[0], workspaceOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()

		st := ws.session.Status()
		out := newRenameJSON(st.Directory)
		if prefix == "" {
			if jsonFlag {
				return printJSON(out)
			}
			fmt.Println("Blank prefix, nothing to rename.")
			return nil
		}

		plan, err := engine.PlanRename(st.Directory, ws.session.WorkingSet(), prefix)
		if err != nil {
			return err
		}

		if renameDryRun {
			out.DryRun = true
			out.Plan = plan
			if jsonFlag {
				return printJSON(out)
			}
			fmt.Printf("Would rename %s in %s:\n", utils.Plural(len(plan), "image"), st.Directory)
			for _, m := range plan {
				fmt.Printf("  %-36s -> %s\n", truncatePath(filepath.Base(m.From), 36), filepath.Base(m.To))
			}
			return nil
		}

		if len(plan) == 0 {
			fmt.Println("No images to rename.")
			return nil
		}

		printYoloWarning()
		if !shouldSkipConfirm(renameYes) {
			if !confirmAction(fmt.Sprintf("Rename %s in %s?", utils.Plural(len(plan), "image"), st.Directory)) {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		progress, finish := newProgress("Renaming")
		sum, err := ws.session.Rename(ctx, prefix, progress)
		finish()
		if err != nil && !errors.Is(err, ctx.Err()) {
			return fmt.Errorf("rename failed: %w", err)
		}

		if jsonFlag {
			out.Summary = sum
			return printJSON(out)
		}
		fmt.Println()
		fmt.Println(outcomeLine("Renamed", sum.Renamed, sum.Skipped, len(sum.Conflicts)))
		printFailures("Conflicts", sum.Conflicts)
		return err
	},
}

func init() {
	renameCmd.Flags().StringVarP(&renamePrefix, "prefix", "p", "", "Prefix for the new file names")
	renameCmd.Flags().BoolVar(&renameDryRun, "dry-run", false, "Preview renames without moving files")
	renameCmd.Flags().BoolVarP(&renameYes, "yes", "y", false, "Skip confirmation prompt")
}
