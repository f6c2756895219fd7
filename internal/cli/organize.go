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
	organizeVerify bool
	organizeDryRun bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize DIR",
	Short: "Copy labeled images into one folder per label",
	Long: "organize copies every labeled image of DIR into DIR/<label>/ for each of its labels.\n" +
		"Originals are left in place and existing copies are kept.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := openDir(ctx, args[0], workspaceOptions{verify: organizeVerify})
		if err != nil {
			return err
		}
		defer ws.Close()

		st := ws.session.Status()
		out := newOrganizeJSON(st.Directory)
		verify := organizeVerify || appConfig.Organize.Verify

		if organizeDryRun {
			plan, err := ws.engine.PlanOrganize(ctx, st.Directory, engine.OrganizeOptions{Verify: verify})
			if err != nil {
				return err
			}
			out.DryRun = true
			out.Plan = plan.Jobs
			out.Summary = plan.Summary
			if jsonFlag {
				return printJSON(out)
			}
			fmt.Printf("Would copy %s (%s):\n", utils.Plural(len(plan.Jobs), "file"), utils.FormatSize(plan.Bytes()))
			for _, j := range plan.Jobs {
				rel, _ := filepath.Rel(st.Directory, j.Dst)
				fmt.Printf("  %-36s -> %s\n", truncatePath(filepath.Base(j.Src), 36), rel)
			}
			if plan.Summary.Existing > 0 {
				fmt.Printf("\n%s already in place.\n", utils.Plural(plan.Summary.Existing, "file"))
			}
			printFailures("Conflicts", plan.Summary.Conflicts)
			printFailures("Failures", plan.Summary.Failures)
			return nil
		}

		progress, finish := newProgress("Copying")
		sum, err := ws.session.Organize(ctx, progress)
		finish()
		if errors.Is(err, engine.ErrInsufficientSpace) {
			return err
		}
		if err != nil && !errors.Is(err, ctx.Err()) {
			return fmt.Errorf("organize failed: %w", err)
		}

		if jsonFlag {
			out.Summary = sum
			return printJSON(out)
		}
		fmt.Println()
		fmt.Println(outcomeLine("Copied", sum.Copied, sum.Skipped, len(sum.Failures)))
		fmt.Printf("Copied %s, %s already in place.\n", utils.FormatSize(sum.Bytes), utils.Plural(sum.Existing, "file"))
		printFailures("Conflicts", sum.Conflicts)
		printFailures("Failures", sum.Failures)
		return err
	},
}

func init() {
	organizeCmd.Flags().BoolVar(&organizeVerify, "verify", false, "Hash existing copies and report ones that differ")
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false, "Preview copies without writing files")
}
