package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/catalog"
)

var labelUseDefault bool

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Add, remove and list image labels",
}

var labelAddCmd = &cobra.Command{
	Use:   "add DIR FILE [LABEL...]",
	Short: "Add labels to an image",
	Long: "add attaches each LABEL to FILE. FILE may be relative to DIR.\n" +
		"With --default (or no LABEL and labels.use_default set) the configured default label is added.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := openDir(ctx, args[0], workspaceOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()

		if err := ws.session.Select(imagePath(args[0], args[1])); err != nil {
			return err
		}

		inputs := args[2:]
		if labelUseDefault {
			ws.session.SetDefaultLabel(appConfig.Labels.Default, true)
			inputs = append(inputs, "")
		} else if len(inputs) == 0 {
			inputs = []string{""}
		}

		added := 0
		for _, in := range inputs {
			ok, err := ws.session.AddLabel(ctx, in)
			if err != nil {
				return fmt.Errorf("failed to add label: %w", err)
			}
			if ok {
				added++
			}
		}
		return printCurrentLabels(ws, fmt.Sprintf("Added %d", added))
	},
}

var labelRmCmd = &cobra.Command{
	Use:   "rm DIR FILE LABEL...",
	Short: "Remove labels from an image",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := openDir(ctx, args[0], workspaceOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()

		if err := ws.session.Select(imagePath(args[0], args[1])); err != nil {
			return err
		}

		removed := 0
		for _, l := range args[2:] {
			ok, err := ws.session.RemoveLabel(ctx, l)
			if err != nil {
				return fmt.Errorf("failed to remove label: %w", err)
			}
			if ok {
				removed++
			}
		}
		return printCurrentLabels(ws, fmt.Sprintf("Removed %d", removed))
	},
}

var labelLsCmd = &cobra.Command{
	Use:   "ls DIR [FILE]",
	Short: "List the labels of one image or of a whole directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := openWorkspace(workspaceOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()

		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}

		if len(args) == 2 {
			path, err := filepath.Abs(imagePath(dir, args[1]))
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[1], err)
			}
			labels, err := ws.store.Labels(ctx, path)
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(catalog.Record{Path: path, Labels: labels})
			}
			fmt.Printf("%s %s\n", path, labelList(labels))
			return nil
		}

		records, err := ws.store.QueryTagged(ctx, dir)
		if err != nil {
			return err
		}
		stats, err := ws.store.Stats(ctx, dir)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(stats)
		}

		printRecords(dir, records)
		if len(stats.ByLabel) > 0 {
			fmt.Println()
			fmt.Println("  By Label:")
			for _, name := range sortedLabels(stats.ByLabel) {
				fmt.Printf("    %-22s %d\n", name, stats.ByLabel[name])
			}
		}
		fmt.Printf("\n%d tracked, %d tagged, %d untagged\n", stats.Total, stats.Tagged, stats.Untagged())
		return nil
	},
}

// imagePath resolves file against dir unless it is already absolute.
func imagePath(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

func printCurrentLabels(ws *workspace, verb string) error {
	path, labels, ok := ws.session.Current()
	if !ok {
		return errors.New("no image selected")
	}
	if jsonFlag {
		return printJSON(catalog.Record{Path: path, Labels: labels})
	}
	fmt.Printf("%s: %s %s\n", verb, filepath.Base(path), labelList(labels))
	return nil
}

// sortedLabels orders labels by count, most used first.
func sortedLabels(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func init() {
	labelAddCmd.Flags().BoolVar(&labelUseDefault, "default", false, "Add the configured default label")
	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelRmCmd)
	labelCmd.AddCommand(labelLsCmd)
}
