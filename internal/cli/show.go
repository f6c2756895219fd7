package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/imageinfo"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Show dimensions, capture time and labels of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}

		info, err := imageinfo.Read(path)
		if err != nil {
			return err
		}

		ws, err := openWorkspace(workspaceOptions{})
		if err != nil {
			return err
		}
		defer ws.Close()

		labels, err := ws.store.Labels(cmd.Context(), path)
		if err != nil {
			return err
		}
		tracked, err := isTracked(cmd.Context(), ws.store, path, labels)
		if err != nil {
			return err
		}

		if jsonFlag {
			return printJSON(showJSON{Info: info, Tracked: tracked, Labels: labels})
		}

		fmt.Println(path)
		if info.Format != "" {
			fmt.Printf("  Format:     %s, %dx%d\n", info.Format, info.Width, info.Height)
		} else {
			fmt.Println("  Format:     unknown")
		}
		fmt.Printf("  Size:       %s\n", utils.FormatSize(info.Size))
		fmt.Printf("  Modified:   %s\n", info.ModTime.Format("2006-01-02 15:04:05"))
		if info.HasTaken {
			fmt.Printf("  Taken:      %s\n", info.TakenAt.Format("2006-01-02 15:04:05"))
		}
		if info.HasGPS {
			fmt.Printf("  Location:   %.6f, %.6f\n", info.Latitude, info.Longitude)
		}
		if !tracked {
			fmt.Printf("  Labels:     %s\n", dimStyle.Render("(not tracked)"))
			return nil
		}
		fmt.Printf("  Labels:     %s\n", labelList(labels))
		return nil
	},
}

// isTracked reports whether path has a catalog row. Labeled paths always
// do; unlabeled ones are looked up among the untagged rows of their
// directory.
func isTracked(ctx context.Context, store catalog.Store, path string, labels []string) (bool, error) {
	if len(labels) > 0 {
		return true, nil
	}
	untagged, err := store.QueryUntagged(ctx, filepath.Dir(path))
	if err != nil {
		return false, err
	}
	return slices.Contains(untagged, path), nil
}
