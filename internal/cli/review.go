package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zhengda-lu/imgtag/internal/resume"
	"github.com/zhengda-lu/imgtag/internal/tui"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

var reviewCmd = &cobra.Command{
	Use:   "review [DIR]",
	Short: "Label images one by one in the interactive TUI",
	Long: "review opens DIR in the TUI. Without DIR the last reviewed directory and image\n" +
		"are resumed, or a directory prompt is shown.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		return runReview(cmd, dir)
	},
}

func runReview(cmd *cobra.Command, dir string) error {
	// The TUI owns the terminal, so logs go to a file.
	logPath := filepath.Join(utils.DataDir(), "imgtag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	setupLogger(logFile)

	ws, err := openWorkspace(workspaceOptions{})
	if err != nil {
		return err
	}
	defer ws.Close()

	opts := tui.Options{Dir: dir, SnapshotPath: resume.DefaultPath()}
	if dir == "" {
		if snap, err := resume.Load(opts.SnapshotPath); err == nil {
			opts.Resume = snap
		} else {
			slog.Debug("no previous review to resume", "err", err)
		}
	}

	p := tea.NewProgram(tui.New(ws.session, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
