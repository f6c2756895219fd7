package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhengda-lu/imgtag/internal/engine"
	"github.com/zhengda-lu/imgtag/internal/imageinfo"
	"github.com/zhengda-lu/imgtag/internal/resume"
	"github.com/zhengda-lu/imgtag/internal/session"
	"github.com/zhengda-lu/imgtag/internal/utils"
)

type viewState int

const (
	viewOpen viewState = iota
	viewLoading
	viewReview
	viewPrefix
	viewConfirm
	viewRunning
	viewResult
)

type openDoneMsg struct {
	err error
}

type loadMoreDoneMsg struct {
	added int
	more  bool
	err   error
}

type taskProgressMsg struct {
	done  int
	total int
	path  string
}

type taskDoneMsg struct {
	result session.Result
	err    error
}

// Options controls what the review screen opens on start.
type Options struct {
	// Dir is opened immediately when set.
	Dir string
	// Resume is used when Dir is empty and the snapshot is usable.
	Resume resume.Snapshot
	// SnapshotPath is where the position is saved on quit. Empty disables
	// saving.
	SnapshotPath string
}

type Model struct {
	sess        *session.Session
	opts        Options
	currentView viewState

	dirInput    textinput.Model
	labelInput  textinput.Model
	prefixInput textinput.Model
	labeling    bool

	status    session.Status
	curPath   string
	curLabels []string
	info      imageinfo.Info
	infoErr   error

	pending      session.Request
	task         *session.Task
	progressCh   chan taskProgressMsg
	done         int
	total        int
	progressPath string
	quitting     bool

	lastResult session.Result
	lastErr    error

	message string
	isError bool

	spinner  spinner.Model
	progress progress.Model
	help     help.Model

	width  int
	height int
}

func New(sess *session.Session, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	dir := textinput.New()
	dir.Placeholder = "~/Pictures/holiday"
	dir.CharLimit = 4096
	dir.Width = 60

	label := textinput.New()
	label.Placeholder = "label"
	label.CharLimit = 200
	label.Width = 40

	prefix := textinput.New()
	prefix.Placeholder = "holiday"
	prefix.CharLimit = 100
	prefix.Width = 40

	m := Model{
		sess:        sess,
		opts:        opts,
		dirInput:    dir,
		labelInput:  label,
		prefixInput: prefix,
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		help:        help.New(),
	}

	switch {
	case opts.Dir != "":
		m.currentView = viewLoading
	case opts.Resume.Usable():
		m.currentView = viewLoading
		m.opts.Dir = opts.Resume.Directory
	default:
		m.currentView = viewOpen
		m.dirInput.Focus()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.currentView == viewLoading {
		selectPath := ""
		if m.opts.Resume.Directory == m.opts.Dir {
			selectPath = m.opts.Resume.CurrentPath
		}
		return tea.Batch(m.doOpen(m.opts.Dir, selectPath), m.spinner.Tick)
	}
	return textinput.Blink
}

func (m Model) doOpen(dir, selectPath string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		_, err := sess.OpenDirectory(context.Background(), dir)
		if err == nil && selectPath != "" {
			// The image may have been renamed or removed since.
			_ = sess.Select(selectPath)
		}
		return openDoneMsg{err: err}
	}
}

func (m Model) doLoadMore() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		added, more, err := sess.LoadMore(context.Background())
		return loadMoreDoneMsg{added: added, more: more, err: err}
	}
}

func listenProgress(ch chan taskProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func waitTask(task *session.Task, ch chan taskProgressMsg) tea.Cmd {
	return func() tea.Msg {
		res, err := task.Wait()
		close(ch)
		return taskDoneMsg{result: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(msg.Width-10, 60))
		return m, nil

	case spinner.TickMsg:
		if m.currentView == viewLoading || m.currentView == viewRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case openDoneMsg:
		if msg.err != nil {
			m.currentView = viewOpen
			m.setError(msg.err)
			return m, m.dirInput.Focus()
		}
		m.currentView = viewReview
		m.message = ""
		m.refresh()
		m.prefillLabel()
		return m, nil

	case loadMoreDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setMessage(fmt.Sprintf("Tracked %s more", utils.Plural(msg.added, "image")))
		}
		m.refresh()
		return m, nil

	case taskProgressMsg:
		m.done, m.total, m.progressPath = msg.done, msg.total, msg.path
		return m, listenProgress(m.progressCh)

	case taskDoneMsg:
		m.task = nil
		m.lastResult = msg.result
		m.lastErr = msg.err
		m.refresh()
		if m.quitting {
			m.saveSnapshot()
			return m, tea.Quit
		}
		m.currentView = viewResult
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

		switch m.currentView {
		case viewOpen:
			return m.updateOpen(msg)
		case viewLoading:
			// waiting for the scan, no input
		case viewReview:
			return m.updateReview(msg)
		case viewPrefix:
			return m.updatePrefix(msg)
		case viewConfirm:
			return m.updateConfirm(msg)
		case viewRunning:
			return m.updateRunning(msg)
		case viewResult:
			return m.updateResult(msg)
		}

	default:
		// Forward cursor blink and other messages to the focused input.
		var cmd tea.Cmd
		switch {
		case m.currentView == viewOpen:
			m.dirInput, cmd = m.dirInput.Update(msg)
		case m.currentView == viewPrefix:
			m.prefixInput, cmd = m.prefixInput.Update(msg)
		case m.currentView == viewReview && m.labeling:
			m.labelInput, cmd = m.labelInput.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

// quit saves the position and exits. A running task is cancelled first so
// that its files are put back before the program ends.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.task != nil {
		m.quitting = true
		m.task.Cancel()
		return m, nil
	}
	m.saveSnapshot()
	return m, tea.Quit
}

func (m Model) updateOpen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		dir := utils.ExpandHome(strings.TrimSpace(m.dirInput.Value()))
		if dir == "" {
			return m, nil
		}
		m.dirInput.Blur()
		m.currentView = viewLoading
		m.opts.Dir = dir
		return m, tea.Batch(m.doOpen(dir, ""), m.spinner.Tick)
	case "esc":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.dirInput, cmd = m.dirInput.Update(msg)
	return m, cmd
}

func (m Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.labeling {
		return m.updateLabelInput(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Prev):
		m.sess.Prev()
		m.refresh()
	case key.Matches(msg, keys.Next):
		m.sess.Next()
		m.refresh()
	case key.Matches(msg, keys.Label):
		if m.curPath == "" {
			return m, nil
		}
		m.labeling = true
		m.prefillLabel()
		return m, m.labelInput.Focus()
	case key.Matches(msg, keys.Remove):
		idx := int(msg.String()[0] - '1')
		if idx < len(m.curLabels) {
			label := m.curLabels[idx]
			removed, err := m.sess.RemoveLabel(context.Background(), label)
			switch {
			case err != nil:
				m.setError(err)
			case removed:
				m.setMessage(fmt.Sprintf("Removed %q", label))
			}
			m.refresh()
		}
	case key.Matches(msg, keys.ToggleDef):
		label, use := m.sess.DefaultLabel()
		if strings.TrimSpace(label) == "" {
			m.setMessage("No default label configured (imgtag config set-default-label)")
			return m, nil
		}
		m.sess.SetDefaultLabel(label, !use)
		m.prefillLabel()
		if use {
			m.setMessage("Default label off")
		} else {
			m.setMessage(fmt.Sprintf("Default label %q on", label))
		}
	case key.Matches(msg, keys.LoadMore):
		if !m.status.HasMore() {
			m.setMessage("Every image is already tracked")
			return m, nil
		}
		return m, m.doLoadMore()
	case key.Matches(msg, keys.Rename):
		if m.status.Total == 0 {
			return m, nil
		}
		m.currentView = viewPrefix
		m.prefixInput.SetValue("")
		return m, m.prefixInput.Focus()
	case key.Matches(msg, keys.Organize):
		m.pending = session.Request{Kind: session.KindOrganize}
		m.currentView = viewConfirm
	case key.Matches(msg, keys.Purge):
		m.pending = session.Request{Kind: session.KindPurge}
		m.currentView = viewConfirm
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateLabelInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		input := m.labelInput.Value()
		added, err := m.sess.AddLabel(context.Background(), input)
		switch {
		case err != nil:
			m.setError(err)
		case added:
			m.setMessage("Label added")
		default:
			m.setMessage("Nothing added")
		}
		m.refresh()
		m.prefillLabel()
		return m, nil
	case "esc":
		m.labeling = false
		m.labelInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.labelInput, cmd = m.labelInput.Update(msg)
	return m, cmd
}

func (m Model) updatePrefix(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.prefixInput.Blur()
		prefix, err := engine.ValidatePrefix(m.prefixInput.Value())
		switch {
		case err != nil:
			m.setError(err)
			m.currentView = viewReview
		case prefix == "":
			m.setMessage("Blank prefix, nothing renamed")
			m.currentView = viewReview
		default:
			m.pending = session.Request{Kind: session.KindRename, Prefix: prefix}
			m.currentView = viewConfirm
		}
		return m, nil
	case "esc":
		m.prefixInput.Blur()
		m.currentView = viewReview
		return m, nil
	}
	var cmd tea.Cmd
	m.prefixInput, cmd = m.prefixInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		return m.startTask()
	case "n", "esc", "backspace":
		m.currentView = viewReview
	}
	return m, nil
}

func (m Model) startTask() (Model, tea.Cmd) {
	ch := make(chan taskProgressMsg, 1)
	report := func(done, total int, path string) {
		select {
		case ch <- taskProgressMsg{done: done, total: total, path: path}:
		default:
		}
	}

	task, err := m.sess.Start(context.Background(), m.pending, report)
	if err != nil {
		m.setError(err)
		m.currentView = viewReview
		return m, nil
	}

	m.task = task
	m.progressCh = ch
	m.done, m.total, m.progressPath = 0, 0, ""
	m.currentView = viewRunning
	return m, tea.Batch(m.spinner.Tick, listenProgress(ch), waitTask(task, ch))
}

func (m Model) updateRunning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		if m.task != nil {
			m.task.Cancel()
			m.setMessage("Cancelling...")
		}
	case key.Matches(msg, keys.Quit):
		return m.quit()
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Acknowledge):
		m.currentView = viewReview
		m.message = ""
	case key.Matches(msg, keys.Quit):
		return m.quit()
	}
	return m, nil
}

// refresh re-reads the session status and the record under the cursor.
func (m *Model) refresh() {
	m.status = m.sess.Status()
	path, labels, ok := m.sess.Current()
	if !ok {
		m.curPath, m.curLabels = "", nil
		m.info, m.infoErr = imageinfo.Info{}, nil
		return
	}
	if path != m.curPath {
		m.info, m.infoErr = imageinfo.Read(path)
	}
	m.curPath, m.curLabels = path, labels
}

// prefillLabel puts the default label into the input while it is in use.
func (m *Model) prefillLabel() {
	label, use := m.sess.DefaultLabel()
	if use {
		m.labelInput.SetValue(strings.TrimSpace(label))
		m.labelInput.CursorEnd()
		return
	}
	m.labelInput.SetValue("")
}

func (m *Model) setMessage(s string) {
	m.message, m.isError = s, false
}

func (m *Model) setError(err error) {
	m.message, m.isError = err.Error(), true
}

func (m Model) saveSnapshot() {
	if m.opts.SnapshotPath == "" || m.status.Directory == "" {
		return
	}
	snap := resume.Snapshot{Directory: m.status.Directory, CurrentPath: m.curPath}
	if err := resume.Save(m.opts.SnapshotPath, snap); err != nil {
		slog.Warn("failed to save review position", "err", err)
	}
}

func (m Model) View() string {
	switch m.currentView {
	case viewOpen:
		return m.viewOpen()
	case viewLoading:
		return renderHeader() + "\n" + m.spinner.View() + " Scanning " + m.opts.Dir + "...\n"
	case viewReview:
		return m.viewReview()
	case viewPrefix:
		return m.viewPrefix()
	case viewConfirm:
		return m.viewConfirm()
	case viewRunning:
		return m.viewRunning()
	case viewResult:
		return m.viewResult()
	default:
		return m.viewOpen()
	}
}

func (m Model) viewOpen() string {
	s := renderHeader("Open") + "\n"
	s += "Directory to review:\n\n"
	s += "  " + m.dirInput.View() + "\n"
	s += m.viewMessage()
	return s + renderFooter("enter open | esc quit")
}

func (m Model) viewReview() string {
	s := renderHeader(filepath.Base(m.status.Directory)) + "\n"

	if m.status.Total == 0 {
		s += "No images in " + m.status.Directory + "\n"
		return s + m.viewMessage() + helpStyle.Render(m.help.View(keys))
	}

	if m.curPath != "" {
		s += selectedStyle.Render(filepath.Base(m.curPath)) + "\n"
		s += dimStyle.Render(m.infoLine()) + "\n\n"
		s += "  Labels: " + renderChips(m.curLabels) + "\n\n"
	}

	if m.labeling {
		s += "  Add label: " + m.labelInput.View() + "\n"
	} else {
		s += dimStyle.Render("  press enter to add a label") + "\n"
	}

	if label, use := m.sess.DefaultLabel(); strings.TrimSpace(label) != "" {
		state := "off"
		if use {
			state = "on"
		}
		s += dimStyle.Render(fmt.Sprintf("  default label: %s (%s)", label, state)) + "\n"
	}

	s += "\n" + statusBarStyle.Render(m.statusLine()) + " " + renderCoverageBar(m.coverage(), 20) + "\n"
	s += m.viewMessage()
	return s + helpStyle.Render(m.help.View(keys))
}

func (m Model) infoLine() string {
	if m.infoErr != nil {
		return m.infoErr.Error()
	}
	var parts []string
	if m.info.Format != "" {
		parts = append(parts, fmt.Sprintf("%s %dx%d", strings.ToUpper(m.info.Format), m.info.Width, m.info.Height))
	}
	parts = append(parts, utils.FormatSize(m.info.Size))
	if m.info.HasTaken {
		parts = append(parts, "taken "+m.info.TakenAt.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " · ")
}

// statusLine renders "image i/n, loaded k/n".
func (m Model) statusLine() string {
	return fmt.Sprintf("image %d/%d, loaded %d/%d", m.status.Current+1, m.status.Total, m.status.Loaded, m.status.Total)
}

func (m Model) coverage() float64 {
	if m.status.Total == 0 {
		return 0
	}
	return float64(m.status.Loaded) / float64(m.status.Total)
}

func (m Model) viewMessage() string {
	if m.message == "" {
		return ""
	}
	if m.isError {
		return "\n" + failStyle.Render(m.message) + "\n"
	}
	return "\n" + successStyle.Render(m.message) + "\n"
}

func (m Model) viewPrefix() string {
	s := renderHeader(filepath.Base(m.status.Directory), "Rename") + "\n"
	s += "New name prefix:\n\n"
	s += "  " + m.prefixInput.View() + "\n\n"
	s += dimStyle.Render(fmt.Sprintf("  %s become PREFIX_0001.ext, PREFIX_0002.ext, ...", utils.Plural(m.status.Total, "image"))) + "\n"
	return s + renderFooter("enter continue | esc back")
}

func (m Model) viewConfirm() string {
	s := dangerStyle.Render(" CONFIRM "+strings.ToUpper(string(m.pending.Kind))+" ") + "\n\n"
	dir := m.status.Directory

	switch m.pending.Kind {
	case session.KindRename:
		s += fmt.Sprintf("  Rename all %s of %s\n", utils.Plural(m.status.Total, "image"), dir)
		s += fmt.Sprintf("  to %s, %s, ...\n", engine.TargetName(m.pending.Prefix, 0, ".jpg"), engine.TargetName(m.pending.Prefix, 1, ".jpg"))
		s += dimStyle.Render("  Labels move with their files.") + "\n"
	case session.KindOrganize:
		s += fmt.Sprintf("  Copy every labeled image of %s\n", dir)
		s += "  into one folder per label.\n"
		s += dimStyle.Render("  Originals stay in place, existing copies are kept.") + "\n"
	case session.KindPurge:
		s += fmt.Sprintf("  Delete every tracked image of %s that has no labels.\n", dir)
		s += fmt.Sprintf("  %d of %d images are tracked.\n", m.status.Loaded, m.status.Total)
		s += warnStyle.Render("  This cannot be undone unless purge.method is trash.") + "\n"
	}

	return s + helpStyle.Render("\n  y confirm | n cancel")
}

func (m Model) viewRunning() string {
	s := renderHeader(filepath.Base(m.status.Directory), string(m.pending.Kind)) + "\n"
	s += m.spinner.View() + " Working...\n\n"

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.done) / float64(m.total)
	}
	s += "  " + m.progress.ViewAs(ratio) + "\n"
	s += dimStyle.Render(fmt.Sprintf("  %d/%d %s", m.done, m.total, truncPath(filepath.Base(m.progressPath), 40))) + "\n"
	s += m.viewMessage()
	return s + renderFooter("esc cancel")
}

func (m Model) viewResult() string {
	r := m.lastResult
	s := titleStyle.Render(fmt.Sprintf("imgtag -- %s finished", r.Kind)) + "\n\n"

	var failures []engine.Failure
	switch r.Kind {
	case session.KindRename:
		s += successStyle.Render(fmt.Sprintf("  Renamed:   %d", r.Rename.Renamed)) + "\n"
		s += fmt.Sprintf("  Skipped:   %d\n", r.Rename.Skipped)
		failures = r.Rename.Conflicts
	case session.KindOrganize:
		s += successStyle.Render(fmt.Sprintf("  Copied:    %d (%s)", r.Organize.Copied, utils.FormatSize(r.Organize.Bytes))) + "\n"
		s += fmt.Sprintf("  Existing:  %d\n", r.Organize.Existing)
		s += fmt.Sprintf("  Skipped:   %d\n", r.Organize.Skipped)
		failures = append(append(failures, r.Organize.Conflicts...), r.Organize.Failures...)
	case session.KindPurge:
		s += successStyle.Render(fmt.Sprintf("  Deleted:   %d", r.Purge.Deleted)) + "\n"
		s += fmt.Sprintf("  Missing:   %d\n", r.Purge.Missing)
		failures = r.Purge.Failures
	}

	if len(failures) > 0 {
		s += failStyle.Render(fmt.Sprintf("  Failed:    %d", len(failures))) + "\n"
		for i, f := range failures {
			if i == 5 {
				s += dimStyle.Render(fmt.Sprintf("    ... and %d more", len(failures)-5)) + "\n"
				break
			}
			s += dimStyle.Render(fmt.Sprintf("    %s: %s", truncPath(f.Path, 40), f.Err)) + "\n"
		}
	}

	switch {
	case errors.Is(m.lastErr, context.Canceled):
		s += "\n" + warnStyle.Render("  Cancelled. Finished records were kept.") + "\n"
	case m.lastErr != nil:
		s += "\n" + failStyle.Render("  "+m.lastErr.Error()) + "\n"
	}

	return s + renderFooter("\n  enter back | q quit")
}
