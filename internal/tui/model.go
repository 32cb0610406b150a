package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"stripdrop/internal/config"
	"stripdrop/internal/processor"
)

type Options struct {
	Coordinator *processor.Coordinator
	Preferences config.Preferences
	// SavePreferences persists toggles and the directory; nil disables it.
	SavePreferences func(config.Preferences) error
	// Clipboard receives the exported file URIs; defaults to the system clipboard.
	Clipboard func(string) error
	Logger    *slog.Logger
}

type tone int

const (
	toneNeutral tone = iota
	toneBusy
	toneOK
	toneBad
)

type focus int

const (
	focusDrop focus = iota
	focusDir
)

type Model struct {
	ctx       context.Context
	coord     *processor.Coordinator
	prefs     config.Preferences
	savePrefs func(config.Preferences) error
	clipboard func(string) error
	logger    *slog.Logger

	drop    textinput.Model
	dir     textinput.Model
	spinner spinner.Model
	focus   focus

	updates   chan processor.ProgressUpdate
	seq       int
	busy      bool
	total     int
	processed int
	failed    int
	leaks     int
	result    processor.BatchResult

	status string
	tone   tone
	width  int
}

// seq ties messages to the drop gesture that produced them.
type progressMsg struct {
	seq    int
	update processor.ProgressUpdate
}

type batchDoneMsg struct {
	seq    int
	result processor.BatchResult
	err    error
}

func NewModel(ctx context.Context, opts Options) Model {
	drop := textinput.New()
	drop.Prompt = "> "
	drop.Placeholder = "drag images here, or paste paths / URLs"
	drop.Focus()

	dir := textinput.New()
	dir.Prompt = "dir: "
	dir.Placeholder = "type a directory and press enter"
	dir.SetValue(opts.Preferences.SaveDirectory)

	m := Model{
		ctx:       ctx,
		coord:     opts.Coordinator,
		prefs:     opts.Preferences,
		savePrefs: opts.SavePreferences,
		clipboard: opts.Clipboard,
		logger:    opts.Logger,
		drop:      drop,
		dir:       dir,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		status:    "drop images into this window",
	}
	if m.clipboard == nil {
		m.clipboard = writeClipboard
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.prefs.SaveDirectoryMissing() {
		m.setStatus("the last save directory no longer exists", toneBad)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case progressMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.total += msg.update.TotalDelta
		m.processed += msg.update.ProcessedDelta
		m.failed += msg.update.ErrorDelta
		m.leaks += msg.update.LeakDelta
		if m.busy {
			m.setStatus(fmt.Sprintf("processing... (%d/%d)", m.processed, m.total), toneBusy)
		}
		return m, listenForUpdates(m.seq, m.updates)
	case batchDoneMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.finishBatch(msg), nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.drop.Width = max(20, msg.Width-8)
		m.dir.Width = max(20, msg.Width-12)
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+s":
		return m.toggleSave()
	case "ctrl+y":
		m.copyResults()
		return m, nil
	case "tab", "shift+tab":
		if m.prefs.SaveEnabled {
			m.setFocus(1 - m.focus)
		}
		return m, nil
	}

	if m.focus == focusDrop && msg.Paste {
		m.drop.SetValue("")
		return m.startBatch(string(msg.Runes))
	}

	if msg.Type == tea.KeyEnter {
		if m.focus == focusDir {
			m.commitDirectory()
			return m, nil
		}
		text := m.drop.Value()
		m.drop.SetValue("")
		return m.startBatch(text)
	}
	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusDir {
		m.dir, cmd = m.dir.Update(msg)
	} else {
		m.drop, cmd = m.drop.Update(msg)
	}
	return m, cmd
}

// startBatch is one drop gesture.
func (m Model) startBatch(text string) (tea.Model, tea.Cmd) {
	if m.busy {
		m.setStatus("still processing the previous drop", toneBad)
		return m, nil
	}

	payload, err := ParseDrop(text)
	if err != nil {
		m.logger.Warn("drop rejected", "error", err)
		m.setStatus("unsupported file type", toneBad)
		return m, nil
	}
	items, err := processor.Classify(payload)
	if err != nil {
		m.setStatus("unsupported file type", toneBad)
		return m, nil
	}

	m.busy = true
	m.seq++
	m.total, m.processed, m.failed, m.leaks = 0, 0, 0, 0
	m.updates = make(chan processor.ProgressUpdate, 64)
	m.setStatus(fmt.Sprintf("processing... (0/%d)", len(items)), toneBusy)

	return m, tea.Batch(
		m.spinner.Tick,
		runBatch(m.ctx, m.seq, m.coord, items, m.prefs.Settings(), m.updates),
		listenForUpdates(m.seq, m.updates),
	)
}

func (m Model) finishBatch(msg batchDoneMsg) Model {
	m.busy = false
	switch {
	case errors.Is(msg.err, processor.ErrSaveDirectoryMissing):
		m.setStatus("save directory does not exist", toneBad)
	case errors.Is(msg.err, processor.ErrBusy):
		m.setStatus("still processing the previous drop", toneBad)
	case msg.err != nil:
		m.setStatus(msg.err.Error(), toneBad)
	default:
		m.result = msg.result
		text := fmt.Sprintf("done: %d written", len(msg.result.Entries))
		if msg.result.Failed > 0 {
			text += fmt.Sprintf(", %d failed", msg.result.Failed)
		}
		if leaks := msg.result.Leaks(); leaks > 0 {
			text += fmt.Sprintf(", %d leaks plugged", leaks)
		}
		m.setStatus(text, toneOK)
	}
	return m
}

func (m Model) toggleSave() (tea.Model, tea.Cmd) {
	m.prefs.SaveEnabled = !m.prefs.SaveEnabled
	m.persist()

	if !m.prefs.SaveEnabled {
		m.setFocus(focusDrop)
		m.setStatus("results go to temporary files", toneNeutral)
		return m, nil
	}
	if m.prefs.SaveDirectory == "" {
		m.setFocus(focusDir)
		m.setStatus("choose a save directory", toneNeutral)
		return m, nil
	}
	m.setStatus("saving to "+m.prefs.SaveDirectory, toneNeutral)
	return m, nil
}

func (m *Model) commitDirectory() {
	dir := expandHome(strings.TrimSpace(m.dir.Value()))
	if dir == "" {
		m.setStatus("choose a save directory", toneBad)
		return
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		m.setStatus("save directory does not exist", toneBad)
		return
	}

	m.prefs.SaveDirectory = dir
	m.dir.SetValue(dir)
	m.persist()
	m.setFocus(focusDrop)
	m.setStatus("saving to "+dir, toneNeutral)
}

func (m *Model) copyResults() {
	paths := m.result.Paths()
	if len(paths) == 0 {
		m.setStatus("nothing to copy", toneBad)
		return
	}
	if err := m.clipboard(URIList(paths)); err != nil {
		m.logger.Warn("clipboard export failed", "error", err)
		m.setStatus("could not reach the clipboard", toneBad)
		return
	}
	m.setStatus(fmt.Sprintf("copied %d file(s)", len(paths)), toneOK)
}

func (m *Model) persist() {
	if m.savePrefs == nil {
		return
	}
	if err := m.savePrefs(m.prefs); err != nil {
		m.logger.Warn("saving preferences failed", "error", err)
	}
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusDir {
		m.drop.Blur()
		m.dir.Focus()
		return
	}
	m.dir.Blur()
	m.drop.Focus()
}

func (m *Model) setStatus(text string, t tone) {
	m.status = text
	m.tone = t
}

func (m Model) View() string {
	zoneWidth := 40
	if m.width > 0 {
		zoneWidth = max(24, m.width-4)
	}

	check := "[ ]"
	if m.prefs.SaveEnabled {
		check = checkedStyle.Render("[x]")
	}

	lines := []string{
		titleStyle.Render("stripdrop"),
		zoneStyle.Width(zoneWidth).Render(m.drop.View()),
		fmt.Sprintf("%s %s", check, labelStyle.Render("save results to a directory")),
	}
	if m.prefs.SaveEnabled {
		lines = append(lines, "    "+m.dir.View())
	}
	lines = append(lines, "", m.renderStatus())

	if m.busy || m.total > 0 {
		lines = append(lines,
			barStyle.Render(renderBar(min(60, zoneWidth-2), m.ratio())),
			dimStyle.Render(fmt.Sprintf("files: %d/%d  errors:%d  leaks plugged:%d", m.processed, m.total, m.failed, m.leaks)),
		)
	}
	if table := renderResults(m.result); table != "" {
		lines = append(lines, "", table)
	}

	lines = append(lines, "", dimStyle.Render("enter drop · ctrl+s save toggle · tab switch field · ctrl+y copy results · esc quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderStatus() string {
	switch m.tone {
	case toneBusy:
		return m.spinner.View() + " " + warnStyle.Render(m.status)
	case toneOK:
		return okStyle.Render(m.status)
	case toneBad:
		return errorStyle.Render(m.status)
	default:
		return labelStyle.Render(m.status)
	}
}

func (m Model) ratio() float64 {
	if m.total == 0 {
		return 0
	}
	return math.Min(1, float64(m.processed)/float64(m.total))
}

func runBatch(ctx context.Context, seq int, coord *processor.Coordinator, items []processor.Item, settings processor.Settings, updates chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		result, err := coord.Process(ctx, items, settings, updates)
		close(updates)
		return batchDoneMsg{seq: seq, result: result, err: err}
	}
}

func listenForUpdates(seq int, updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return nil
		}
		return progressMsg{seq: seq, update: update}
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
