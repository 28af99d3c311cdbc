package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TUIRenderer shows a live progress bar via bubbletea.
type TUIRenderer struct {
	cfg Config

	mu      sync.Mutex
	program *tea.Program
	started bool
	done    chan struct{}
}

// Verify interface implementation at compile time
var _ Renderer = (*TUIRenderer)(nil)

// NewTUIRenderer creates a TUI renderer. Fails when the output is not
// a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	return &TUIRenderer{cfg: cfg, done: make(chan struct{})}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	styles := DefaultStyles()
	if r.cfg.NoColor || DetectNoColor() {
		styles = NoColorStyles()
	}

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(newSyncModel(styles), opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// Update implements Renderer.
func (r *TUIRenderer) Update(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(progressMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	program.Quit()
	<-r.done
	return nil
}

type progressMsg ProgressEvent

type completeMsg CompletionStats

// syncModel is the bubbletea model for one sync run.
type syncModel struct {
	styles  Styles
	spinner spinner.Model
	bar     progress.Model

	stage     string
	processed int
	total     int
	complete  bool
	stats     CompletionStats
}

func newSyncModel(styles Styles) *syncModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &syncModel{
		styles:  styles,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (m *syncModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *syncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.stage = msg.Stage
		m.processed = msg.Processed
		m.total = msg.Total
		return m, nil

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *syncModel) View() string {
	if m.complete {
		return m.styles.Summary.Render(fmt.Sprintf(
			"Sync complete in %s: +%d ~%d -%d (%d files, %d tags)",
			m.stats.Duration.Round(timeRounding),
			m.stats.Added, m.stats.Updated, m.stats.Removed,
			m.stats.Files, m.stats.Tags)) + "\n"
	}

	line := m.spinner.View() + " " + m.styles.Stage.Render(m.stage)
	if m.total > 0 {
		line += " " + m.bar.ViewAs(float64(m.processed)/float64(m.total))
		line += " " + m.styles.Counter.Render(fmt.Sprintf("%d/%d", m.processed, m.total))
	}
	return m.styles.Title.Render("tagindex sync") + "\n" + line + "\n"
}
