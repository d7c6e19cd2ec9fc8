package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunningView ViewState = iota
	ResultView
)

// recentLines is how many item messages the running view keeps on screen.
const recentLines = 6

// Job is a download run that reports through progress and returns its batch.
type Job func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.BatchResult, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	title        string
	job          Job
	view         ViewState
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	outcomes     list.Model
	progressChan chan tasks.ProgressUpdate
	done         chan runComplete
	current      tasks.ProgressUpdate
	recent       []string
	cancelled    bool
	result       *tasks.BatchResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a monitor that runs job under ctx when the program starts.
func NewModel(ctx context.Context, title string, job Job) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		title:   title,
		job:     job,
		view:    RunningView,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the finished batch and error once the program has exited.
func (m *Model) Result() (*tasks.BatchResult, error) {
	return m.result, m.err
}

// Init starts the job and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(min(msg.Width-4, 80), 10)
		if m.view == ResultView {
			m.outcomes.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == RunningView {
			return m.handleRunningKeys(msg)
		}
		return m.handleResultKeys(msg)

	case spinner.TickMsg:
		if m.view != RunningView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			cmd := m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, tea.Batch(cmd, m.waitForProgress())
		case MsgRunComplete:
			done := msg.data.(runComplete)
			m.finish(done.result, done.err)
			return m, nil
		}
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.outcomes, cmd = m.outcomes.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleRunningKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && !m.cancelled {
		m.cancelled = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.outcomes, cmd = m.outcomes.Update(msg)
	return m, cmd
}

// applyProgress records update and returns the progress bar animation, if any.
func (m *Model) applyProgress(update tasks.ProgressUpdate) tea.Cmd {
	m.current = update

	switch update.Phase {
	case tasks.FetchAudio:
		ev, ok := update.Data.(tasks.FetchEvent)
		if !ok || !ev.Known || update.Total == 0 {
			return nil
		}
		return m.bar.SetPercent((float64(update.Step-1) + ev.Fraction) / float64(update.Total))

	case tasks.ItemComplete:
		line := update.Message
		if outcome, ok := update.Data.(models.ItemOutcome); ok {
			line = styles.status(line, outcome.Status())
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}
		if update.Total > 0 {
			return m.bar.SetPercent(float64(update.Step) / float64(update.Total))
		}
	}
	return nil
}

func (m *Model) finish(result *tasks.BatchResult, err error) {
	m.result = result
	m.err = err
	m.view = ResultView
	m.cancel()

	var items []list.Item
	if result != nil {
		items = outcomeItems(result.Outcomes)
	}

	w, h := m.width-4, m.height-8
	if w <= 0 || h <= 0 {
		w, h = 80, 20
	}
	m.outcomes = list.New(items, list.NewDefaultDelegate(), w, h)
	m.outcomes.Title = "Tracks"
	m.outcomes.SetShowHelp(false)
}

func (m *Model) start() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan runComplete, 1)

	go func(progress chan tasks.ProgressUpdate, done chan<- runComplete) {
		result, err := m.job(m.ctx, progress)
		done <- runComplete{result, err}
		close(progress)
	}(m.progressChan, m.done)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			c := <-done
			return runCompleteMsg(c.result, c.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRunning() string {
	title := styles.title.Render(m.title)

	status := m.current.Message
	if status == "" {
		status = "Starting..."
	}
	if m.cancelled {
		status = styles.warn.Render("Cancelling, remaining tracks will be skipped...")
	}

	var counter string
	if m.current.Total > 0 {
		counter = styles.help.Render(fmt.Sprintf(" %s", m.current.Progress()))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n%s %s%s\n\n%s\n", title, m.spinner.View(), status, counter, m.bar.View()))
	if len(m.recent) > 0 {
		b.WriteString("\n" + strings.Join(m.recent, "\n") + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.cancel}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	heading := styles.ok.Render("✓ " + m.result.Summary())
	if m.result.Count(models.StatusFetched) < m.result.Total() {
		heading = styles.warn.Render("! " + m.result.Summary())
	}
	if m.cancelled {
		heading += styles.help.Render(" (cancelled)")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", heading, m.outcomes.View(), helpView)
}
