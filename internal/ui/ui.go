package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/shared"
	"github.com/desertthunder/segue/internal/tasks"
)

// snapshotMsg carries a fresh point-in-time copy of the queue.
type snapshotMsg struct {
	entries []queue.Entry
	current int
	mode    models.PlayMode
	state   models.PlayState
}

// progressMsg wraps a populator progress update.
type progressMsg tasks.ProgressUpdate

// actionMsg reports the outcome of a playback control action.
type actionMsg struct {
	err error
}

// Model represents the queue inspector state.
type Model struct {
	ctx    context.Context
	engine tasks.Engine

	width     int
	height    int
	entryList list.Model
	listReady bool

	mode  models.PlayMode
	state models.PlayState

	progressChan <-chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a queue inspector over the engine. progress may be nil when
// no background population is running.
func NewModel(ctx context.Context, engine tasks.Engine, progress <-chan tasks.ProgressUpdate) *Model {
	return &Model{
		ctx:          ctx,
		engine:       engine,
		progressChan: progress,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init takes the first queue snapshot and starts draining progress updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.entryList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case snapshotMsg:
		m.mode = msg.mode
		m.state = msg.state

		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = entryItem{entry: e, current: i == msg.current}
		}

		if !m.listReady {
			m.entryList = list.New(items, list.NewDefaultDelegate(), 0, 0)
			m.entryList.Title = "Playback Queue"
			m.entryList.SetShowHelp(false)
			m.entryList.SetSize(m.width-4, m.height-8)
			m.listReady = true
		} else {
			m.entryList.SetItems(items)
		}
		return m, nil

	case progressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, tea.Batch(m.refresh(), m.waitForProgress())

	case actionMsg:
		m.err = msg.err
		return m, m.refresh()
	}

	return m.updateList(msg)
}

// View renders the queue list with a status header and contextual help.
func (m *Model) View() string {
	if !m.listReady {
		return "Loading queue..."
	}

	status := fmt.Sprintf("mode: %s • state: %s", m.mode, m.state)
	if m.progress.Message != "" {
		status = fmt.Sprintf("%s\n%s", status, styles.warn.Render(m.progress.Message))
	}
	if m.err != nil {
		status = fmt.Sprintf("%s\n%s", status, styles.err.Render(m.err.Error()))
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s", m.entryList.View(), status, helpView)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		return m, m.control(func() error {
			_, err := m.engine.SkipCurrent(m.ctx)
			return err
		})
	case key.Matches(msg, m.keys.prev):
		return m, m.control(func() error {
			_, err := m.engine.Queue().Rewind()
			return err
		})
	case key.Matches(msg, m.keys.mode):
		return m, m.control(func() error {
			m.engine.Queue().SetMode(nextMode(m.engine.Queue().Mode()))
			return nil
		})
	case key.Matches(msg, m.keys.star):
		return m, m.control(func() error {
			return m.engine.StarCurrent(m.ctx, true)
		})
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.listReady {
		return m, nil
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

// control runs a playback action off the update loop. An empty queue is a
// state, not an error worth surfacing.
func (m *Model) control(fn func() error) tea.Cmd {
	return func() tea.Msg {
		err := fn()
		if errors.Is(err, shared.ErrQueueEmpty) {
			err = nil
		}
		return actionMsg{err: err}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		q := m.engine.Queue()
		entries, current := q.Snapshot()
		return snapshotMsg{entries: entries, current: current, mode: q.Mode(), state: q.State()}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return nil
		}

		update, ok := <-m.progressChan
		if !ok {
			return nil
		}
		return progressMsg(update)
	}
}

func nextMode(mode models.PlayMode) models.PlayMode {
	switch mode {
	case models.ModeLinear:
		return models.ModeRepeatOne
	case models.ModeRepeatOne:
		return models.ModeRepeatAll
	case models.ModeRepeatAll:
		return models.ModeShuffle
	default:
		return models.ModeLinear
	}
}
