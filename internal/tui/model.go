package tui

import (
	"fmt"
	"strings"
	"time"

	"stackprobe/internal/color"
	"stackprobe/internal/suite"
	"stackprobe/pkg/logging"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MaxActivityLogLines bounds the log kept in memory.
const MaxActivityLogLines = 500

var clipboardWriteAll = clipboard.WriteAll

type scenarioRow struct {
	name     string
	result   suite.Result
	running  bool
	steps    int
	lastStep string
	err      string
	duration time.Duration
}

// Model is the bubbletea model of a suite run.
type Model struct {
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	logChannel <-chan logging.LogEntry
	interrupt  func()

	config      suite.Configuration
	rows        []scenarioRow
	activityLog []string
	showLog     bool
	dark        bool
	status      string

	result      *suite.SuiteResult
	runErr      error
	finished    bool
	interrupted bool

	width  int
	height int
}

// NewModel creates the model. interrupt is called when the operator quits
// while the run is still going.
func NewModel(logChannel <-chan logging.LogEntry, interrupt func()) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = color.HeaderStyle

	return &Model{
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    s,
		logChannel: logChannel,
		interrupt:  interrupt,
		showLog:    true,
		dark:       lipgloss.HasDarkBackground(),
		status:     "Waiting for scenarios",
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, ListenForLogEntriesCmd(m.logChannel))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RunStartedMsg:
		m.config = msg.Config
		m.status = "Running scenarios from " + msg.Config.ScenarioPath
		return m, nil

	case ScenarioStartedMsg:
		m.rows = append(m.rows, scenarioRow{name: msg.Scenario.Name, running: true})
		m.status = "Running " + msg.Scenario.Name
		return m, nil

	case StepDoneMsg:
		if row := m.row(""); row != nil {
			row.steps++
			row.lastStep = msg.Result.Step.Name
			if msg.Result.Error != "" && row.err == "" {
				row.err = firstLine(msg.Result.Error)
			}
		}
		return m, nil

	case ScenarioDoneMsg:
		row := m.row(msg.Result.Scenario.Name)
		if row == nil {
			m.rows = append(m.rows, scenarioRow{name: msg.Result.Scenario.Name})
			row = &m.rows[len(m.rows)-1]
		}
		row.running = false
		row.result = msg.Result.Result
		row.duration = msg.Result.Duration
		if msg.Result.Error != "" {
			row.err = firstLine(msg.Result.Error)
		}
		return m, nil

	case SuiteDoneMsg:
		result := msg.Result
		m.result = &result
		return m, nil

	case RunFinishedMsg:
		m.finished = true
		m.runErr = msg.Err
		m.status = "Run finished"
		return m, tea.Quit

	case LogEntryMsg:
		m.appendLogLine(fmt.Sprintf("[%s] %s %s: %s",
			msg.Entry.Timestamp.Format("15:04:05"), msg.Entry.Level, msg.Entry.Subsystem, msg.Entry.Message))
		return m, ListenForLogEntriesCmd(m.logChannel)

	case clipboardResultMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Log copied to clipboard"
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.finished || m.interrupted {
			return m, tea.Quit
		}
		m.interrupted = true
		m.status = "Interrupting..."
		if m.interrupt != nil {
			m.interrupt()
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleLog):
		m.showLog = !m.showLog
		return m, nil
	case key.Matches(msg, m.keys.CopyLogs):
		text := strings.Join(m.activityLog, "\n")
		return m, func() tea.Msg {
			return clipboardResultMsg{err: clipboardWriteAll(text)}
		}
	case key.Matches(msg, m.keys.ToggleDark):
		m.dark = !m.dark
		color.Initialize(m.dark)
		return m, nil
	}
	return m, nil
}

// row returns the row named name, or the running row when name is "".
func (m *Model) row(name string) *scenarioRow {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if (name == "" && m.rows[i].running) || (name != "" && m.rows[i].name == name) {
			return &m.rows[i]
		}
	}
	return nil
}

func (m *Model) appendLogLine(line string) {
	m.activityLog = append(m.activityLog, line)
	if len(m.activityLog) > MaxActivityLogLines {
		m.activityLog = m.activityLog[len(m.activityLog)-MaxActivityLogLines:]
	}
}

// Result returns the suite result once the run reported it.
func (m *Model) Result() *suite.SuiteResult {
	return m.result
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
