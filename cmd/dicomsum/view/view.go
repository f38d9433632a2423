// Package view provides the interactive terminal mode: a small form
// to pick an action and target, and a styled result display.
package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dangom/dicomsum/internal/protocol"
	"github.com/dangom/dicomsum/internal/tool"
)

type phase int

const (
	phaseForm phase = iota
	phaseRunning
	phaseResult
	phaseError
)

const (
	actionSummary = "summary"
	actionSearch  = "search"
	actionConvert = "convert"
	actionVolumes = "volumes"
)

// Model is the bubbletea model for interactive mode.
type Model struct {
	form      *huh.Form
	dumper    protocol.Dumper
	converter *tool.NiftiConverter
	exts      []string

	action string
	target string
	tag    string

	phase     phase
	result    string
	err       error
	cancelled bool
}

// resultMsg carries the outcome of one action back into the model.
type resultMsg struct {
	output string
	err    error
}

// NewModel creates the interactive model with an empty form.
func NewModel(dumper protocol.Dumper, converter *tool.NiftiConverter, exts []string) *Model {
	m := &Model{
		dumper:    dumper,
		converter: converter,
		exts:      exts,
		action:    actionSummary,
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Action").
				Options(
					huh.NewOption("Protocol summary", actionSummary),
					huh.NewOption("Search one tag", actionSearch),
					huh.NewOption("Convert to NIfTI", actionConvert),
					huh.NewOption("Count volumes", actionVolumes),
				).
				Value(&m.action),

			huh.NewInput().
				Key("target").
				Title("Target file or directory").
				Value(&m.target).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a target is required")
					}
					if _, err := os.Stat(s); err != nil {
						return fmt.Errorf("cannot stat %s", s)
					}
					return nil
				}),

			huh.NewInput().
				Key("tag").
				Title("Tag name or code (search only)").
				Placeholder("e.g. RepetitionTime or 0018,0080").
				Value(&m.tag),
		),
	)

	return m
}

// Init starts the form.
func (m *Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update advances the form and dispatches the chosen action once the
// form completes.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "q", "esc":
			if m.phase == phaseResult || m.phase == phaseError {
				return m, tea.Quit
			}
		}

	case resultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.phase = phaseError
		} else {
			m.result = msg.output
			m.phase = phaseResult
		}
		return m, nil
	}

	if m.phase != phaseForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.phase = phaseRunning
		return m, m.runAction()
	}
	if m.form.State == huh.StateAborted {
		m.cancelled = true
		return m, tea.Quit
	}

	return m, cmd
}

// runAction executes the chosen action synchronously as a tea.Cmd.
func (m *Model) runAction() tea.Cmd {
	action, target, tagName := m.action, m.target, m.tag
	return func() tea.Msg {
		ctx := context.Background()
		switch action {
		case actionSearch:
			value, err := protocol.SearchTag(ctx, m.dumper, tagName, target)
			return resultMsg{output: value, err: err}

		case actionConvert:
			out, err := m.converter.Convert(ctx, target)
			return resultMsg{output: out, err: err}

		case actionVolumes:
			n, err := tool.CountVolumes(target, m.exts)
			return resultMsg{output: fmt.Sprintf("%d", n), err: err}

		default:
			n, err := tool.CountVolumes(filepath.Dir(target), m.exts)
			if err != nil {
				return resultMsg{err: err}
			}
			summary, err := protocol.BuildSummary(ctx, m.dumper, target, n)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{output: summaryStyle.Render(summary.Protocol) + "\n" + dumpStyle.Render(summary.RawDump)}
		}
	}
}

// View renders the current phase.
func (m *Model) View() string {
	title := titleStyle.Render("dicomsum")

	switch m.phase {
	case phaseRunning:
		return lipgloss.JoinVertical(lipgloss.Left, title, "Running...")
	case phaseResult:
		return lipgloss.JoinVertical(lipgloss.Left, title, m.result, "", "q: Quit")
	case phaseError:
		return lipgloss.JoinVertical(lipgloss.Left, title, errorStyle.Render("Error: "+m.err.Error()), "", "q: Quit")
	default:
		return lipgloss.JoinVertical(lipgloss.Left, title, m.form.View())
	}
}

// Run starts interactive mode and blocks until the user quits.
func Run(dumper protocol.Dumper, converter *tool.NiftiConverter, exts []string) error {
	model := NewModel(dumper, converter, exts)
	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running interactive mode: %w", err)
	}

	if m, ok := finalModel.(*Model); ok {
		if m.cancelled {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}
