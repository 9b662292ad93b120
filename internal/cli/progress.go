package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// progressMsg carries one tick of the driver's progress scalar into the
// bubbletea event loop.
type progressMsg float64

// doneMsg signals that the search driver has returned.
type doneMsg struct{}

// progressModel renders a bubbles/progress bar driven by values read
// off a channel the engine writes to (spec §5 "progress scalar"). It
// never touches the driver directly — the channel is the only
// collaboration surface, per SPEC_FULL.md's "the core only emits the
// scalar... it never imports the TUI package".
type progressModel struct {
	bar      progress.Model
	ch       <-chan float64
	value    float64
	finished bool
	label    string
}

func newProgressModel(label string, ch <-chan float64) progressModel {
	return progressModel{bar: progress.New(progress.WithDefaultGradient()), ch: ch, label: label}
}

func (m progressModel) Init() tea.Cmd {
	return m.waitForProgress()
}

// waitForProgress returns a command that blocks on the channel, so the
// bubbletea runtime only wakes up when the engine actually reports.
func (m progressModel) waitForProgress() tea.Cmd {
	ch := m.ch
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return progressMsg(v)
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progressMsg:
		m.value = float64(msg)
		if m.value >= 1 {
			m.finished = true
			return m, tea.Quit
		}
		return m, m.waitForProgress()
	case doneMsg:
		m.finished = true
		m.value = 1
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n", StyleDim.Render(m.label), m.bar.ViewAs(m.value))
}

// runWithProgress starts fn in a goroutine, feeding its progress
// channel to a bubbletea progress bar on stderr until fn returns.
// quiet suppresses the bar entirely (e.g. when stderr isn't a
// terminal).
func runWithProgress(label string, quiet bool, fn func(progressCh chan<- float64) error) error {
	progressCh := make(chan float64, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(progressCh)
		errCh <- fn(progressCh)
	}()

	if quiet {
		return <-errCh
	}

	p := tea.NewProgram(newProgressModel(label, progressCh), tea.WithOutput(os.Stderr))
	if _, err := p.Run(); err != nil {
		<-errCh
		return err
	}

	return <-errCh
}
