// Package main demonstrates hosting a flux.Loop inside a real asynchronous
// runtime: Bubbletea. The loop's HostScheduler is satisfied by sending a
// custom tea.Msg back into the program whenever the loop has queued work,
// so reactions and derived properties stay in step with the rendered view
// without the host ever calling into the loop's internals directly.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	flux "github.com/cerebralia/fluxcore"
)

type keyMap struct {
	Increment key.Binding
	Decrement key.Binding
	Reset     key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Increment: key.NewBinding(
		key.WithKeys("up", "k", "+"),
		key.WithHelp("↑/k/+", "increment"),
	),
	Decrement: key.NewBinding(
		key.WithKeys("down", "j", "-"),
		key.WithHelp("↓/j/-", "decrement"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	counterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("63")).
			Padding(1, 3).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Width(28).
			Align(lipgloss.Center)

	derivedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Padding(0, 2)

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// loopReadyMsg is delivered whenever the loop's HostScheduler callback
// fires: a round is pending and safe to drain.
type loopReadyMsg struct{}

type model struct {
	loop     *flux.Loop
	counter  *flux.Component
	spin     spinner.Model
	pending  chan struct{}
	quitting bool
}

func waitForLoop(pending chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-pending
		return loopReadyMsg{}
	}
}

func initialModel() model {
	loop := flux.NewLoop()
	pending := make(chan struct{}, 1)

	// The loop's only contact with the outside world: run the pending
	// round on its own goroutine, then nudge the channel so Bubbletea
	// re-reads the component's properties on its own goroutine. A real
	// tea.Program.Send would work here too; the channel keeps this
	// example runnable without holding a *tea.Program reference inside
	// the loop's construction.
	loop.Integrate(flux.HostSchedulerFunc(func(fn func()) {
		go func() {
			fn()
			select {
			case pending <- struct{}{}:
			default:
			}
		}()
	}))

	counter := newCounter(loop)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		loop:    loop,
		counter: counter,
		spin:    sp,
		pending: pending,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForLoop(m.pending))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loopReadyMsg:
		return m, waitForLoop(m.pending)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Increment):
			m.counter.Action("increment").Invoke()
		case key.Matches(msg, keys.Decrement):
			m.counter.Action("decrement").Invoke()
		case key.Matches(msg, keys.Reset):
			m.counter.Action("reset").Invoke()
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "fluxcore bubbletea-host closed.\n"
	}

	count := m.counter.Get("count").(int)
	doubled := m.counter.Get("doubled").(int)
	isEven := m.counter.Get("is_even").(bool)
	history, _ := m.counter.Get("history").([]interface{})

	title := titleStyle.Render(m.spin.View() + " fluxcore counter (hosted by Bubbletea)")
	box := counterStyle.Render(fmt.Sprintf("count: %d", count))

	parity := "odd"
	if isEven {
		parity = "even"
	}
	derived := derivedStyle.Render(fmt.Sprintf("doubled: %d   parity: %s", doubled, parity))

	historyStr := "history:"
	for _, v := range history {
		historyStr += fmt.Sprintf(" %v", v)
	}
	hist := historyStyle.Render(historyStr)

	help := helpStyle.Render(
		keys.Increment.Help().Key + " " + keys.Increment.Help().Desc + "  ·  " +
			keys.Decrement.Help().Key + " " + keys.Decrement.Help().Desc + "  ·  " +
			keys.Reset.Help().Key + " " + keys.Reset.Help().Desc + "  ·  " +
			keys.Quit.Help().Key + " " + keys.Quit.Help().Desc,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, "", box, "", derived, hist, "", help)
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
