package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ccmd/internal/sim"
)

const historyLen = 60

// ProgressMsg carries one observer report into the program.
type ProgressMsg sim.Progress

// DoneMsg ends the program once the run has returned.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

type Model struct {
	label   string
	phase   string
	step    int
	total   int
	time    float64
	kinetic float64
	history []float64
	bar     progress.Model
	started time.Time
	cancel  context.CancelFunc

	done bool
	err  error
}

func NewModel(label string, cancel context.CancelFunc) Model {
	return Model{
		label:   label,
		phase:   sim.PhaseCool,
		bar:     progress.New(progress.WithDefaultGradient()),
		history: make([]float64, 0, historyLen),
		started: time.Now(),
		cancel:  cancel,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, msg.Width-4)
		return m, nil
	case ProgressMsg:
		if msg.Phase != m.phase {
			m.history = m.history[:0]
		}
		m.phase = msg.Phase
		m.step = msg.Step
		m.total = msg.Total
		m.time = msg.Time
		m.kinetic = msg.Kinetic
		if len(m.history) == historyLen {
			m.history = append(m.history[:0], m.history[1:]...)
		}
		m.history = append(m.history, msg.Kinetic)
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

// Fraction is the completed share of the current phase.
func (m Model) Fraction() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.step) / float64(m.total)
}

func (m Model) View() string {
	var sb strings.Builder

	phase := "cooling"
	if m.phase == sim.PhaseHist {
		phase = "acquiring histogram"
	}
	sb.WriteString(Title("ccmd") + " " + dim.Render(m.label) + "\n\n")
	sb.WriteString(magenta.Render(phase) + "  " +
		Label("step", fmt.Sprintf("%d/%d", m.step, m.total)) + "  " +
		Label("t", fmt.Sprintf("%.2f", m.time)) + "  " +
		Label("KE", fmt.Sprintf("%.4g", m.kinetic)) + "\n")
	sb.WriteString(m.bar.ViewAs(m.Fraction()) + "\n")

	if len(m.history) > 1 {
		sb.WriteString("\n" + dim.Render(asciigraph.Plot(m.history, asciigraph.Height(6), asciigraph.Width(historyLen))) + "\n")
	}

	elapsed := time.Since(m.started).Round(time.Second)
	switch {
	case m.done && m.err != nil:
		sb.WriteString("\n" + Failure("error: "+m.err.Error()) + "\n")
	case m.done:
		sb.WriteString("\n" + Success("done") + " " + dim.Render(elapsed.String()) + "\n")
	default:
		sb.WriteString("\n" + dim.Render(elapsed.String()+"  q to stop") + "\n")
	}
	return sb.String()
}

// Reporter forwards run progress to a program at most fps times a second,
// plus the last step of every phase.
type Reporter struct {
	send     func(tea.Msg)
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewReporter(send func(tea.Msg), fps int) *Reporter {
	if fps < 1 {
		fps = 1
	}
	return &Reporter{send: send, interval: time.Second / time.Duration(fps)}
}

func (r *Reporter) OnStep(p sim.Progress) {
	r.mu.Lock()
	now := time.Now()
	due := now.Sub(r.last) >= r.interval || p.Step == p.Total
	if due {
		r.last = now
	}
	r.mu.Unlock()
	if due {
		r.send(ProgressMsg(p))
	}
}

// RunFunc runs a simulation reporting to the given observer.
type RunFunc func(ctx context.Context, obs sim.Observer) (*sim.Result, error)

// Run shows live progress while run executes. Quitting the program cancels
// the run.
func Run(ctx context.Context, label string, run RunFunc) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(label, cancel))

	var (
		result *sim.Result
		runErr error
		wg     sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, runErr = run(ctx, NewReporter(p.Send, 20))
		p.Send(DoneMsg{Result: result, Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		wg.Wait()
		return result, err
	}
	wg.Wait()
	return result, runErr
}
