package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fractal/internal/escape"
	"github.com/san-kum/fractal/internal/render"
)

const (
	defaultCols     = 64
	historyCapacity = 600
)

type TickMsg time.Time

// LiveModel advances an engine while drawing it. Bounded iteration runs one
// round per tick, honoring per-frame budgets; wrapping iteration runs its
// whole step count on the first tick.
type LiveModel struct {
	engine    *escape.Engine
	budget    []int
	mode      escape.Mode
	rounds    int
	done      int
	display   escape.DisplayMode
	colormaps []*render.Colormap
	cmapIdx   int
	frame     int
	cols      int
	interval  time.Duration
	running   bool
	braille   bool
	showHelp  bool
	history   []float64
	err       error
}

// NewLiveModel prepares a model for an initialized engine. colormaps must
// not be empty.
func NewLiveModel(eng *escape.Engine, steps escape.Series[int], mode escape.Mode, display escape.DisplayMode, colormaps []*render.Colormap) (LiveModel, error) {
	if !eng.Initialized() {
		return LiveModel{}, escape.ErrNotInitialized
	}
	if len(colormaps) == 0 {
		return LiveModel{}, fmt.Errorf("live view needs at least one colormap")
	}
	budget, err := steps.Resolve("steps", eng.Shape().Frames)
	if err != nil {
		return LiveModel{}, err
	}
	rounds := 0
	for _, n := range budget {
		rounds = max(rounds, n)
	}
	return LiveModel{
		engine:    eng,
		budget:    budget,
		mode:      mode,
		rounds:    rounds,
		display:   display,
		colormaps: colormaps,
		cols:      defaultCols,
		interval:  time.Second / 30,
		running:   true,
		history:   make([]float64, 0, historyCapacity),
	}, nil
}

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd { return m.tick() }

// Done reports whether every round has run.
func (m LiveModel) Done() bool { return m.done >= m.rounds }

// Err is the error that stopped iteration, if any.
func (m LiveModel) Err() error { return m.err }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "c":
			m.cmapIdx = (m.cmapIdx + 1) % len(m.colormaps)
		case "d":
			modes := escape.DisplayModes()
			for i, d := range modes {
				if d == m.display {
					m.display = modes[(i+1)%len(modes)]
					break
				}
			}
		case "f":
			m.frame = (m.frame + 1) % m.engine.Shape().Frames
		case "b":
			m.braille = !m.braille
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.cols = max(8, msg.Width-50)
		return m, nil

	case TickMsg:
		if m.running && !m.Done() && m.err == nil {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) step() {
	if m.mode == escape.Wrapping {
		m.err = m.engine.Advance(escape.Scalar(m.rounds), m.mode)
		m.done = m.rounds
	} else {
		round := make([]int, len(m.budget))
		for f, n := range m.budget {
			if m.done < n {
				round[f] = 1
			}
		}
		m.err = m.engine.Advance(escape.PerFrame(round...), m.mode)
		m.done++
	}

	stats := m.engine.Stats()
	if len(m.history) == historyCapacity {
		m.history = m.history[1:]
	}
	m.history = append(m.history, stats[m.frame].DivergedFraction())
}

func (m LiveModel) View() string {
	disp, err := m.engine.SelectDisplay(m.display, false)
	if err != nil {
		return "error: " + err.Error() + "\n"
	}

	cmap := m.colormaps[m.cmapIdx]
	var canvas string
	if m.braille {
		rows := max(1, PreviewRows(m.cols, disp.Shape.Width, disp.Shape.Height)/2)
		canvas = Mask(disp, m.frame, m.cols, rows, func(v float64) bool { return v > 0 }).String()
	} else {
		canvas = Preview(disp, m.frame, cmap, m.cols)
	}
	canvasView := canvasStyle.Render(canvas)

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = SparkLow.Render("ERROR: " + m.err.Error())
	case m.Done():
		status = StatusDone.Render("DONE")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.engine.Kind().String())) + "\n")
	s.WriteString(status + "\n\n")

	progress := 1.0
	if m.rounds > 0 {
		progress = float64(m.done) / float64(m.rounds)
	}
	s.WriteString(ProgressBar(progress, 30) + "\n\n")

	st := m.engine.Stats()[m.frame]
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Round", fmt.Sprintf("%d/%d", m.done, m.rounds))
	row("Frame", fmt.Sprintf("%d/%d", m.frame+1, m.engine.Shape().Frames))
	row("Param", fmt.Sprintf("%.4f", m.engine.FrameParam(m.frame)))
	row("Display", string(m.display))
	row("Colormap", cmap.Name)
	row("Diverged", fmt.Sprintf("%.1f%%", 100*st.DivergedFraction()))
	row("Mean count", fmt.Sprintf("%.2f", st.MeanCount))

	if len(m.history) > 1 {
		s.WriteString("\n" + SparklineChart(m.history, 30) + "\n")
	}
	s.WriteString(graphStyle.Render(Histogram(disp, m.frame, 30, 4)) + "\n")
	s.WriteString(helpStyle.Render("SP:Pause C:Colormap D:Display\nF:Frame B:Braille ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume iteration   ║
║  C        - Cycle colormaps          ║
║  D        - Cycle display modes      ║
║  F        - Next frame               ║
║  B        - Toggle Braille mask      ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}
