package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fundlock/internal/config"
	"fundlock/internal/report"
	"fundlock/internal/sim"
	"fundlock/internal/store"
)

// Styles.
var (
	headerBarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	footerBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("236"))
	modeStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	profitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Messages.
type runsLoadedMsg struct {
	runs []store.Run
	err  error
}

type runLoadedMsg struct {
	run *store.Run
	err error
}

// Model.
type model struct {
	runs   store.RunStore
	logger *slog.Logger

	list     []store.Run
	selected int

	// Detail mode.
	detail     *store.Run
	detailText string

	viewport      viewport.Model
	ready         bool
	width, height int
	status        string
}

func initialModel(runs store.RunStore, logger *slog.Logger) model {
	return model{
		runs:   runs,
		logger: logger,
		status: "loading runs...",
	}
}

func (m model) Init() tea.Cmd {
	return m.loadRuns()
}

func (m model) loadRuns() tea.Cmd {
	rs := m.runs
	return func() tea.Msg {
		runs, err := rs.ListRuns(context.Background())
		return runsLoadedMsg{runs: runs, err: err}
	}
}

func (m model) loadRun(id int64) tea.Cmd {
	rs := m.runs
	return func() tea.Msg {
		run, err := rs.GetRun(context.Background(), id)
		return runLoadedMsg{run: run, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.detail != nil {
				m.detail = nil
				m.detailText = ""
				if m.ready {
					m.viewport.SetContent(m.renderContent())
					m.viewport.GotoTop()
				}
			}
			return m, nil
		case "up", "k":
			if m.detail == nil && m.selected > 0 {
				m.selected--
				if m.ready {
					m.viewport.SetContent(m.renderContent())
				}
				return m, nil
			}
		case "down", "j":
			if m.detail == nil && m.selected < len(m.list)-1 {
				m.selected++
				if m.ready {
					m.viewport.SetContent(m.renderContent())
				}
				return m, nil
			}
		case "enter":
			if m.detail == nil && len(m.list) > 0 {
				m.status = "loading run..."
				return m, m.loadRun(m.list[m.selected].ID)
			}
			return m, nil
		case "r":
			if m.detail == nil {
				m.status = "reloading..."
				return m, m.loadRuns()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
			m.viewport.SetContent(m.renderContent())
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		return m, nil

	case runsLoadedMsg:
		if msg.err != nil {
			m.logger.Error("listing runs", "error", msg.err)
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		m.list = msg.runs
		m.status = fmt.Sprintf("%d runs", len(m.list))
		if m.selected >= len(m.list) {
			m.selected = 0
		}
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil

	case runLoadedMsg:
		if msg.err != nil {
			m.logger.Error("loading run", "error", msg.err)
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if msg.run == nil {
			m.status = "run vanished, reloading"
			return m, m.loadRuns()
		}
		m.detail = msg.run
		m.detailText = renderDetail(msg.run)
		m.status = fmt.Sprintf("run %d", msg.run.ID)
		if m.ready {
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "initializing..."
	}

	title := "  fundlock runs"
	if m.detail != nil {
		title = fmt.Sprintf("  run %d  %s", m.detail.ID, m.detail.Mode)
	}
	headerBar := headerBarStyle.Render(padOrTrunc(title, m.width))

	footerLeft := "  q quit"
	if m.detail != nil {
		footerLeft += "  esc back"
	} else {
		footerLeft += "  ↑/↓ select  enter open  r reload"
	}
	footerText := footerLeft + "  " + m.status
	footerBar := footerBarStyle.Render(padOrTrunc(footerText, m.width))

	return headerBar + "\n" + m.viewport.View() + "\n" + footerBar
}

func (m model) renderContent() string {
	if m.detail != nil {
		return m.detailText
	}
	return m.renderList()
}

func (m model) renderList() string {
	var b strings.Builder
	if len(m.list) == 0 {
		b.WriteString(dimStyle.Render("  (no saved runs)"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(
		"  %-5s %-20s %-11s %-8s %-24s %s",
		"ID", "CREATED", "MODE", "TARGET", "MOTHER/CHILDREN", "RESULT")))
	b.WriteString("\n")

	for i, r := range m.list {
		funds := r.Params.MotherTicker
		if len(r.Params.ChildTickers) > 0 {
			funds += " → " + strings.Join(r.Params.ChildTickers, ",")
		}
		line := fmt.Sprintf("  %-5d %-20s %-11s %-8s %-24s",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Mode,
			fmt.Sprintf("%.1f%%", r.Params.TargetROI*100),
			funds)

		result := resultCell(&r)
		if i == m.selected {
			b.WriteString(selectedStyle.Render(line + " " + result))
		} else {
			b.WriteString(line)
			b.WriteString(" ")
			b.WriteString(resultStyle(&r).Render(result))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func resultCell(r *store.Run) string {
	if r.Mode == store.ModeContinuous {
		return fmt.Sprintf("%d rounds, profit %.0f", r.Stats.CompletedRounds, r.Stats.TotalProfit)
	}
	if r.Triggered {
		return "triggered"
	}
	return "open"
}

func resultStyle(r *store.Run) lipgloss.Style {
	switch {
	case r.Mode == store.ModeContinuous && r.Stats.TotalProfit > 0:
		return profitStyle
	case r.Mode == store.ModeContinuous && r.Stats.TotalProfit < 0:
		return lossStyle
	case r.Triggered:
		return profitStyle
	default:
		return dimStyle
	}
}

// renderDetail formats one run using the plain-text report renderer.
func renderDetail(r *store.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", modeStyle.Render(strings.ToUpper(r.Mode)+" RUN"))
	fmt.Fprintf(&b, "Created: %s\n\n", r.CreatedAt.Local().Format(time.RFC1123))

	children := make([]string, 0, len(r.Params.ChildTickers))
	for _, c := range r.Params.ChildTickers {
		children = append(children, strings.ToUpper(strings.TrimSpace(c)))
	}

	var err error
	switch r.Mode {
	case store.ModeContinuous:
		err = report.Continuous(&b, &sim.ContinuousResult{
			Records:   r.Records,
			Summaries: r.Summaries,
			Stats:     r.Stats,
			Children:  children,
		}, r.Params)
	default:
		err = report.Single(&b, &sim.Result{
			Records:   r.Records,
			Triggered: r.Triggered,
			Children:  children,
		}, r.Params)
	}
	if err != nil {
		fmt.Fprintf(&b, "render error: %v\n", err)
	}
	return b.String()
}

// padOrTrunc pads s with spaces to the given display width, or truncates on
// a rune boundary if wider. Byte slicing would split multibyte glyphs.
func padOrTrunc(s string, width int) string {
	if w := lipgloss.Width(s); w <= width {
		return s + strings.Repeat(" ", width-w)
	}
	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String() + strings.Repeat(" ", width-w)
}

func main() {
	cfgPath := "config/fundlock.yaml"
	if p := os.Getenv("FUNDLOCK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logPath := fmt.Sprintf("/tmp/fundlock-view-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	runs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening run store: %v\n", err)
		os.Exit(1)
	}
	defer runs.Close()

	p := tea.NewProgram(
		initialModel(runs, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
