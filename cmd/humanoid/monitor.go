package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/humanoid/pkg/gesture"
	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

type MonitorCommand struct {
	Steps int `short:"n" long:"steps" default:"1" description:"Number of steps when walking"`
	Args  struct {
		Gesture string `positional-arg-name:"GESTURE" description:"dance, neutral, stand, step or walk"`
	} `positional-args:"yes" required:"yes"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 3 // legend rows + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

var jointColors = map[robot.JointName]string{
	robot.Head:          "255", // white
	robot.ShoulderRight: "196", // red
	robot.ShoulderLeft:  "208", // orange
	robot.ElbowRight:    "226", // yellow
	robot.ElbowLeft:     "190", // lime
	robot.HipRight:      "46",  // green
	robot.HipLeft:       "48",  // spring green
	robot.KneeRight:     "51",  // cyan
	robot.KneeLeft:      "39",  // blue
	robot.AnkleRight:    "99",  // purple
	robot.AnkleLeft:     "201", // magenta
	robot.WristRight:    "217", // pink
	robot.WristLeft:     "180", // tan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// logHook forwards log entries to the TUI instead of the terminal.
type logHook struct {
	ch chan string
}

func newLogHook() *logHook {
	return &logHook{ch: make(chan string, 32)}
}

func (h *logHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *logHook) Fire(e *logrus.Entry) error {
	msg := fmt.Sprintf("%s %s", strings.ToUpper(e.Level.String()[:4]), e.Message)
	if err, ok := e.Data[logrus.ErrorKey]; ok {
		msg += fmt.Sprintf(": %v", err)
	}
	select {
	case h.ch <- msg:
	default:
	}
	return nil
}

type monitorModel struct {
	gesture       string
	joints        []robot.JointName
	updates       <-chan servo.Update
	logCh         <-chan string
	done          <-chan error
	chart         *streamlinechart.Model
	width         int // terminal width
	height        int // terminal height
	logs          []string
	finished      bool
	result        error
	quitting      bool
	lastPositions map[servo.Channel]float64
}

type updateMsg servo.Update
type logMsg string
type doneMsg struct{ err error }

func waitForUpdate(ch <-chan servo.Update) tea.Cmd {
	return func() tea.Msg {
		return updateMsg(<-ch)
	}
}

func waitForLog(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ch)
	}
}

func waitForDone(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{<-ch}
	}
}

// gestureJoints names the joints g moves, in channel order.
func gestureJoints(g gesture.Gesture) []robot.JointName {
	var joints []robot.JointName
	for _, ch := range g.Joints() {
		if joint, ok := robot.JointFor(ch); ok {
			joints = append(joints, joint)
		}
	}
	return joints
}

// newMonitorModel charts the given joints, or all of them when joints is empty.
func newMonitorModel(name string, joints []robot.JointName, updates <-chan servo.Update, logs <-chan string, done <-chan error) monitorModel {
	if len(joints) == 0 {
		joints = robot.AllJoints()
	}
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, servo.MaxAngle),
	)
	for _, joint := range joints {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[joint]))
		chart.SetDataSetStyles(string(joint), runes.ThinLineStyle, style)
	}

	return monitorModel{
		gesture: name,
		joints:  joints,
		updates: updates,
		logCh:   logs,
		done:    done,
		chart:   &chart,
	}
}

func (m *monitorModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = max(40, m.width-borderSize-2)
	height = max(10, m.height-headerHeight-legendHeight-footerHeight-borderSize)
	return width, height
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.updates),
		waitForLog(m.logCh),
		waitForDone(m.done),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case updateMsg:
		// chart freezes while nothing moves
		if !maps.Equal(m.lastPositions, msg.Positions) {
			for _, joint := range m.joints {
				ch, _ := joint.Channel()
				if pos, ok := msg.Positions[ch]; ok {
					m.chart.PushDataSet(string(joint), pos)
				}
			}
			m.chart.DrawAll()
			m.lastPositions = msg.Positions
		}
		return m, waitForUpdate(m.updates)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.logCh)

	case doneMsg:
		m.finished = true
		m.result = msg.err
		return m, nil
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Humanoid Monitor"))
	sb.WriteString(" - " + m.gesture)
	switch {
	case !m.finished:
		sb.WriteString(statusStyle.Render("  playing"))
	case m.result != nil:
		sb.WriteString(errorStyle.Render("  failed"))
	default:
		sb.WriteString(successStyle.Render("  complete"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderLegend(m.joints))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(20, m.width-4))

	logLines := strings.Join(m.logs, "\n")
	if m.result != nil {
		logLines = errorStyle.Render(m.result.Error())
	}
	if logLines == "" {
		logLines = statusStyle.Render("Press 'q' to quit")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend(joints []robot.JointName) string {
	var rows [2][]string
	perRow := (len(joints) + 1) / 2
	for i, joint := range joints {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[joint])).Bold(true)
		item := colorStyle.Render("━━") + " " + string(joint)
		row := 0
		if i >= perRow {
			row = 1
		}
		rows[row] = append(rows[row], item)
	}
	return strings.Join(rows[0], "  ") + "\n" + strings.Join(rows[1], "  ")
}

func (c *MonitorCommand) Execute(args []string) error {
	if _, err := gesture.Lookup(c.Args.Gesture, nil, c.Steps); err != nil {
		return err
	}

	bot, err := openRobot()
	if err != nil {
		return err
	}
	defer bot.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bot.Initialize(ctx); err != nil {
		return err
	}
	g, _ := gesture.Lookup(c.Args.Gesture, bot.NeutralPositions(), c.Steps)

	// Route logs into the TUI while it runs
	hook := newLogHook()
	out := log.Out
	log.AddHook(hook)
	log.SetOutput(io.Discard)
	if log.GetLevel() < logrus.InfoLevel {
		log.SetLevel(logrus.InfoLevel)
	}
	defer func() {
		log.ReplaceHooks(make(logrus.LevelHooks))
		log.SetOutput(out)
	}()

	done := make(chan error, 1)
	player := gesture.NewPlayer(bot, bot.Config.Speed(), log)
	go func() {
		done <- player.Play(ctx, g)
	}()

	p := tea.NewProgram(newMonitorModel(g.Name, gestureJoints(g), bot.Updates(), hook.ch, done), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor UI: %w", err)
	}
	return nil
}
