package main

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

type CalibrateCommand struct{}

func (c *CalibrateCommand) Execute(args []string) error {
	bot, err := openRobot()
	if err != nil {
		return err
	}
	defer bot.Close()

	fmt.Println(headerStyle.Render("Humanoid Calibration"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━"))
	if bot.Config.Simulate {
		fmt.Println(dimStyle.Render("simulation mode, no servo will move"))
	}
	fmt.Println(subHeaderStyle.Render("Set each joint to its neutral pose and press s"))
	fmt.Println()

	ctx, stop := signalContext()
	defer stop()
	if err := bot.Initialize(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(newCalibrationModel(bot))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("calibration UI: %w", err)
	}

	cm := finalModel.(calibrationModel)
	if len(cm.saved) == 0 {
		fmt.Println("No joints saved, calibration unchanged.")
		return nil
	}

	path := bot.Config.CalibrationFile
	if path == "" {
		path = robot.DefaultCalibrationFile
	}

	confirm := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Save %d joint(s) to %s?", len(cm.saved), path)).
				Affirmative("Save").
				Negative("Discard").
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil || !confirm {
		fmt.Println("Calibration discarded.")
		return nil
	}

	cal := cm.calibration(bot.Calibration)
	if err := cal.Save(path); err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	fmt.Println(successStyle.Render("Calibration saved to " + path))
	return nil
}

// calibrationModel adjusts one joint at a time and drives it live.
type calibrationModel struct {
	bot      *robot.Humanoid
	joints   []robot.JointName
	selected int
	angles   map[robot.JointName]float64
	saved    map[robot.JointName]bool
	fine     bool // next digit adjusts by tenths
	status   string
	quitting bool
}

func newCalibrationModel(bot *robot.Humanoid) calibrationModel {
	return calibrationModel{
		bot:    bot,
		joints: robot.AllJoints(),
		angles: bot.JointPositions(),
		saved:  make(map[robot.JointName]bool),
	}
}

func (m calibrationModel) current() (robot.JointName, servo.Channel) {
	name := m.joints[m.selected]
	ch, _ := name.Channel()
	return name, ch
}

// calibration merges the saved joints into base.
func (m calibrationModel) calibration(base robot.Calibration) robot.Calibration {
	positions := make(map[servo.Channel]float64, len(m.saved))
	for name := range m.saved {
		ch, _ := name.Channel()
		positions[ch] = m.angles[name]
	}
	cal := make(robot.Calibration, len(base)+len(positions))
	maps.Copy(cal, base)
	maps.Copy(cal, robot.FromPositions(positions))
	return cal
}

func (m calibrationModel) Init() tea.Cmd {
	return nil
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	name, ch := m.current()
	k := key.String()
	switch k {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.selected = (m.selected + len(m.joints) - 1) % len(m.joints)
		m.fine = false
		m.status = ""
	case "down", "j", "tab":
		m.selected = (m.selected + 1) % len(m.joints)
		m.fine = false
		m.status = ""
	case "+", "=":
		m.adjust(5)
	case "-":
		m.adjust(-5)
	case "f":
		m.fine = true
		m.status = "fine adjust: press 1-9 for 0.1-0.9°"
	case "r":
		m.angles[name] = servo.DefaultAngle
		m.move()
		m.status = fmt.Sprintf("%s reset to %.0f°", name, servo.DefaultAngle)
	case "s":
		m.saved[name] = true
		m.status = fmt.Sprintf("saved %s = %.1f°", name, m.angles[name])
	case "l":
		lim := m.bot.Limit(ch)
		m.status = fmt.Sprintf("%s limits: %.0f to %.0f°", name, lim.Min, lim.Max)
	default:
		if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= 9 {
			delta := float64(n)
			if m.fine {
				delta /= 10
			}
			m.adjust(delta)
		}
	}
	return m, nil
}

// adjust moves the selected joint by delta degrees within its limits.
func (m *calibrationModel) adjust(delta float64) {
	name, ch := m.current()
	angle := m.bot.Limit(ch).Clamp(m.angles[name] + delta)
	m.angles[name] = math.Round(angle*10) / 10
	m.fine = false
	m.status = ""
	m.move()
}

func (m *calibrationModel) move() {
	name, ch := m.current()
	if err := m.bot.SetPosition(context.Background(), ch, m.angles[name], 0); err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	if pos := m.bot.GetPosition(ch); math.Abs(pos-m.angles[name]) > 1e-9 {
		m.status = dimStyle.Render(fmt.Sprintf("%s held at %.1f°, change is below the move threshold", name, pos))
	}
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableJointStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableSelectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	tableSavedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)

	rows := make([][]string, 0, len(m.joints))
	for i, name := range m.joints {
		lim := m.bot.Limit(servo.Channel(i))
		saved := ""
		if m.saved[name] {
			saved = "✓"
		}
		rows = append(rows, []string{
			string(name),
			strconv.Itoa(i),
			fmt.Sprintf("%.1f", m.angles[name]),
			fmt.Sprintf("%.0f", lim.Min),
			fmt.Sprintf("%.0f", lim.Max),
			saved,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Ch", "Angle", "Min", "Max", "Saved").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row == m.selected:
				return tableSelectedStyle
			case col == 0:
				return tableJointStyle
			case col == 5:
				return tableSavedStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	if m.status != "" {
		sb.WriteString(m.status)
	}
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("↑/↓ select  +/- 5°  1-9 add 1-9°  f then 1-9 add 0.1-0.9°  r reset  s save  l limits  q quit"))

	return sb.String()
}
