package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"

	"github.com/gwillem/humanoid/pkg/gesture"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type StandCommand struct{}

func (c *StandCommand) Execute(args []string) error {
	return runGesture("stand", 1)
}

type WalkCommand struct {
	Steps int `short:"n" long:"steps" default:"1" description:"Number of steps"`
}

func (c *WalkCommand) Execute(args []string) error {
	return runGesture("walk", c.Steps)
}

type DanceCommand struct{}

func (c *DanceCommand) Execute(args []string) error {
	return runGesture("dance", 1)
}

// runGesture initializes the robot and plays a built-in gesture. The final
// pose is held on success; on failure every servo is released.
func runGesture(name string, steps int) error {
	// validate before touching hardware
	if _, err := gesture.Lookup(name, nil, steps); err != nil {
		return err
	}

	bot, err := openRobot()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if err := bot.Initialize(ctx); err != nil {
		return multierr.Append(err, bot.Close())
	}

	g, _ := gesture.Lookup(name, bot.NeutralPositions(), steps)
	fmt.Println(headerStyle.Render("Playing " + g.Name))

	player := gesture.NewPlayer(bot, bot.Config.Speed(), log)
	if err := player.Play(ctx, g); err != nil {
		fmt.Println(errorStyle.Render("Gesture failed, releasing servos"))
		return multierr.Append(err, bot.Close())
	}

	fmt.Println(successStyle.Render("Done."))
	return bot.Detach()
}
