package main

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/gwillem/humanoid/pkg/robot"
)

type MoveCommand struct {
	Args struct {
		Servo string  `positional-arg-name:"CHANNEL|JOINT" description:"Channel number or joint name"`
		Angle float64 `positional-arg-name:"ANGLE" description:"Target angle in degrees"`
	} `positional-args:"yes" required:"yes"`
}

func (c *MoveCommand) Execute(args []string) error {
	ch, err := robot.ParseChannel(c.Args.Servo)
	if err != nil {
		return err
	}

	bot, err := openRobot()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if err := bot.SetPosition(ctx, ch, c.Args.Angle, bot.Config.Speed()); err != nil {
		return multierr.Append(err, bot.Close())
	}

	angle := bot.GetPosition(ch)
	if name, ok := robot.JointFor(ch); ok {
		fmt.Printf("%s (channel %d) at %.1f°\n", name, ch, angle)
	} else {
		fmt.Printf("channel %d at %.1f°\n", ch, angle)
	}
	if lim := bot.Limit(ch); lim.Clamp(c.Args.Angle) != c.Args.Angle {
		fmt.Println(dimStyle.Render(fmt.Sprintf("clamped to %.0f..%.0f", lim.Min, lim.Max)))
	}
	return bot.Detach()
}

type ReleaseCommand struct {
	Args struct {
		Servo string `positional-arg-name:"CHANNEL|JOINT|all" description:"Channel number, joint name or all"`
	} `positional-args:"yes" required:"yes"`
}

func (c *ReleaseCommand) Execute(args []string) error {
	all := strings.EqualFold(c.Args.Servo, "all")
	ch, err := robot.ParseChannel(c.Args.Servo)
	if !all && err != nil {
		return err
	}

	bot, err := openRobot()
	if err != nil {
		return err
	}

	if all {
		// Close releases every channel
		if err := bot.Close(); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("All servos released."))
		return nil
	}

	if err := bot.Release(ch); err != nil {
		return multierr.Append(err, bot.Detach())
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Channel %d released.", ch)))
	return bot.Detach()
}
