package main

import (
	"fmt"

	"github.com/gwillem/humanoid/pkg/server"
)

type ServeCommand struct {
	Addr string `short:"a" long:"addr" default:":5000" description:"Listen address"`
	Init bool   `long:"init" description:"Initialize servos before serving"`
}

func (c *ServeCommand) Execute(args []string) error {
	bot, err := openRobot()
	if err != nil {
		return err
	}
	defer bot.Close()

	ctx, stop := signalContext()
	defer stop()

	srv := server.New(bot, log)
	if c.Init {
		if err := srv.Initialize(ctx); err != nil {
			return err
		}
	}

	fmt.Println(headerStyle.Render("Humanoid API") + dimStyle.Render(" on "+c.Addr))
	return srv.ListenAndServe(ctx, c.Addr)
}
