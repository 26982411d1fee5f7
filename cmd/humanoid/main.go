package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/gwillem/humanoid/pkg/robot"
)

type Options struct {
	Path     string  `short:"c" long:"config" description:"Config file (default humanoid.json)"`
	Simulate bool    `long:"simulate" description:"Record PWM writes instead of driving the PCA9685"`
	Speed    float64 `long:"speed" description:"Delay between interpolation steps in ms (overrides config)"`
	Verbose  []bool  `short:"v" long:"verbose" description:"More logging, repeat for debug"`
	Debug    bool    `long:"debug" description:"Debug logging"`

	Stand     StandCommand     `command:"stand" description:"Initialize servos and stand up"`
	Walk      WalkCommand      `command:"walk" description:"Walk forward"`
	Dance     DanceCommand     `command:"dance" description:"Dance"`
	Move      MoveCommand      `command:"move" description:"Move one servo to an angle"`
	Release   ReleaseCommand   `command:"release" description:"Stop driving a servo"`
	Calibrate CalibrateCommand `command:"calibrate" alias:"cal" description:"Adjust and save neutral positions"`
	Monitor   MonitorCommand   `command:"monitor" description:"Play a gesture and chart servo positions"`
	Serve     ServeCommand     `command:"serve" description:"Run the HTTP API"`
	Config    ConfigCommand    `command:"config" description:"Show or save the effective configuration"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

var log = logrus.New()

func main() {
	parser.LongDescription = "Humanoid - servo control CLI for a PCA9685 driven biped"
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		setupLogging()
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

func setupLogging() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.TimeOnly})
	switch {
	case opts.Debug || len(opts.Verbose) > 1:
		log.SetLevel(logrus.DebugLevel)
	case len(opts.Verbose) == 1:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*robot.Config, error) {
	var cfg *robot.Config
	var err error
	if opts.Path != "" {
		cfg, err = robot.LoadConfigFrom(opts.Path)
	} else {
		cfg, err = robot.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if opts.Simulate {
		cfg.Simulate = true
	}
	if opts.Speed > 0 {
		cfg.SpeedMs = opts.Speed
	}
	return cfg, cfg.Validate()
}

func openRobot() (*robot.Humanoid, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return robot.Open(cfg, log)
}

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
