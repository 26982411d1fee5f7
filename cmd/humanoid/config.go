package main

import (
	"encoding/json"
	"fmt"

	"github.com/gwillem/humanoid/pkg/robot"
)

type ConfigCommand struct {
	Save bool `long:"save" description:"Write the effective configuration back to the config file"`
}

func (c *ConfigCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if c.Save {
		path := opts.Path
		if path == "" {
			path = robot.DefaultConfigFile
		}
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println(successStyle.Render("Configuration saved to " + path))
		return nil
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
