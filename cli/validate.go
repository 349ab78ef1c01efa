package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/netresearch/suiteport/core"
)

// ValidateCommand validates the config file
type ValidateCommand struct {
	ConfigFile string `long:"config" env:"SUITEPORT_CONFIG" description:"configuration file"`
	LogLevel   string `long:"log-level" env:"SUITEPORT_LOG_LEVEL" description:"Set log level (overrides config)"`
	Logger     core.Logger

	// Out receives the resolved configuration; stdout when nil.
	Out io.Writer
}

type resolvedConfig struct {
	Global    GlobalConfig    `json:"global"`
	Scenarios []core.Scenario `json:"scenarios"`
}

// Execute prints the configuration with defaults applied
func (c *ValidateCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		return err
	}

	c.Logger.Debugf("Validating %q ... ", c.ConfigFile)
	conf, err := LoadConfig(c.ConfigFile, c.Logger)
	if err != nil {
		c.Logger.Errorf("ERROR")
		return err
	}
	if c.LogLevel == "" {
		_ = ApplyLogLevel(conf.Global.LogLevel)
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	scenarios, err := conf.SelectScenarios(nil)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resolvedConfig{Global: conf.Global, Scenarios: scenarios}, "", "  ")
	if err != nil {
		return err
	}

	w := c.Out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, string(out))

	c.Logger.Debugf("OK")
	return nil
}
