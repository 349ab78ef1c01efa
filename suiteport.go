package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	ini "gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/netresearch/suiteport/cli"
	"github.com/netresearch/suiteport/core"
)

var version string
var build string

// buildLogger logs to w so stdout stays free for runner output and reports.
func buildLogger(w io.Writer, level string) *core.LogrusAdapter {
	logrus.SetOutput(w)
	forceColors := false
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) && os.Getenv("TERM") != "dumb" && os.Getenv("NO_COLOR") == "" {
		forceColors = true
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     forceColors,
		DisableQuote:    true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	adapter := core.NewLogrusAdapter(logrus.StandardLogger())
	adapter.Caller = lvl >= logrus.DebugLevel
	return adapter
}

// configLogLevel reads global log-level from the config file, if any.
func configLogLevel(path string) string {
	if path == "" {
		return ""
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		var doc struct {
			Global struct {
				LogLevel string `yaml:"log-level"`
			} `yaml:"global"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return ""
		}
		return doc.Global.LogLevel
	default:
		cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true, InsensitiveKeys: true}, path)
		if err != nil {
			return ""
		}
		sec, err := cfg.GetSection("global")
		if err != nil {
			return ""
		}
		return sec.Key("log-level").String()
	}
}

func newParser(logger core.Logger, logLevel, configFile string) *flags.Parser {
	parser := flags.NewNamedParser("suiteport", flags.Default)
	parser.ShortDescription = "imports an upstream test suite and runs it against the local build"

	_, _ = parser.AddCommand(
		"run",
		"fetch the upstream and run its suite for each scenario",
		"",
		&cli.RunCommand{Logger: logger, LogLevel: logLevel, ConfigFile: configFile},
	)
	_, _ = parser.AddCommand(
		"validate",
		"validates the config file",
		"",
		&cli.ValidateCommand{Logger: logger, LogLevel: logLevel, ConfigFile: configFile},
	)
	_, _ = parser.AddCommand(
		"expr",
		"print the test selection of each scenario",
		"",
		&cli.ExprCommand{Logger: logger, LogLevel: logLevel, ConfigFile: configFile},
	)
	_, _ = parser.AddCommand(
		"doctor",
		"check the configuration and the host",
		"",
		&cli.DoctorCommand{Logger: logger, LogLevel: logLevel, ConfigFile: configFile},
	)
	_, _ = parser.AddCommand(
		"init",
		"create a config file interactively",
		"",
		&cli.InitCommand{Logger: logger, LogLevel: logLevel},
	)
	return parser
}

func main() {
	// log level and config are needed before the logger exists
	var pre struct {
		LogLevel   string `long:"log-level" env:"SUITEPORT_LOG_LEVEL"`
		ConfigFile string `long:"config" env:"SUITEPORT_CONFIG"`
	}
	args := os.Args[1:]
	preParser := flags.NewParser(&pre, flags.IgnoreUnknown)
	_, _ = preParser.ParseArgs(args)

	if pre.LogLevel == "" {
		pre.LogLevel = configLogLevel(pre.ConfigFile)
	}

	logger := buildLogger(os.Stderr, pre.LogLevel)
	parser := newParser(logger, pre.LogLevel, pre.ConfigFile)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) {
			if flagErr.Type == flags.ErrHelp {
				return
			}
			parser.WriteHelp(os.Stdout)
			fmt.Printf("\nBuild information\n  commit: %s\n  date:%s\n", version, build)
		} else {
			logger.Errorf("%v", err)
		}
		os.Exit(1)
	}
}
