package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gobs/args"
	"github.com/kballard/go-shellquote"

	"github.com/netresearch/suiteport/core"
)

// ExprCommand prints the test selection each scenario passes to the runner
type ExprCommand struct {
	ConfigFile string   `long:"config" env:"SUITEPORT_CONFIG" description:"configuration file"`
	LogLevel   string   `long:"log-level" env:"SUITEPORT_LOG_LEVEL" description:"Set log level"`
	Scenarios  []string `long:"scenario" short:"s" description:"Only this scenario, may be repeated"`
	Argv       bool     `long:"argv" description:"Print the full runner command line instead"`
	Logger     core.Logger

	Out io.Writer
}

func (c *ExprCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		return err
	}
	conf, err := LoadConfig(c.ConfigFile, c.Logger)
	if err != nil {
		return err
	}
	scenarios, err := conf.SelectScenarios(c.Scenarios)
	if err != nil {
		return err
	}

	w := c.Out
	if w == nil {
		w = os.Stdout
	}

	runner := &core.TestRunner{
		Command: conf.Global.RunnerCommand,
		Flags:   args.GetArgs(conf.Global.RunnerFlags),
		TestDir: conf.Global.TestDir,
	}
	for _, sc := range scenarios {
		expr, err := core.ExclusionExpression(sc.BlockedTests)
		if err != nil {
			return core.WrapScenarioError("select", sc.Name, err)
		}
		if !c.Argv {
			fmt.Fprintf(w, "%s\t%s\n", sc.Name, strconv.Quote(expr))
			continue
		}
		opt := core.SelectOptimization(sc.WithoutOptimization, conf.Global.OptimizationModule)
		argv := append(args.GetArgs(runner.Command), runner.Args(expr, opt)...)
		fmt.Fprintf(w, "%s\t%s\n", sc.Name, shellquote.Join(argv...))
	}
	return nil
}
