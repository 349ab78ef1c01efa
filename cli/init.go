package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/manifoldco/promptui"
	ini "gopkg.in/ini.v1"

	"github.com/netresearch/suiteport/config"
	"github.com/netresearch/suiteport/core"
)

// InitCommand is an interactive wizard that writes a scenario file
type InitCommand struct {
	Output   string `long:"output" short:"o" description:"Output file path" default:"./suiteport.ini"`
	LogLevel string `long:"log-level" env:"SUITEPORT_LOG_LEVEL" description:"Set log level"`
	Logger   core.Logger
}

type initConfig struct {
	RepositoryURL      string
	CheckoutDir        string
	OptimizationModule string
	LogLevel           string
	Scenarios          []initScenario
}

type initScenario struct {
	Name                string
	Version             string
	WithoutOptimization bool
	BlockedTests        []string
}

// Execute runs the interactive configuration wizard
func (c *InitCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		c.Logger.Warningf("Failed to apply log level (using default): %v", err)
	}

	c.Logger.Noticef("This wizard creates a suiteport scenario file.")

	if _, err := os.Stat(c.Output); err == nil {
		if !c.confirmOverwrite() {
			c.Logger.Noticef("Setup canceled")
			return nil
		}
	}

	conf := &initConfig{}
	if err := c.promptGlobalSettings(conf); err != nil {
		return fmt.Errorf("failed to gather global settings: %w", err)
	}
	if err := c.promptScenarios(conf); err != nil {
		return fmt.Errorf("failed to gather scenarios: %w", err)
	}

	if err := saveInitConfig(c.Output, conf); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	c.Logger.Noticef("✅ Configuration saved to: %s", c.Output)

	if _, err := BuildFromFile(c.Output, c.Logger); err != nil {
		c.Logger.Errorf("❌ Generated configuration does not load: %v", err)
		return err
	}

	c.Logger.Noticef("Next steps:")
	c.Logger.Noticef("  → Check the host: suiteport doctor --config=%s", c.Output)
	c.Logger.Noticef("  → Run: suiteport run --config=%s", c.Output)
	return nil
}

func (c *InitCommand) confirmOverwrite() bool {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("File %s already exists. Overwrite", c.Output),
		IsConfirm: true,
		Default:   "n",
	}
	_, err := prompt.Run()
	return err == nil
}

func (c *InitCommand) promptGlobalSettings(conf *initConfig) error {
	c.Logger.Noticef("=== Global Settings ===")

	var err error
	prompt := promptui.Prompt{
		Label:    "Repository URL",
		Default:  core.DefaultRepositoryURL,
		Validate: sanitized(config.DefaultSanitizer.ValidateRepositoryURL),
	}
	if conf.RepositoryURL, err = runSanitized(prompt); err != nil {
		return err
	}

	prompt = promptui.Prompt{
		Label:    "Checkout directory",
		Default:  core.DefaultCheckoutDir,
		Validate: sanitized(config.DefaultSanitizer.ValidateCheckoutDir),
	}
	if conf.CheckoutDir, err = runSanitized(prompt); err != nil {
		return err
	}

	prompt = promptui.Prompt{
		Label:    "Optimization module",
		Default:  core.DefaultOptimizationModule,
		Validate: sanitized(config.DefaultSanitizer.ValidateModule),
	}
	if conf.OptimizationModule, err = runSanitized(prompt); err != nil {
		return err
	}

	logLevelPrompt := promptui.Select{
		Label:     "Log level",
		Items:     []string{"error", "warning", "info", "debug"},
		CursorPos: 2,
	}
	if _, conf.LogLevel, err = logLevelPrompt.Run(); err != nil {
		return err //nolint:wrapcheck // promptui errors are user interaction failures
	}
	return nil
}

func (c *InitCommand) promptScenarios(conf *initConfig) error {
	c.Logger.Noticef("=== Scenarios ===")
	def := core.DefaultScenario()

	for {
		var (
			sc  initScenario
			err error
		)

		prompt := promptui.Prompt{Label: "Scenario name", Default: def.Name, Validate: sanitized(validateScenarioName)}
		if sc.Name, err = runSanitized(prompt); err != nil {
			return err
		}

		prompt = promptui.Prompt{Label: "Upstream version (branch or tag)", Default: def.Version, Validate: sanitized(validateVersion)}
		if sc.Version, err = runSanitized(prompt); err != nil {
			return err
		}

		confirm := promptui.Prompt{Label: "Run without the optimization", IsConfirm: true, Default: "n"}
		_, err = confirm.Run()
		sc.WithoutOptimization = err == nil

		prompt = promptui.Prompt{
			Label:    "Blocked test files (comma separated)",
			Default:  strings.Join(def.BlockedTests, ", "),
			Validate: sanitized(validateBlockedList),
		}
		blocked, err := runSanitized(prompt)
		if err != nil {
			return err
		}
		sc.BlockedTests = splitBlockedList(blocked)

		conf.Scenarios = append(conf.Scenarios, sc)

		more := promptui.Prompt{Label: "Add another scenario", IsConfirm: true, Default: "n"}
		if _, err := more.Run(); err != nil {
			return nil
		}
	}
}

// maxInputLength bounds every free-text answer of the wizard.
const maxInputLength = 1024

// sanitized runs check on the trimmed answer after rejecting control
// characters and overlong input.
func sanitized(check func(string) error) func(string) error {
	return func(input string) error {
		clean, err := config.DefaultSanitizer.SanitizeString(input, maxInputLength)
		if err != nil {
			return err //nolint:wrapcheck // shown to the user as is
		}
		return check(clean)
	}
}

// runSanitized returns the answer in the form the validator accepted it.
func runSanitized(prompt promptui.Prompt) (string, error) {
	answer, err := prompt.Run()
	if err != nil {
		return "", err //nolint:wrapcheck // promptui errors are user interaction failures
	}
	return config.DefaultSanitizer.SanitizeString(answer, maxInputLength) //nolint:wrapcheck // already validated
}

var scenarioNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateScenarioName(name string) error {
	if name == "" {
		return ErrScenarioNameEmpty
	}
	if !scenarioNameRegex.MatchString(name) {
		return ErrScenarioNameInvalid
	}
	return nil
}

func validateVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		return ErrVersionEmpty
	}
	return config.DefaultSanitizer.ValidateGitRef(version)
}

func validateBlockedList(list string) error {
	_, err := core.ExclusionExpression(splitBlockedList(list))
	return err
}

func splitBlockedList(list string) []string {
	var out []string
	for f := range strings.SplitSeq(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func saveInitConfig(path string, conf *initConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	cfg := ini.Empty(ini.LoadOptions{AllowShadows: true})

	global := cfg.Section(sectionGlobal)
	setIfNotEmpty(global, "repository-url", conf.RepositoryURL)
	setIfNotEmpty(global, "checkout-dir", conf.CheckoutDir)
	setIfNotEmpty(global, "optimization-module", conf.OptimizationModule)
	setIfNotEmpty(global, "log-level", conf.LogLevel)

	for _, sc := range conf.Scenarios {
		section := cfg.Section(fmt.Sprintf("%s %q", sectionScenario, sc.Name))
		section.Key("version").SetValue(sc.Version)
		if sc.WithoutOptimization {
			section.Key("without-optimization").SetValue("true")
		}
		if len(sc.BlockedTests) == 0 {
			continue
		}
		key := section.Key("blocked-tests")
		key.SetValue(sc.BlockedTests[0])
		for _, f := range sc.BlockedTests[1:] {
			if err := key.AddShadow(f); err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
		}
	}

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func setIfNotEmpty(section *ini.Section, key, value string) {
	if value != "" {
		section.Key(key).SetValue(value)
	}
}
