package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	defaults "github.com/creasty/defaults"
	"github.com/gobs/args"
	ini "gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/netresearch/suiteport/core"
)

const (
	sectionGlobal   = "global"
	sectionScenario = "scenario"
)

// GlobalConfig holds the settings shared by every scenario.
type GlobalConfig struct {
	LogLevel           string        `mapstructure:"log-level" json:"log-level,omitempty" validate:"omitempty,oneof=panic fatal error warn warning info debug trace"`
	RepositoryURL      string        `mapstructure:"repository-url" json:"repository-url" default:"https://github.com/huggingface/transformers.git" validate:"required,repourl"`
	CheckoutDir        string        `mapstructure:"checkout-dir" json:"checkout-dir" default:"/tmp/transformers/" validate:"required,checkoutdir"`
	LocalRoot          string        `mapstructure:"local-root" json:"local-root,omitempty"`
	SearchPathVar      string        `mapstructure:"search-path-var" json:"search-path-var" default:"PYTHONPATH" validate:"required,envvar"`
	RunnerCommand      string        `mapstructure:"runner-command" json:"runner-command" default:"python -m pytest" validate:"required,command"`
	RunnerFlags        string        `mapstructure:"runner-flags" json:"runner-flags" default:"-sv"`
	TestDir            string        `mapstructure:"test-dir" json:"test-dir" default:"./tests/" validate:"required"`
	InstallerCommand   string        `mapstructure:"installer-command" json:"installer-command" default:"python -m pip install" validate:"required,command"`
	SkipInstall        bool          `mapstructure:"skip-install" json:"skip-install"`
	OptimizationModule string        `mapstructure:"optimization-module" json:"optimization-module" default:"fastseq" validate:"omitempty,module"`
	CloneDepth         int           `mapstructure:"clone-depth" json:"clone-depth" default:"1" validate:"gte=1"`
	RunTimeout         time.Duration `mapstructure:"run-timeout" json:"run-timeout" validate:"gte=0"`
	ReportFile         string        `mapstructure:"report-file" json:"report-file,omitempty"`
	OutputTailSize     int64         `mapstructure:"output-tail-size" json:"output-tail-size" default:"65536" validate:"gte=1024"`
}

// ScenarioConfig is one `[scenario "name"]` section.
type ScenarioConfig struct {
	WithoutOptimization bool     `mapstructure:"without-optimization" json:"without-optimization"`
	Version             string   `mapstructure:"version" json:"version" validate:"required,gitref"`
	BlockedTests        []string `mapstructure:"blocked-tests" json:"blocked-tests" validate:"dive,testfile"`
}

// Config contains the configuration
type Config struct {
	Global    GlobalConfig               `json:"global"`
	Scenarios map[string]*ScenarioConfig `json:"scenarios"`

	order      []string
	configPath string
	logger     core.Logger
}

func NewConfig(logger core.Logger) *Config {
	c := &Config{
		Scenarios: make(map[string]*ScenarioConfig),
		logger:    logger,
	}
	_ = defaults.Set(&c.Global)
	return c
}

// DefaultConfig holds only the built-in Normal scenario.
func DefaultConfig(logger core.Logger) *Config {
	c := NewConfig(logger)
	sc := core.DefaultScenario()
	c.addScenario(sc.Name, &ScenarioConfig{
		WithoutOptimization: sc.WithoutOptimization,
		Version:             sc.Version,
		BlockedTests:        sc.BlockedTests,
	})
	return c
}

// BuildFromFile loads an INI file, or a YAML file when the name ends in
// .yaml or .yml.
func BuildFromFile(filename string, logger core.Logger) (*Config, error) {
	var (
		c   *Config
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		var data []byte
		data, err = os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		c, err = BuildFromYAML(data, logger)
	default:
		var cfg *ini.File
		cfg, err = ini.LoadSources(ini.LoadOptions{AllowShadows: true, InsensitiveKeys: true}, filename)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		c = NewConfig(logger)
		err = parseIni(cfg, c)
	}
	if err != nil {
		return nil, err
	}

	c.configPath = filename
	logger.Debugf("loaded config file %s", filename)
	return c, nil
}

// BuildFromString builds a config from INI text
func BuildFromString(config string, logger core.Logger) (*Config, error) {
	c := NewConfig(logger)
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true, InsensitiveKeys: true}, []byte(config))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := parseIni(cfg, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildFromYAML builds a config from a document with a `global` mapping and
// a `scenarios` mapping keyed by scenario name.
func BuildFromYAML(data []byte, logger core.Logger) (*Config, error) {
	var doc struct {
		Global    map[string]any            `yaml:"global"`
		Scenarios map[string]map[string]any `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	c := NewConfig(logger)
	if doc.Global != nil {
		if err := c.decodeSection(sectionGlobal, doc.Global, &c.Global); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(doc.Scenarios))
	for name := range doc.Scenarios {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		sc := &ScenarioConfig{}
		if err := c.decodeSection(name, doc.Scenarios[name], sc); err != nil {
			return nil, err
		}
		c.addScenario(name, sc)
	}
	return c, nil
}

func parseIni(cfg *ini.File, c *Config) error {
	if sec, err := cfg.GetSection(sectionGlobal); err == nil {
		if err := c.decodeSection(sectionGlobal, sectionToMap(sec), &c.Global); err != nil {
			return err
		}
	}

	for _, section := range cfg.Sections() {
		name := strings.TrimSpace(section.Name())
		if name != sectionScenario && !strings.HasPrefix(name, sectionScenario+" ") {
			continue
		}
		scenarioName := parseScenarioName(name)
		if scenarioName == "" {
			return fmt.Errorf("%w: %q", ErrScenarioNameRequired, name)
		}
		sc := &ScenarioConfig{}
		if err := c.decodeSection(scenarioName, sectionToMap(section), sc); err != nil {
			return err
		}
		c.addScenario(scenarioName, sc)
	}
	return nil
}

func (c *Config) decodeSection(name string, input map[string]any, output any) error {
	result, err := decodeWithMetadata(input, output)
	if err != nil {
		return fmt.Errorf("section %q: %w", name, err)
	}
	if c.logger != nil {
		for _, w := range GenerateUnknownKeyWarnings(name, result.UnusedKeys, knownKeys(output)) {
			c.logger.Warningf("%s", w)
		}
	}
	return nil
}

func (c *Config) addScenario(name string, sc *ScenarioConfig) {
	for i, f := range sc.BlockedTests {
		sc.BlockedTests[i] = strings.TrimSpace(f)
	}
	sc.BlockedTests = slices.DeleteFunc(sc.BlockedTests, func(s string) bool { return s == "" })
	sc.Version = strings.TrimSpace(sc.Version)

	if _, ok := c.Scenarios[name]; !ok {
		c.order = append(c.order, name)
	}
	c.Scenarios[name] = sc
}

func parseScenarioName(section string) string {
	s := strings.TrimPrefix(section, sectionScenario)
	s = strings.TrimSpace(s)
	return strings.Trim(s, "\"")
}

func sectionToMap(section *ini.Section) map[string]any {
	m := make(map[string]any)
	for _, key := range section.Keys() {
		vals := key.ValueWithShadows()
		switch {
		case len(vals) > 1:
			cp := make([]string, len(vals))
			copy(cp, vals)
			m[key.Name()] = cp
		case len(vals) == 1:
			m[key.Name()] = vals[0]
		default:
			m[key.Name()] = ""
		}
	}
	return m
}

// ScenarioNames returns the scenario names in declaration order.
func (c *Config) ScenarioNames() []string {
	return slices.Clone(c.order)
}

// SelectScenarios resolves names to scenarios. No names means all of them, and a
// config without scenarios yields the built-in default.
func (c *Config) SelectScenarios(names []string) ([]core.Scenario, error) {
	if len(c.order) == 0 && len(names) == 0 {
		return []core.Scenario{core.DefaultScenario()}, nil
	}
	if len(names) == 0 {
		names = c.order
	}

	out := make([]core.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := c.Scenarios[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", core.ErrScenarioNotFound, name)
		}
		out = append(out, core.Scenario{
			Name:                name,
			WithoutOptimization: sc.WithoutOptimization,
			Version:             sc.Version,
			BlockedTests:        slices.Clone(sc.BlockedTests),
		})
	}
	return out, nil
}

// Validate checks the global settings and every scenario.
func (c *Config) Validate() error {
	if err := ValidateConfig(&c.Global); err != nil {
		return fmt.Errorf("global: %w", err)
	}
	for _, name := range c.order {
		if err := ValidateConfig(c.Scenarios[name]); err != nil {
			return fmt.Errorf("scenario %q: %w", name, err)
		}
	}
	return nil
}

// LocalRoot is the project directory removed from the search path; the
// working directory unless configured.
func (c *Config) LocalRoot() string {
	if c.Global.LocalRoot != "" {
		return c.Global.LocalRoot
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// NewImporter wires the fetcher and runner from the configuration. Subprocess
// output goes to stdout and stderr; clone progress goes to progress.
func (c *Config) NewImporter(logger core.Logger, stdout, stderr, progress io.Writer) *core.Importer {
	g := c.Global

	var installer core.Installer
	if !g.SkipInstall {
		installer = &core.CommandInstaller{Line: g.InstallerCommand, Stdout: stdout, Stderr: stderr}
	}

	return &core.Importer{
		Settings: core.Settings{
			RepositoryURL:      g.RepositoryURL,
			CheckoutDir:        g.CheckoutDir,
			OptimizationModule: g.OptimizationModule,
			TailSize:           g.OutputTailSize,
			Timeout:            g.RunTimeout,
		},
		Environment: core.NewEnvironment(g.SearchPathVar, c.LocalRoot()),
		Fetcher: &core.Fetcher{
			Cloner:    core.NewGitCloner(g.CloneDepth, progress),
			Installer: installer,
			Logger:    logger,
		},
		Runner: &core.TestRunner{
			Command: g.RunnerCommand,
			Flags:   args.GetArgs(g.RunnerFlags),
			TestDir: g.TestDir,
			Stdout:  stdout,
			Stderr:  stderr,
		},
		Logger: logger,
	}
}

// commonConfigPaths lists config file locations to search, in priority order
var commonConfigPaths = []string{
	"./suiteport.ini",
	"./suiteport.yaml",
	"./suiteport.yml",
	"/etc/suiteport/config.ini",
}

func findConfigFile() string {
	for _, path := range commonConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfig reads path. An empty path searches the common locations and
// falls back to the built-in configuration when none exists.
func LoadConfig(path string, logger core.Logger) (*Config, error) {
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		logger.Debugf("no config file found, using built-in defaults")
		return DefaultConfig(logger), nil
	}
	return BuildFromFile(path, logger)
}
