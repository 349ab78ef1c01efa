package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/suiteport/core"
	"github.com/netresearch/suiteport/test"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig(test.NewTestLogger())

	assert.Equal(t, core.DefaultRepositoryURL, c.Global.RepositoryURL)
	assert.Equal(t, core.DefaultCheckoutDir, c.Global.CheckoutDir)
	assert.Equal(t, core.DefaultSearchPathVar, c.Global.SearchPathVar)
	assert.Equal(t, core.DefaultRunnerCommand, c.Global.RunnerCommand)
	assert.Equal(t, core.DefaultRunnerFlags, c.Global.RunnerFlags)
	assert.Equal(t, core.DefaultTestDir, c.Global.TestDir)
	assert.Equal(t, core.DefaultInstallCommand, c.Global.InstallerCommand)
	assert.Equal(t, core.DefaultOptimizationModule, c.Global.OptimizationModule)
	assert.Equal(t, 1, c.Global.CloneDepth)
	assert.Equal(t, int64(core.DefaultTailSize), c.Global.OutputTailSize)
	assert.Zero(t, c.Global.RunTimeout)
	assert.False(t, c.Global.SkipInstall)
	require.NoError(t, c.Validate())
}

func TestSelectScenariosBuiltinDefault(t *testing.T) {
	c := NewConfig(test.NewTestLogger())

	scenarios, err := c.SelectScenarios(nil)
	require.NoError(t, err)
	assert.Equal(t, []core.Scenario{core.DefaultScenario()}, scenarios)

	_, err = c.SelectScenarios([]string{"Normal"})
	assert.ErrorIs(t, err, core.ErrScenarioNotFound)
}

func TestDefaultConfigHasNormal(t *testing.T) {
	c := DefaultConfig(test.NewTestLogger())

	assert.Equal(t, []string{"Normal"}, c.ScenarioNames())
	scenarios, err := c.SelectScenarios([]string{"Normal"})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultScenario(), scenarios[0])
}

func TestBuildFromStringScenarios(t *testing.T) {
	logger := test.NewTestLogger()
	c, err := BuildFromString(`
[global]
checkout-dir = /var/tmp/upstream
run-timeout = 45m
skip-install = true
clone-depth = 3

[scenario "Normal"]
version = v3.0.2
blocked-tests = test_modeling_reformer.py

[scenario "Baseline"]
version = v3.0.2
without-optimization = true
blocked-tests = test_modeling_reformer.py
blocked-tests = test_modeling_tf_xlnet.py

[scenario "Listed"]
version = main
blocked-tests = test_a.py, test_b.py
`, logger)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "/var/tmp/upstream", c.Global.CheckoutDir)
	assert.Equal(t, 45*time.Minute, c.Global.RunTimeout)
	assert.True(t, c.Global.SkipInstall)
	assert.Equal(t, 3, c.Global.CloneDepth)
	assert.Equal(t, []string{"Normal", "Baseline", "Listed"}, c.ScenarioNames())

	scenarios, err := c.SelectScenarios(nil)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	assert.Equal(t, core.Scenario{
		Name:         "Normal",
		Version:      "v3.0.2",
		BlockedTests: []string{"test_modeling_reformer.py"},
	}, scenarios[0])
	assert.True(t, scenarios[1].WithoutOptimization)
	assert.Equal(t, []string{"test_modeling_reformer.py", "test_modeling_tf_xlnet.py"}, scenarios[1].BlockedTests)
	assert.Equal(t, []string{"test_a.py", "test_b.py"}, scenarios[2].BlockedTests)
	assert.Empty(t, logger.Entries())
}

func TestSelectScenariosByName(t *testing.T) {
	c, err := BuildFromString(`
[scenario "A"]
version = v1
[scenario "B"]
version = v2
`, test.NewTestLogger())
	require.NoError(t, err)

	scenarios, err := c.SelectScenarios([]string{"B"})
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "v2", scenarios[0].Version)

	_, err = c.SelectScenarios([]string{"C"})
	assert.ErrorIs(t, err, core.ErrScenarioNotFound)
}

func TestBuildFromStringUnnamedScenario(t *testing.T) {
	_, err := BuildFromString("[scenario]\nversion = v1\n", test.NewTestLogger())
	assert.ErrorIs(t, err, ErrScenarioNameRequired)
}

func TestBuildFromStringIgnoresOtherSections(t *testing.T) {
	c, err := BuildFromString("[scenarios-old]\nversion = v1\n", test.NewTestLogger())
	require.NoError(t, err)
	assert.Empty(t, c.ScenarioNames())
}

func TestBuildFromStringUnknownKeyWarns(t *testing.T) {
	logger := test.NewTestLogger()
	_, err := BuildFromString(`
[global]
checkout-dri = /tmp/x

[scenario "Normal"]
version = v3.0.2
`, logger)
	require.NoError(t, err)

	assert.True(t, logger.HasWarning(`Unknown key "checkout-dri" in section "global"`))
	assert.True(t, logger.HasWarning(`did you mean "checkout-dir"?`))
}

func TestBuildFromStringBadDuration(t *testing.T) {
	_, err := BuildFromString("[global]\nrun-timeout = soon\n", test.NewTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `section "global"`)
}

func TestBuildFromFileYAML(t *testing.T) {
	path := writeConfig(t, "suiteport.yaml", `
global:
  checkout-dir: /var/tmp/upstream
  run-timeout: 10m
scenarios:
  Normal:
    version: v3.0.2
    blocked-tests:
      - test_modeling_reformer.py
  Baseline:
    version: v3.0.2
    without-optimization: true
`)

	c, err := BuildFromFile(path, test.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "/var/tmp/upstream", c.Global.CheckoutDir)
	assert.Equal(t, 10*time.Minute, c.Global.RunTimeout)
	assert.Equal(t, []string{"Baseline", "Normal"}, c.ScenarioNames())
	assert.True(t, c.Scenarios["Baseline"].WithoutOptimization)
	assert.Equal(t, []string{"test_modeling_reformer.py"}, c.Scenarios["Normal"].BlockedTests)
}

func TestBuildFromFileINI(t *testing.T) {
	path := writeConfig(t, "suiteport.ini", "[scenario \"Normal\"]\nversion = v3.0.2\n")

	c, err := BuildFromFile(path, test.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, path, c.configPath)
	assert.Equal(t, []string{"Normal"}, c.ScenarioNames())
}

func TestBuildFromFileMissing(t *testing.T) {
	_, err := BuildFromFile("/nonexistent/suiteport.ini", test.NewTestLogger())
	assert.Error(t, err)
}

func TestLoadConfigExplicitPath(t *testing.T) {
	path := writeConfig(t, "custom.ini", "[scenario \"X\"]\nversion = v1\n")

	c, err := LoadConfig(path, test.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, c.ScenarioNames())
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   string
	}{
		{"bad version", "[scenario \"A\"]\nversion = v1..2\n", "branch or tag"},
		{"missing version", "[scenario \"A\"]\nblocked-tests = test_a.py\n", "required field is empty"},
		{"bad blocked test", "[scenario \"A\"]\nversion = v1\nblocked-tests = modeling_a.py\n", "test_<name>.py"},
		{"root checkout", "[global]\ncheckout-dir = /\n", "absolute directory"},
		{"relative checkout", "[global]\ncheckout-dir = tmp/x\n", "absolute directory"},
		{"shell in runner", "[global]\nrunner-command = pytest && rm -rf x\n", "shell syntax"},
		{"bad module", "[global]\noptimization-module = fast-seq\n", "dotted module"},
		{"bad variable", "[global]\nsearch-path-var = PYTHON PATH\n", "environment variable"},
		{"zero depth", "[global]\nclone-depth = 0\n", "must be >= 1"},
		{"bad url", "[global]\nrepository-url = ftp://example.com/repo.git\n", "repository URL"},
		{"bad log level", "[global]\nlog-level = loud\n", "must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := BuildFromString(tt.config, test.NewTestLogger())
			require.NoError(t, err)

			err = c.Validate()
			require.ErrorIs(t, err, ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLocalRoot(t *testing.T) {
	c := NewConfig(test.NewTestLogger())
	c.Global.LocalRoot = "/src/fastseq"
	assert.Equal(t, "/src/fastseq", c.LocalRoot())

	c.Global.LocalRoot = ""
	assert.NotEmpty(t, c.LocalRoot())
}

func TestNewImporterWiring(t *testing.T) {
	c, err := BuildFromString(`
[global]
runner-flags = -sv --tb=short
skip-install = true
optimization-module = fastseq
clone-depth = 2
run-timeout = 1m
`, test.NewTestLogger())
	require.NoError(t, err)

	imp := c.NewImporter(test.NewTestLogger(), nil, nil, nil)

	assert.Nil(t, imp.Fetcher.Installer)
	assert.Equal(t, []string{"-sv", "--tb=short"}, imp.Runner.Flags)
	assert.Equal(t, "fastseq", imp.Settings.OptimizationModule)
	assert.Equal(t, time.Minute, imp.Settings.Timeout)
	cloner, ok := imp.Fetcher.Cloner.(*core.GitCloner)
	require.True(t, ok)
	assert.Equal(t, 2, cloner.Depth)
	assert.Equal(t, "PYTHONPATH", imp.Environment.Variable)

	c.Global.SkipInstall = false
	imp = c.NewImporter(test.NewTestLogger(), nil, nil, nil)
	installer, ok := imp.Fetcher.Installer.(*core.CommandInstaller)
	require.True(t, ok)
	assert.Equal(t, core.DefaultInstallCommand, installer.Line)
}

func TestFindClosestMatch(t *testing.T) {
	keys := knownKeys(&GlobalConfig{})

	assert.Contains(t, keys, "repository-url")
	assert.Equal(t, "checkout-dir", findClosestMatch("checkout-dri", keys))
	assert.Equal(t, "blocked-tests", findClosestMatch("blocked-test", knownKeys(&ScenarioConfig{})))
	assert.Empty(t, findClosestMatch("zzzzzzzzzz", keys))
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("same", "same"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestLoadConfigWithoutFileUsesBuiltinScenario(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := LoadConfig("", test.NewTestLogger())
	require.NoError(t, err)

	scenarios, err := c.SelectScenarios([]string{"Normal"})
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, core.DefaultScenario(), scenarios[0])
}
