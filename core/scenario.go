package core

import (
	"fmt"
	"strings"
)

const (
	// DefaultRepositoryURL is the upstream whose test suite is imported.
	DefaultRepositoryURL = "https://github.com/huggingface/transformers.git"
	// DefaultCheckoutDir is recreated on every fetch.
	DefaultCheckoutDir = "/tmp/transformers/"
	// DefaultOptimizationModule is loaded into the runner unless a scenario
	// opts out.
	DefaultOptimizationModule = "fastseq"
)

// Scenario is one parameterized import of the upstream suite.
type Scenario struct {
	Name                string   `json:"name"`
	WithoutOptimization bool     `json:"without_optimization"`
	Version             string   `json:"version"`
	BlockedTests        []string `json:"blocked_tests"`
}

// DefaultScenario is used when no configuration names any scenario.
func DefaultScenario() Scenario {
	return Scenario{
		Name:                "Normal",
		WithoutOptimization: false,
		Version:             "v3.0.2",
		BlockedTests:        []string{"test_modeling_reformer.py"},
	}
}

// Validate checks the fields a run cannot do without and that every blocked
// test follows the test_<name>.py convention.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidScenario)
	}
	if strings.TrimSpace(s.Version) == "" {
		return fmt.Errorf("%w: %q has no version", ErrInvalidScenario, s.Name)
	}
	if _, err := ExclusionExpression(s.BlockedTests); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidScenario, s.Name, err)
	}
	return nil
}
