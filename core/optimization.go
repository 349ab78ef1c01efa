package core

// Optimization decides what, if anything, is loaded into the runner process
// before tests are collected.
type Optimization interface {
	// Name identifies the strategy in logs and reports.
	Name() string
	// RunnerArgs are inserted before the selection and test directory.
	RunnerArgs() []string
}

// NoOptimization leaves the upstream library unmodified.
type NoOptimization struct{}

func (NoOptimization) Name() string { return "none" }

func (NoOptimization) RunnerArgs() []string { return nil }

// PluginOptimization loads Module as a runner plugin. The runner imports it
// before collection, so any patching it does at import time is in effect for
// every upstream test.
type PluginOptimization struct {
	Module string
}

func (p PluginOptimization) Name() string { return p.Module }

func (p PluginOptimization) RunnerArgs() []string {
	return []string{"-p", p.Module}
}

// SelectOptimization returns NoOptimization when withoutOptimization is set
// or no module is configured, PluginOptimization otherwise.
func SelectOptimization(withoutOptimization bool, module string) Optimization {
	if withoutOptimization || module == "" {
		return NoOptimization{}
	}
	return PluginOptimization{Module: module}
}
