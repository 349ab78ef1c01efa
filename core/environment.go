package core

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultSearchPathVar is the module search path read by the test runner.
const DefaultSearchPathVar = "PYTHONPATH"

// PrepareSearchPath returns current without any entry naming localRoot and
// with checkout in front. The local project root would otherwise shadow
// same-named modules inside the checkout. current is not modified.
func PrepareSearchPath(current []string, localRoot, checkout string) []string {
	out := make([]string, 0, len(current)+1)
	out = append(out, checkout)

	root := ""
	if localRoot != "" {
		root = filepath.Clean(localRoot)
	}
	for _, entry := range current {
		if entry == "" {
			continue
		}
		if root != "" && filepath.Clean(entry) == root {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Environment is the environment handed to the installer and the runner.
// It is built from a snapshot and never written back to the process.
type Environment struct {
	// Variable is the search path variable, PYTHONPATH by default.
	Variable string
	// LocalRoot is dropped from the search path if present.
	LocalRoot string
	// Base is the snapshot every derived environment starts from.
	Base []string
}

// NewEnvironment snapshots os.Environ.
func NewEnvironment(variable, localRoot string) *Environment {
	if variable == "" {
		variable = DefaultSearchPathVar
	}
	return &Environment{
		Variable:  variable,
		LocalRoot: localRoot,
		Base:      os.Environ(),
	}
}

// Lookup returns the value of name in the snapshot.
func (e *Environment) Lookup(name string) (string, bool) {
	prefix := name + "="
	// the last assignment wins, as with exec
	for i := len(e.Base) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(e.Base[i], prefix); ok {
			return v, true
		}
	}
	return "", false
}

// SearchPath returns the prepared search path entries for checkout.
func (e *Environment) SearchPath(checkout string) []string {
	prior, _ := e.Lookup(e.Variable)
	var entries []string
	if prior != "" {
		entries = filepath.SplitList(prior)
	}
	return PrepareSearchPath(entries, e.LocalRoot, checkout)
}

// Apply returns a copy of the snapshot with the search path variable set to
// checkout followed by the previous entries.
func (e *Environment) Apply(checkout string) []string {
	value := strings.Join(e.SearchPath(checkout), string(os.PathListSeparator))
	prefix := e.Variable + "="

	env := make([]string, 0, len(e.Base)+1)
	for _, kv := range e.Base {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		env = append(env, kv)
	}
	return append(env, prefix+value)
}
