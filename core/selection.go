package core

import (
	"fmt"
	"strings"
)

const (
	testFilePrefix = "test_"
	testFileSuffix = ".py"
)

// TestNameFragment turns test_<name>.py into <name>.
func TestNameFragment(file string) (string, error) {
	name, ok := strings.CutPrefix(file, testFilePrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTestFile, file)
	}
	name, ok = strings.CutSuffix(name, testFileSuffix)
	if !ok || name == "" || strings.ContainsAny(name, " /\\()") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTestFile, file)
	}
	return name, nil
}

// ExclusionExpression builds the runner's -k selection that skips every
// listed test file. The result for a single file is " not <name>"; further
// files are chained with " and not <name>". An empty list selects everything
// and yields "".
func ExclusionExpression(files []string) (string, error) {
	if len(files) == 0 {
		return "", nil
	}

	fragments := make([]string, 0, len(files))
	for _, f := range files {
		name, err := TestNameFragment(f)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, name)
	}
	return " not " + strings.Join(fragments, " and not "), nil
}
