package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunnerScript records its argv, working directory and search path
// into $OUT_DIR and exits with $EXIT_CODE.
const fakeRunnerScript = `#!/bin/sh
printf '%s\n' "$@" > "$OUT_DIR/args"
pwd -P > "$OUT_DIR/pwd"
printf '%s' "$PYTHONPATH" > "$OUT_DIR/pythonpath"
echo "collected 3 items"
echo "warning from runner" >&2
exit "$EXIT_CODE"
`

func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "runner.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o700))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// fakeCloner creates a checkout directory with a marker file.
type fakeCloner struct {
	calls int
	err   error
}

func (c *fakeCloner) Clone(_ context.Context, src Source) (*Checkout, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if err := os.MkdirAll(filepath.Join(src.Dir, "tests"), 0o750); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(src.Dir, "VERSION"), []byte(src.Version), 0o600); err != nil {
		return nil, err
	}
	return &Checkout{
		Dir:       src.Dir,
		URL:       src.URL,
		Version:   src.Version,
		Reference: "refs/tags/" + src.Version,
		Commit:    "33d3072e1c54bcd235447b98c6dea1b4cb71234c",
	}, nil
}

type fakeInstaller struct {
	specs []string
	envs  [][]string
	err   error
}

func (i *fakeInstaller) Install(_ context.Context, spec string, env []string) error {
	i.specs = append(i.specs, spec)
	i.envs = append(i.envs, env)
	return i.err
}
