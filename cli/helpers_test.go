package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netresearch/suiteport/core"
)

// runnerScript records argv and the search path into outDir and exits
// with code.
func runnerScript(t *testing.T, outDir string, code int) string {
	t.Helper()

	body := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" >> %q
printf '%%s\n' "$PYTHONPATH" >> %q
echo "collected 3 items"
exit %d
`, filepath.Join(outDir, "args"), filepath.Join(outDir, "pythonpath"), code)

	path := filepath.Join(t.TempDir(), "runner.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o700))
	return path
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type fakeCloner struct {
	versions []string
	err      error
}

func (c *fakeCloner) Clone(_ context.Context, src core.Source) (*core.Checkout, error) {
	c.versions = append(c.versions, src.Version)
	if c.err != nil {
		return nil, c.err
	}
	if err := os.MkdirAll(filepath.Join(src.Dir, "tests"), 0o750); err != nil {
		return nil, err
	}
	return &core.Checkout{
		Dir:       src.Dir,
		URL:       src.URL,
		Version:   src.Version,
		Reference: "refs/tags/" + src.Version,
		Commit:    "33d3072e1c54bcd235447b98c6dea1b4cb71234c",
	}, nil
}
