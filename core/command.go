package core

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/gobs/args"
)

// Command is a shell-like command line run without a shell.
type Command struct {
	Line   string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// build splits the command line, appends extra and resolves the binary.
func (c Command) build(ctx context.Context, extra ...string) (*exec.Cmd, error) {
	cmdArgs := args.GetArgs(c.Line)
	if len(cmdArgs) == 0 {
		return nil, ErrEmptyCommand
	}

	bin, err := exec.LookPath(cmdArgs[0])
	if err != nil {
		return nil, fmt.Errorf("look path %q: %w", cmdArgs[0], err)
	}

	cmd := exec.CommandContext(ctx, bin, append(cmdArgs[1:], extra...)...)
	cmd.Dir = c.Dir
	// nil Env means the child inherits ours
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd, nil
}

// CommandInstaller installs a package spec by running Line with the spec as
// its last argument, e.g. "python -m pip install".
type CommandInstaller struct {
	Line   string
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultInstallCommand installs into the interpreter that runs the tests.
const DefaultInstallCommand = "python -m pip install"

// Installer registers a source revision with the package manager.
type Installer interface {
	Install(ctx context.Context, spec string, env []string) error
}

// PackageSpec is the source-control addressed spec for url at version.
func PackageSpec(url, version string) string {
	return "git+" + url + "@" + version
}

func (i *CommandInstaller) Install(ctx context.Context, spec string, env []string) error {
	cmd, err := Command{Line: i.Line, Env: env, Stdout: i.Stdout, Stderr: i.Stderr}.build(ctx, spec)
	if err != nil {
		return err
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("install %s: %w", spec, err)
	}
	return nil
}
