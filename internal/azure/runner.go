// Package azure wraps the az CLI. Operations compose argument lists
// and hand them to a Runner; a dry-run Runner prints commands instead
// of executing them.
package azure

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands for real.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(out), nil
}

// DryRunner prints each command instead of executing it and records
// what would have run.
type DryRunner struct {
	Out      io.Writer
	Commands []string
}

func (d *DryRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	line := name + " " + strings.Join(args, " ")
	d.Commands = append(d.Commands, line)
	if d.Out != nil {
		fmt.Fprintf(d.Out, "  [dry-run] %s\n", line)
	}
	return "", nil
}

// CheckInstalled verifies the az CLI is on PATH and responsive.
func CheckInstalled(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "az", "version", "--output", "none")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("az CLI is not available - ensure it's installed and in PATH: %w", err)
	}
	return nil
}
