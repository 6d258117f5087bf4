// Package toolbox runs the external tools the build delegates to. Each
// invocation passes an argument list plus an optional working directory,
// captures stdout, and treats a nonzero exit as fatal.
package toolbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/ralt/debforge/internal/models"
	"github.com/sirupsen/logrus"
)

// Tool names resolved through PATH.
const (
	ToolStrip   = "strip"
	ToolReadelf = "readelf"
	ToolTar     = "tar"
	ToolAr      = "ar"
	ToolGit     = "git"
	ToolDate    = "date"
)

// Runner executes an external tool and returns its stdout. Implementations
// must report a nonzero exit or launch failure as an error.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs tools as real subprocesses.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() Runner {
	return &ExecRunner{}
}

// Run executes name with args in dir (empty dir means the current directory)
// and returns the captured stdout.
func (r *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	logrus.Debugf("Running %s %v (dir=%s)", name, args, dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &models.BuildError{
			Type: models.ErrExternalTool,
			Path: name,
			Err:  fmt.Errorf("%s %v exited with code %d: %w", name, args, exitCode, err),
		}
	}

	return stdout.Bytes(), nil
}
