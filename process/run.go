package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Run executes cmd and waits for it. Cancelling ctx sends SIGTERM to the
// process group, then SIGKILL once GracePeriod has passed. A non-zero exit
// returns the Result alongside the error.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}
	grace := cmd.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // binary comes from config
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.Stdin = cmd.Stdin

	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fmt.Errorf("process: %s: %w", cmd.Binary, ctx.Err())
	case c.ProcessState == nil:
		// never started, e.g. binary not found
		return nil, fmt.Errorf("process: %s: %w", cmd.Binary, err)
	case len(res.Stderr) > 0:
		return res, fmt.Errorf("process: %s exited %d: %s", cmd.Binary, res.ExitCode, res.lastLine())
	default:
		return res, fmt.Errorf("process: %s exited %d: %w", cmd.Binary, res.ExitCode, err)
	}
}
