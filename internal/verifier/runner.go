// Package verifier runs the external verification process and streams the
// per-query results it prints.
package verifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// waitDelay bounds how long pipes may stay open after the process is
// killed.
const waitDelay = 5 * time.Second

// Runner spawns one verifier process.
type Runner struct {
	Command string
	Args    []string
	Dir     string            // working directory; empty = current
	Env     map[string]string // overlaid on the process environment
	Timeout time.Duration     // 0 = no limit
	Logger  *slog.Logger
}

// Shell returns a runner executing command via "sh -c".
func Shell(command string) *Runner {
	return &Runner{Command: "sh", Args: []string{"-c", command}}
}

// Run starts the process and streams its results. Stdout is read as JSONL
// result records and stderr is logged line by line. Malformed records are
// logged and skipped.
//
// Both channels are closed when the process exits. The error channel
// yields at most one error: the start failure, a non-zero exit, or the
// context error when ctx is canceled or the timeout fires, in which case
// the process is killed.
func (r *Runner) Run(ctx context.Context) (<-chan Result, <-chan error) {
	results := make(chan Result)
	errc := make(chan error, 1)

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
	}

	cmd := exec.CommandContext(runCtx, r.Command, r.Args...) //nolint:gosec // verifier command comes from local config
	cmd.WaitDelay = waitDelay
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	cmd.Env = os.Environ()
	for k, v := range r.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fail(results, errc, fmt.Errorf("verifier stdout: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fail(results, errc, fmt.Errorf("verifier stderr: %w", err))
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fail(results, errc, fmt.Errorf("starting verifier %s: %w", r.Command, err))
	}
	logger.Info("verifier started", "command", r.Command, "pid", cmd.Process.Pid)

	go func() {
		defer cancel()
		defer close(errc)
		defer close(results)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			logStderr(stderr, logger)
		}()

		r.stream(runCtx, stdout, results, logger)
		wg.Wait()

		err := cmd.Wait()
		if ctxErr := runCtx.Err(); ctxErr != nil {
			errc <- fmt.Errorf("verifier %s: %w", r.Command, ctxErr)
			return
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				errc <- fmt.Errorf("verifier %s exited with code %d: %w", r.Command, exitErr.ExitCode(), err)
				return
			}
			errc <- fmt.Errorf("verifier %s: %w", r.Command, err)
			return
		}
		logger.Info("verifier finished", "command", r.Command)
	}()

	return results, errc
}

// stream forwards parsed results until stdout closes. Once ctx is done the
// remaining output is drained without being delivered.
func (r *Runner) stream(ctx context.Context, stdout io.Reader, results chan<- Result, logger *slog.Logger) {
	sc := newScanner(stdout)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || ctx.Err() != nil {
			continue
		}
		res, err := ParseResult(line)
		if err != nil {
			logger.Warn("skipping verifier output", "line", string(line), "error", err)
			continue
		}
		select {
		case results <- res:
		case <-ctx.Done():
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		logger.Warn("reading verifier output", "error", err)
		_, _ = io.Copy(io.Discard, stdout)
	}
}

func logStderr(stderr io.Reader, logger *slog.Logger) {
	sc := newScanner(stderr)
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			logger.Info("verifier", "stderr", string(line))
		}
	}
	_, _ = io.Copy(io.Discard, stderr)
}

func fail(results chan Result, errc chan error, err error) (<-chan Result, <-chan error) {
	close(results)
	errc <- err
	close(errc)
	return results, errc
}
