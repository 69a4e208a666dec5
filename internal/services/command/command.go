// Package command provides the external process port used to drive the DCC
// adapters. Callers depend on Runner so tests can substitute a stub.
package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"dccpipe/internal/services"
)

const (
	// maxLineBytes bounds a single streamed output line.
	maxLineBytes = 1024 * 1024
	// waitDelay bounds how long Wait lingers on open pipes after the process
	// is killed on context cancellation.
	waitDelay = 5 * time.Second
)

// Result captures the outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an external program and waits for it to exit. A non-zero
// exit is reported through Result, not as an error; the error return is
// reserved for processes that could not be started or observed.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (Result, error)
}

// LineFunc receives each output line as it is produced. stream is "stdout"
// or "stderr".
type LineFunc func(stream, line string)

// ExecRunner runs processes with os/exec.
type ExecRunner struct {
	// OnLine, when set, is called for every output line while the process runs.
	OnLine LineFunc
	// Dir is the working directory; empty means the current directory.
	Dir string
}

// Run starts binary with args and blocks until it exits.
func (r ExecRunner) Run(ctx context.Context, binary string, args []string) (Result, error) {
	if strings.TrimSpace(binary) == "" {
		return Result{}, errors.New("command binary required")
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	cmd.WaitDelay = waitDelay
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start command: %w", err)
	}

	var (
		wg      sync.WaitGroup
		scanErr error
		once    sync.Once
		outBuf  bytes.Buffer
		errBuf  bytes.Buffer
	)

	// Each pipe is read to EOF even after a scan failure; a reader that stops
	// early leaves the child blocked on write and the other pipe never closes.
	scan := func(rd io.Reader, stream string, dst *bytes.Buffer) {
		defer wg.Done()
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := scanner.Text()
			dst.WriteString(line)
			dst.WriteByte('\n')
			if r.OnLine != nil {
				r.OnLine(stream, line)
			}
		}
		err := scanner.Err()
		if err == nil {
			return
		}
		if errors.Is(err, bufio.ErrTooLong) {
			// Keep the overlong remainder in the captured output without
			// streaming it line by line.
			_, err = io.Copy(dst, rd)
		} else {
			_, _ = io.Copy(io.Discard, rd)
		}
		if err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, "stdout", &outBuf)
	go scan(stderr, "stderr", &errBuf)
	wg.Wait()

	result := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}
	waitErr := cmd.Wait()
	if scanErr != nil {
		return result, fmt.Errorf("scan output: %w", scanErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("wait command: %w", waitErr)
	}
	return result, nil
}

// Check converts a non-zero exit into a services.ToolError.
func Check(tool string, result Result) error {
	if result.ExitCode == 0 {
		return nil
	}
	return &services.ToolError{
		Tool:     tool,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
}

// HasMarker reports whether any stdout line begins with marker.
func HasMarker(stdout, marker string) bool {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return true
	}
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), marker) {
			return true
		}
	}
	return false
}
