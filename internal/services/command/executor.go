// Package command runs external binaries on behalf of the tool clients and
// streams their output line by line.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// tailLines bounds how much tool output is quoted back in an error.
const tailLines = 5

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Exec runs commands with os/exec, merging stdout and stderr into onOutput.
type Exec struct{}

// Run starts binary with args and blocks until it exits or ctx is done.
func (Exec) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
		tail    []string
	)

	forward := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[len(tail)-tailLines:]
		}
		if onOutput != nil {
			onOutput(line)
		}
	}

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("wait command: %w", ctxErr)
		}
		if detail := strings.TrimSpace(strings.Join(tail, "\n")); detail != "" {
			return fmt.Errorf("wait command: %w: %s", err, detail)
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// Capture runs a command and returns its combined output.
func Capture(ctx context.Context, executor Executor, binary string, args []string) (string, error) {
	if executor == nil {
		return "", errors.New("executor required")
	}
	var (
		mu  sync.Mutex
		buf strings.Builder
	)
	err := executor.Run(ctx, binary, args, func(line string) {
		mu.Lock()
		defer mu.Unlock()
		buf.WriteString(line)
		buf.WriteByte('\n')
	})
	return buf.String(), err
}
