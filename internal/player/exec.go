package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

var errNotLoaded = errors.New("exec target: nothing loaded")

// ExecTarget plays HLS with an external player process such as ffplay.
type ExecTarget struct {
	command string
	args    []string
	logger  *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stderr bytes.Buffer
}

// NewExecTarget runs command with args followed by the manifest URL. An empty
// command means ffplay.
func NewExecTarget(logger *slog.Logger, command string, args ...string) *ExecTarget {
	if command == "" {
		command = "ffplay"
		if len(args) == 0 {
			args = []string{"-autoexit", "-loglevel", "error"}
		}
	}

	return &ExecTarget{
		command: command,
		args:    args,
		logger:  logger,
	}
}

func (t *ExecTarget) CanPlayType(mimeType string) bool {
	if mimeType != MimeTypeHLS {
		return false
	}
	_, err := exec.LookPath(t.command)
	return err == nil
}

func (t *ExecTarget) Load(ctx context.Context, manifestURL string) error {
	path, err := exec.LookPath(t.command)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", t.command, err)
	}

	args := append(append([]string{}, t.args...), manifestURL)
	t.logger.Debug("starting player", "cmd", path, "args", args)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stderr.Reset()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &t.stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", t.command, err)
	}
	t.cmd = cmd

	return nil
}

// Play waits for the player process to exit.
func (t *ExecTarget) Play(ctx context.Context) error {
	t.mu.Lock()
	cmd := t.cmd
	t.mu.Unlock()
	if cmd == nil {
		return errNotLoaded
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		t.mu.Lock()
		msg := strings.TrimSpace(t.stderr.String())
		t.mu.Unlock()
		if msg != "" {
			return fmt.Errorf("%s exited: %w: %s", t.command, err, msg)
		}
		return fmt.Errorf("%s exited: %w", t.command, err)
	}

	return nil
}
