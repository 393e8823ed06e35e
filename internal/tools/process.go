package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an external command and returns its combined output.
// Every platform operation goes through a Runner so tests can script
// command output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return RunCapture(ctx, name, args...)
}

// CommandError describes an external command that could not be started
// or exited non-zero.
type CommandError struct {
	Name     string
	Args     []string
	Output   string
	ExitCode int // -1 when the command never ran
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command(), e.Err)
	if e.Output != "" {
		msg += ": " + firstLine(e.Output)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Command returns the command line as typed in a shell (without quoting).
func (e *CommandError) Command() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	return e.Name + " " + strings.Join(e.Args, " ")
}

// RunCapture executes a command and returns its trimmed combined output.
// Failures are returned as *CommandError carrying the output.
func RunCapture(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		return text, newCommandError(name, args, text, err)
	}
	return text, nil
}

func newCommandError(name string, args []string, output string, err error) *CommandError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &CommandError{
		Name:     name,
		Args:     append([]string(nil), args...),
		Output:   output,
		ExitCode: code,
		Err:      err,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// LoggingRunner logs every command at debug level before delegating.
type LoggingRunner struct {
	Next Runner
	Log  *slog.Logger
}

// Run implements Runner.
func (r LoggingRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	start := time.Now()
	out, err := r.Next.Run(ctx, name, args...)

	attrs := []slog.Attr{
		slog.String("cmd", name),
		slog.Any("args", args),
		slog.Duration("took", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		r.Log.LogAttrs(ctx, slog.LevelDebug, "command failed", attrs...)
		return out, err
	}
	r.Log.LogAttrs(ctx, slog.LevelDebug, "command ok", attrs...)
	return out, nil
}
