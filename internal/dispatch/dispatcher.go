// ABOUTME: Command dispatcher turning tool calls into robot commands
// ABOUTME: Normalizes every outcome into "Successfully", "Failed to" or "Error:" text

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/2389/kachaka-mcp/internal/robot"
)

// ClientSource hands out the shared robot client.
type ClientSource interface {
	Client(ctx context.Context) (robot.Client, error)
}

// Outcome classifies how a command ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeError   Outcome = "error"
)

// CommandRecord describes one finished command.
type CommandRecord struct {
	Tool     string
	Args     map[string]any
	Outcome  Outcome
	Message  string
	Duration time.Duration
}

// Recorder receives a record after every command.
type Recorder interface {
	RecordCommand(ctx context.Context, rec CommandRecord) error
}

// Dispatcher executes robot commands against the shared client.
type Dispatcher struct {
	source   ClientSource
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder attaches an audit recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// New creates a Dispatcher reading its client from source.
func New(source ClientSource, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{source: source, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// command is one robot invocation with its result wording.
type command struct {
	tool    string
	args    map[string]any
	success string // returned verbatim when the robot reports success
	failure string // prefixed to the robot's message on failure
	invoke  func(ctx context.Context, c robot.Client) (robot.Result, error)
}

// run executes cmd. It never panics and never returns an error: robot
// failures, transport errors and panics all become text.
func (d *Dispatcher) run(ctx context.Context, cmd command) (out string) {
	start := time.Now()
	outcome := OutcomeError
	var message string

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in robot command", "tool", cmd.tool, "panic", r)
			message = fmt.Sprint(r)
			outcome = OutcomeError
			out = "Error: " + message
		}
		d.record(ctx, CommandRecord{
			Tool:     cmd.tool,
			Args:     cmd.args,
			Outcome:  outcome,
			Message:  message,
			Duration: time.Since(start),
		})
	}()

	d.logger.Info("robot command", "tool", cmd.tool, "args", cmd.args)

	client, err := d.source.Client(ctx)
	if err != nil {
		d.logger.Error("robot unavailable", "tool", cmd.tool, "error", err)
		message = err.Error()
		return "Error: " + message
	}

	res, err := cmd.invoke(ctx, client)
	if err != nil {
		d.logger.Error("robot command failed", "tool", cmd.tool, "error", err)
		message = err.Error()
		return "Error: " + message
	}

	message = res.Message
	if res.Success {
		outcome = OutcomeSuccess
		return cmd.success
	}

	outcome = OutcomeFailure
	d.logger.Warn("robot rejected command", "tool", cmd.tool, "message", res.Message)
	return cmd.failure + ": " + res.Message
}

func (d *Dispatcher) record(ctx context.Context, rec CommandRecord) {
	if d.recorder == nil {
		return
	}
	// Audit writes outlive request cancellation.
	if err := d.recorder.RecordCommand(context.WithoutCancel(ctx), rec); err != nil {
		d.logger.Warn("failed to record command", "tool", rec.Tool, "error", err)
	}
}

// formatFloat renders v the way the result strings have always shown
// numbers: shortest round-trip form, integral values with a trailing ".0",
// and exponent notation outside [1e-4, 1e16).
func formatFloat(v float64) string {
	abs := math.Abs(v)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		switch {
		case math.IsNaN(v):
			return "nan"
		case v > 0:
			return "inf"
		default:
			return "-inf"
		}
	}
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == math.Trunc(v) {
		s += ".0"
	}
	return s
}

// formatBool renders booleans capitalized, as the result strings always have.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
