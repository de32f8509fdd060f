// ABOUTME: System commands: speech, cancel, proceed, lock, settings and restart
// ABOUTME: Speak and lock wait for completion; settings return immediately

package dispatch

import (
	"context"
	"strconv"

	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/robot"
)

// SystemPack returns the system and settings tools.
func (d *Dispatcher) SystemPack() *packs.Pack {
	return &packs.Pack{
		ID:          "system",
		Description: "Speech, command control and robot settings",
		Tools: []*packs.Tool{
			{
				Name:            "speak",
				Description:     "Speak text aloud through the robot speaker",
				InputSchemaJSON: `{"type":"object","properties":{"text":{"type":"string","description":"Text to speak"}},"required":["text"]}`,
				Handler:         handler(d.speak, "text"),
			},
			{
				Name:            "cancel_command",
				Description:     "Cancel the command the robot is currently executing",
				InputSchemaJSON: `{"type":"object","properties":{}}`,
				Handler:         handler(d.cancelCommand),
			},
			{
				Name:            "proceed",
				Description:     "Continue a command that is waiting for confirmation",
				InputSchemaJSON: `{"type":"object","properties":{}}`,
				Handler:         handler(d.proceed),
			},
			{
				Name:            "lock",
				Description:     "Hold the robot in place for a duration",
				InputSchemaJSON: `{"type":"object","properties":{"duration_sec":{"type":"number","description":"Lock duration in seconds"}},"required":["duration_sec"]}`,
				Handler:         handler(d.lock, "duration_sec"),
			},
			{
				Name:            "set_auto_homing_enabled",
				Description:     "Enable or disable returning to the charger automatically",
				InputSchemaJSON: `{"type":"object","properties":{"enable":{"type":"boolean"}},"required":["enable"]}`,
				Handler:         handler(d.setAutoHomingEnabled, "enable"),
			},
			{
				Name:            "set_manual_control_enabled",
				Description:     "Enable or disable manual velocity control",
				InputSchemaJSON: `{"type":"object","properties":{"enable":{"type":"boolean"}},"required":["enable"]}`,
				Handler:         handler(d.setManualControlEnabled, "enable"),
			},
			{
				Name:            "set_speaker_volume",
				Description:     "Set the speaker volume",
				InputSchemaJSON: `{"type":"object","properties":{"volume":{"type":"integer","minimum":0,"maximum":100}},"required":["volume"]}`,
				Handler:         handler(d.setSpeakerVolume, "volume"),
			},
			{
				Name:            "restart_robot",
				Description:     "Restart the robot software",
				InputSchemaJSON: `{"type":"object","properties":{}}`,
				Handler:         handler(d.restartRobot),
			},
		},
	}
}

// Speak says text and waits until speech finishes.
func (d *Dispatcher) Speak(ctx context.Context, text string) string {
	return d.run(ctx, command{
		tool:    "speak",
		args:    map[string]any{"text": text},
		success: "Successfully spoke: " + text,
		failure: "Failed to speak",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.Speak(ctx, text, true)
		},
	})
}

// CancelCommand cancels the running command. The cancelled command's type
// is logged; the result text depends only on the cancel outcome.
func (d *Dispatcher) CancelCommand(ctx context.Context) string {
	return d.run(ctx, command{
		tool:    "cancel_command",
		success: "Successfully canceled command",
		failure: "Failed to cancel command",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			res, cancelled, err := c.CancelCommand(ctx)
			if err == nil && cancelled.Type != "" {
				d.logger.Info("cancelled robot command", "command", cancelled.Type)
			}
			return res, err
		},
	})
}

// Proceed continues a command waiting for confirmation.
func (d *Dispatcher) Proceed(ctx context.Context) string {
	return d.run(ctx, command{
		tool:    "proceed",
		success: "Successfully proceeded to next step",
		failure: "Failed to proceed",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.Proceed(ctx)
		},
	})
}

// Lock holds the robot for durationSec seconds.
func (d *Dispatcher) Lock(ctx context.Context, durationSec float64) string {
	return d.run(ctx, command{
		tool:    "lock",
		args:    map[string]any{"duration_sec": durationSec},
		success: "Successfully locked for " + formatFloat(durationSec) + " seconds",
		failure: "Failed to lock",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.Lock(ctx, durationSec, true)
		},
	})
}

// SetAutoHomingEnabled toggles automatic return to the charger.
func (d *Dispatcher) SetAutoHomingEnabled(ctx context.Context, enable bool) string {
	return d.run(ctx, command{
		tool:    "set_auto_homing_enabled",
		args:    map[string]any{"enable": enable},
		success: "Successfully set auto homing enabled: " + formatBool(enable),
		failure: "Failed to set auto homing",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.SetAutoHomingEnabled(ctx, enable)
		},
	})
}

// SetManualControlEnabled toggles manual velocity control.
func (d *Dispatcher) SetManualControlEnabled(ctx context.Context, enable bool) string {
	return d.run(ctx, command{
		tool:    "set_manual_control_enabled",
		args:    map[string]any{"enable": enable},
		success: "Successfully set manual control enabled: " + formatBool(enable),
		failure: "Failed to set manual control",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.SetManualControlEnabled(ctx, enable)
		},
	})
}

// SetSpeakerVolume sets the volume. Range checking is left to the robot.
func (d *Dispatcher) SetSpeakerVolume(ctx context.Context, volume int) string {
	return d.run(ctx, command{
		tool:    "set_speaker_volume",
		args:    map[string]any{"volume": volume},
		success: "Successfully set speaker volume: " + strconv.Itoa(volume),
		failure: "Failed to set speaker volume",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.SetSpeakerVolume(ctx, volume)
		},
	})
}

// RestartRobot restarts the robot software.
func (d *Dispatcher) RestartRobot(ctx context.Context) string {
	return d.run(ctx, command{
		tool:    "restart_robot",
		success: "Successfully restarted robot",
		failure: "Failed to restart robot",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.RestartRobot(ctx)
		},
	})
}

type speakArgs struct {
	Text string `json:"text"`
}

type lockArgs struct {
	DurationSec float64 `json:"duration_sec"`
}

type enableArgs struct {
	Enable bool `json:"enable"`
}

type volumeArgs struct {
	Volume int `json:"volume"`
}

func (d *Dispatcher) speak(ctx context.Context, in speakArgs) string {
	return d.Speak(ctx, in.Text)
}

func (d *Dispatcher) cancelCommand(ctx context.Context, _ noArgs) string {
	return d.CancelCommand(ctx)
}

func (d *Dispatcher) proceed(ctx context.Context, _ noArgs) string {
	return d.Proceed(ctx)
}

func (d *Dispatcher) lock(ctx context.Context, in lockArgs) string {
	return d.Lock(ctx, in.DurationSec)
}

func (d *Dispatcher) setAutoHomingEnabled(ctx context.Context, in enableArgs) string {
	return d.SetAutoHomingEnabled(ctx, in.Enable)
}

func (d *Dispatcher) setManualControlEnabled(ctx context.Context, in enableArgs) string {
	return d.SetManualControlEnabled(ctx, in.Enable)
}

func (d *Dispatcher) setSpeakerVolume(ctx context.Context, in volumeArgs) string {
	return d.SetSpeakerVolume(ctx, in.Volume)
}

func (d *Dispatcher) restartRobot(ctx context.Context, _ noArgs) string {
	return d.RestartRobot(ctx)
}
