// ABOUTME: Robot information resources: status, version, serial and command
// ABOUTME: Status composes pose, battery and command state into one payload

package telemetry

import (
	"context"

	"github.com/2389/kachaka-mcp/internal/robot"
)

// Status reads robot://status.
func (a *Accessor) Status(ctx context.Context) Result {
	return a.query(ctx, "robot://status", func(ctx context.Context, c robot.Client) Result {
		pose, err := c.GetRobotPose(ctx)
		if err != nil {
			return a.fail("robot://status", err)
		}
		battery, err := c.GetBatteryInfo(ctx)
		if err != nil {
			return a.fail("robot://status", err)
		}
		state, cmd, err := c.GetCommandState(ctx)
		if err != nil {
			return a.fail("robot://status", err)
		}

		return OK(statusPayload{
			Pose:         newPose(pose),
			Battery:      batteryPayload{Percentage: number(battery.Percentage), Status: string(battery.Status)},
			CommandState: state.State,
			Command:      newCommand(state, cmd),
		}, true)
	})
}

// Version reads robot://version. Success is the raw version string.
func (a *Accessor) Version(ctx context.Context) Result {
	return a.query(ctx, "robot://version", func(ctx context.Context, c robot.Client) Result {
		v, err := c.GetRobotVersion(ctx)
		if err != nil {
			return a.fail("robot://version", err)
		}
		return OKText(v)
	})
}

// Serial reads robot://serial. Success is the raw serial number.
func (a *Accessor) Serial(ctx context.Context) Result {
	return a.query(ctx, "robot://serial", func(ctx context.Context, c robot.Client) Result {
		s, err := c.GetRobotSerialNumber(ctx)
		if err != nil {
			return a.fail("robot://serial", err)
		}
		return OKText(s)
	})
}

// Command reads robot://command.
func (a *Accessor) Command(ctx context.Context) Result {
	return a.query(ctx, "robot://command", func(ctx context.Context, c robot.Client) Result {
		state, cmd, err := c.GetCommandState(ctx)
		if err != nil {
			return a.fail("robot://command", err)
		}
		return OK(commandStatePayload{State: state.State, Command: newCommand(state, cmd)}, true)
	})
}
