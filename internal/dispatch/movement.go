// ABOUTME: Movement commands: named locations, poses, home, forward, rotate, velocity
// ABOUTME: Every command except velocity waits for the robot to finish

package dispatch

import (
	"context"
	"fmt"

	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/robot"
)

// MovementPack returns the movement tools.
func (d *Dispatcher) MovementPack() *packs.Pack {
	return &packs.Pack{
		ID:          "movement",
		Description: "Navigation and base motion",
		Tools: []*packs.Tool{
			{
				Name:            "move_to_location",
				Description:     "Move the robot to a registered location by name or ID and wait until it arrives",
				InputSchemaJSON: `{"type":"object","properties":{"location_name":{"type":"string","description":"Destination location name or ID"}},"required":["location_name"]}`,
				Handler:         handler(d.moveToLocation, "location_name"),
			},
			{
				Name:            "move_to_pose",
				Description:     "Navigate the robot to map coordinates and wait until it arrives",
				InputSchemaJSON: `{"type":"object","properties":{"x":{"type":"number","description":"X coordinate in meters"},"y":{"type":"number","description":"Y coordinate in meters"},"yaw":{"type":"number","description":"Heading in radians"}},"required":["x","y","yaw"]}`,
				Handler:         handler(d.moveToPose, "x", "y", "yaw"),
			},
			{
				Name:            "return_home",
				Description:     "Return the robot to its charger and wait until it arrives",
				InputSchemaJSON: `{"type":"object","properties":{}}`,
				Handler:         handler(d.returnHome),
			},
			{
				Name:            "move_forward",
				Description:     "Drive straight for a distance; negative distances reverse",
				InputSchemaJSON: `{"type":"object","properties":{"distance_meter":{"type":"number","description":"Distance in meters"},"speed":{"type":"number","description":"Speed in m/s; 0 uses the robot default","default":0}},"required":["distance_meter"]}`,
				Handler:         handler(d.moveForward, "distance_meter"),
			},
			{
				Name:            "rotate_in_place",
				Description:     "Rotate the robot in place by an angle",
				InputSchemaJSON: `{"type":"object","properties":{"angle_radian":{"type":"number","description":"Rotation in radians; positive is counter-clockwise"}},"required":["angle_radian"]}`,
				Handler:         handler(d.rotateInPlace, "angle_radian"),
			},
			{
				Name:            "set_robot_velocity",
				Description:     "Set a continuous base velocity without waiting",
				InputSchemaJSON: `{"type":"object","properties":{"linear":{"type":"number","description":"Linear velocity in m/s"},"angular":{"type":"number","description":"Angular velocity in rad/s"}},"required":["linear","angular"]}`,
				Handler:         handler(d.setRobotVelocity, "linear", "angular"),
			},
		},
	}
}

// MoveToLocation moves to a named location and waits for arrival.
func (d *Dispatcher) MoveToLocation(ctx context.Context, locationName string) string {
	return d.run(ctx, command{
		tool:    "move_to_location",
		args:    map[string]any{"location_name": locationName},
		success: "Successfully moved to " + locationName,
		failure: "Failed to move to " + locationName,
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.MoveToLocation(ctx, locationName, true)
		},
	})
}

// MoveToPose navigates to (x, y, yaw) and waits for arrival.
func (d *Dispatcher) MoveToPose(ctx context.Context, x, y, yaw float64) string {
	return d.run(ctx, command{
		tool: "move_to_pose",
		args: map[string]any{"x": x, "y": y, "yaw": yaw},
		success: fmt.Sprintf("Successfully moved to pose: x=%s, y=%s, yaw=%s",
			formatFloat(x), formatFloat(y), formatFloat(yaw)),
		failure: "Failed to move to pose",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.MoveToPose(ctx, x, y, yaw, true)
		},
	})
}

// ReturnHome sends the robot to its charger and waits for arrival.
func (d *Dispatcher) ReturnHome(ctx context.Context) string {
	return d.run(ctx, command{
		tool:    "return_home",
		success: "Successfully returned home",
		failure: "Failed to return home",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.ReturnHome(ctx, true)
		},
	})
}

// MoveForward drives distance meters. A zero speed defers to the robot default.
func (d *Dispatcher) MoveForward(ctx context.Context, distance, speed float64) string {
	return d.run(ctx, command{
		tool:    "move_forward",
		args:    map[string]any{"distance_meter": distance, "speed": speed},
		success: "Successfully moved forward " + formatFloat(distance) + "m",
		failure: "Failed to move forward",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.MoveForward(ctx, distance, speed, true)
		},
	})
}

// RotateInPlace turns by angle radians.
func (d *Dispatcher) RotateInPlace(ctx context.Context, angle float64) string {
	return d.run(ctx, command{
		tool:    "rotate_in_place",
		args:    map[string]any{"angle_radian": angle},
		success: "Successfully rotated " + formatFloat(angle) + "rad",
		failure: "Failed to rotate",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.RotateInPlace(ctx, angle, true)
		},
	})
}

// SetRobotVelocity sets a continuous velocity and returns immediately.
func (d *Dispatcher) SetRobotVelocity(ctx context.Context, linear, angular float64) string {
	return d.run(ctx, command{
		tool: "set_robot_velocity",
		args: map[string]any{"linear": linear, "angular": angular},
		success: fmt.Sprintf("Successfully set robot velocity: linear=%sm/s, angular=%srad/s",
			formatFloat(linear), formatFloat(angular)),
		failure: "Failed to set robot velocity",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.SetRobotVelocity(ctx, linear, angular)
		},
	})
}

type locationArgs struct {
	LocationName string `json:"location_name"`
}

type poseArgs struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Yaw float64 `json:"yaw"`
}

type forwardArgs struct {
	DistanceMeter float64 `json:"distance_meter"`
	Speed         float64 `json:"speed"`
}

type rotateArgs struct {
	AngleRadian float64 `json:"angle_radian"`
}

type velocityArgs struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

type noArgs struct{}

func (d *Dispatcher) moveToLocation(ctx context.Context, in locationArgs) string {
	return d.MoveToLocation(ctx, in.LocationName)
}

func (d *Dispatcher) moveToPose(ctx context.Context, in poseArgs) string {
	return d.MoveToPose(ctx, in.X, in.Y, in.Yaw)
}

func (d *Dispatcher) returnHome(ctx context.Context, _ noArgs) string {
	return d.ReturnHome(ctx)
}

func (d *Dispatcher) moveForward(ctx context.Context, in forwardArgs) string {
	return d.MoveForward(ctx, in.DistanceMeter, in.Speed)
}

func (d *Dispatcher) rotateInPlace(ctx context.Context, in rotateArgs) string {
	return d.RotateInPlace(ctx, in.AngleRadian)
}

func (d *Dispatcher) setRobotVelocity(ctx context.Context, in velocityArgs) string {
	return d.SetRobotVelocity(ctx, in.Linear, in.Angular)
}
