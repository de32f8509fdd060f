// ABOUTME: Map commands: switch, export, import and direct pose override
// ABOUTME: Also assembles the full tool catalogue across all command groups

package dispatch

import (
	"context"
	"fmt"

	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/robot"
)

// MapPack returns the map management tools.
func (d *Dispatcher) MapPack() *packs.Pack {
	return &packs.Pack{
		ID:          "map",
		Description: "Map switching, import/export and localization",
		Tools: []*packs.Tool{
			{
				Name:            "switch_map",
				Description:     "Switch the active map",
				InputSchemaJSON: `{"type":"object","properties":{"map_id":{"type":"string"}},"required":["map_id"]}`,
				Handler:         handler(d.switchMap, "map_id"),
			},
			{
				Name:            "export_map",
				Description:     "Export a map to a file on the robot",
				InputSchemaJSON: `{"type":"object","properties":{"map_id":{"type":"string"},"output_file_path":{"type":"string"}},"required":["map_id","output_file_path"]}`,
				Handler:         handler(d.exportMap, "map_id", "output_file_path"),
			},
			{
				Name:            "import_map",
				Description:     "Import a map from a file on the robot",
				InputSchemaJSON: `{"type":"object","properties":{"target_file_path":{"type":"string"}},"required":["target_file_path"]}`,
				Handler:         handler(d.importMap, "target_file_path"),
			},
			{
				Name:            "set_robot_pose",
				Description:     "Override the robot's localized pose without moving it",
				InputSchemaJSON: `{"type":"object","properties":{"x":{"type":"number"},"y":{"type":"number"},"yaw":{"type":"number","description":"Heading in radians"}},"required":["x","y","yaw"]}`,
				Handler:         handler(d.setRobotPose, "x", "y", "yaw"),
			},
		},
	}
}

// Packs returns every command group in catalogue order.
func (d *Dispatcher) Packs() []*packs.Pack {
	return []*packs.Pack{
		d.MovementPack(),
		d.ShelfPack(),
		d.SystemPack(),
		d.MapPack(),
	}
}

// SwitchMap makes mapID the active map.
func (d *Dispatcher) SwitchMap(ctx context.Context, mapID string) string {
	return d.run(ctx, command{
		tool:    "switch_map",
		args:    map[string]any{"map_id": mapID},
		success: "Successfully switched to map: " + mapID,
		failure: "Failed to switch map",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.SwitchMap(ctx, mapID)
		},
	})
}

// ExportMap writes mapID to outputPath on the robot.
func (d *Dispatcher) ExportMap(ctx context.Context, mapID, outputPath string) string {
	return d.run(ctx, command{
		tool:    "export_map",
		args:    map[string]any{"map_id": mapID, "output_file_path": outputPath},
		success: "Successfully exported map " + mapID + " to " + outputPath,
		failure: "Failed to export map",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.ExportMap(ctx, mapID, outputPath)
		},
	})
}

// ImportMap loads a map from path on the robot.
func (d *Dispatcher) ImportMap(ctx context.Context, path string) string {
	return d.run(ctx, command{
		tool:    "import_map",
		args:    map[string]any{"target_file_path": path},
		success: "Successfully imported map from " + path,
		failure: "Failed to import map",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.ImportMap(ctx, path)
		},
	})
}

// SetRobotPose overrides the localized pose. Unlike MoveToPose the robot
// does not move.
func (d *Dispatcher) SetRobotPose(ctx context.Context, x, y, yaw float64) string {
	return d.run(ctx, command{
		tool: "set_robot_pose",
		args: map[string]any{"x": x, "y": y, "yaw": yaw},
		success: fmt.Sprintf("Successfully set robot pose: x=%s, y=%s, yaw=%s",
			formatFloat(x), formatFloat(y), formatFloat(yaw)),
		failure: "Failed to set robot pose",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.SetRobotPose(ctx, robot.Pose{X: x, Y: y, Yaw: yaw})
		},
	})
}

type mapIDArgs struct {
	MapID string `json:"map_id"`
}

type exportMapArgs struct {
	MapID          string `json:"map_id"`
	OutputFilePath string `json:"output_file_path"`
}

type importMapArgs struct {
	TargetFilePath string `json:"target_file_path"`
}

func (d *Dispatcher) switchMap(ctx context.Context, in mapIDArgs) string {
	return d.SwitchMap(ctx, in.MapID)
}

func (d *Dispatcher) exportMap(ctx context.Context, in exportMapArgs) string {
	return d.ExportMap(ctx, in.MapID, in.OutputFilePath)
}

func (d *Dispatcher) importMap(ctx context.Context, in importMapArgs) string {
	return d.ImportMap(ctx, in.TargetFilePath)
}

func (d *Dispatcher) setRobotPose(ctx context.Context, in poseArgs) string {
	return d.SetRobotPose(ctx, in.X, in.Y, in.Yaw)
}
