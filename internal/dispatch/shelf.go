// ABOUTME: Shelf commands: transport, return, dock, undock and dock-and-register
// ABOUTME: All shelf commands wait for the robot to finish

package dispatch

import (
	"context"

	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/robot"
)

// ShelfPack returns the shelf tools.
func (d *Dispatcher) ShelfPack() *packs.Pack {
	return &packs.Pack{
		ID:          "shelf",
		Description: "Shelf transport and docking",
		Tools: []*packs.Tool{
			{
				Name:            "move_shelf",
				Description:     "Pick up a shelf and carry it to a location",
				InputSchemaJSON: `{"type":"object","properties":{"shelf_name":{"type":"string","description":"Shelf name or ID"},"location_name":{"type":"string","description":"Destination location name or ID"}},"required":["shelf_name","location_name"]}`,
				Handler:         handler(d.moveShelf, "shelf_name", "location_name"),
			},
			{
				Name:            "return_shelf",
				Description:     "Return a shelf to its home location",
				InputSchemaJSON: `{"type":"object","properties":{"shelf_name":{"type":"string","description":"Shelf name or ID; empty means the shelf currently docked","default":""}}}`,
				Handler:         handler(d.returnShelf),
			},
			{
				Name:            "dock_shelf",
				Description:     "Dock with the shelf in front of the robot",
				InputSchemaJSON: `{"type":"object","properties":{}}`,
				Handler:         handler(d.dockShelf),
			},
			{
				Name:            "undock_shelf",
				Description:     "Release the currently docked shelf",
				InputSchemaJSON: `{"type":"object","properties":{}}`,
				Handler:         handler(d.undockShelf),
			},
			{
				Name:            "dock_any_shelf_with_registration",
				Description:     "Dock whatever shelf is at a location and register it",
				InputSchemaJSON: `{"type":"object","properties":{"location_name":{"type":"string","description":"Location name or ID"},"dock_forward":{"type":"boolean","description":"Approach the shelf front first","default":false}},"required":["location_name"]}`,
				Handler:         handler(d.dockAnyShelfWithRegistration, "location_name"),
			},
		},
	}
}

// MoveShelf carries shelf to location.
func (d *Dispatcher) MoveShelf(ctx context.Context, shelf, location string) string {
	return d.run(ctx, command{
		tool:    "move_shelf",
		args:    map[string]any{"shelf_name": shelf, "location_name": location},
		success: "Successfully moved shelf " + shelf + " to location " + location,
		failure: "Failed to move shelf",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.MoveShelf(ctx, shelf, location, true)
		},
	})
}

// ReturnShelf returns shelf home. An empty name means the docked shelf.
func (d *Dispatcher) ReturnShelf(ctx context.Context, shelf string) string {
	label := shelf
	if label == "" {
		label = "(current)"
	}
	return d.run(ctx, command{
		tool:    "return_shelf",
		args:    map[string]any{"shelf_name": shelf},
		success: "Successfully returned shelf " + label,
		failure: "Failed to return shelf",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.ReturnShelf(ctx, shelf, true)
		},
	})
}

// DockShelf docks with the shelf in front of the robot.
func (d *Dispatcher) DockShelf(ctx context.Context) string {
	return d.run(ctx, command{
		tool:    "dock_shelf",
		success: "Successfully docked shelf",
		failure: "Failed to dock shelf",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.DockShelf(ctx, true)
		},
	})
}

// UndockShelf releases the docked shelf.
func (d *Dispatcher) UndockShelf(ctx context.Context) string {
	return d.run(ctx, command{
		tool:    "undock_shelf",
		success: "Successfully undocked shelf",
		failure: "Failed to undock shelf",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.UndockShelf(ctx, true)
		},
	})
}

// DockAnyShelfWithRegistration docks the shelf at location and registers it.
func (d *Dispatcher) DockAnyShelfWithRegistration(ctx context.Context, location string, dockForward bool) string {
	return d.run(ctx, command{
		tool:    "dock_any_shelf_with_registration",
		args:    map[string]any{"location_name": location, "dock_forward": dockForward},
		success: "Successfully docked shelf at location " + location,
		failure: "Failed to dock shelf",
		invoke: func(ctx context.Context, c robot.Client) (robot.Result, error) {
			return c.DockAnyShelfWithRegistration(ctx, location, dockForward, true)
		},
	})
}

type moveShelfArgs struct {
	ShelfName    string `json:"shelf_name"`
	LocationName string `json:"location_name"`
}

type returnShelfArgs struct {
	ShelfName string `json:"shelf_name"`
}

type dockAnyArgs struct {
	LocationName string `json:"location_name"`
	DockForward  bool   `json:"dock_forward"`
}

func (d *Dispatcher) moveShelf(ctx context.Context, in moveShelfArgs) string {
	return d.MoveShelf(ctx, in.ShelfName, in.LocationName)
}

func (d *Dispatcher) returnShelf(ctx context.Context, in returnShelfArgs) string {
	return d.ReturnShelf(ctx, in.ShelfName)
}

func (d *Dispatcher) dockShelf(ctx context.Context, _ noArgs) string {
	return d.DockShelf(ctx)
}

func (d *Dispatcher) undockShelf(ctx context.Context, _ noArgs) string {
	return d.UndockShelf(ctx)
}

func (d *Dispatcher) dockAnyShelfWithRegistration(ctx context.Context, in dockAnyArgs) string {
	return d.DockAnyShelfWithRegistration(ctx, in.LocationName, in.DockForward)
}
