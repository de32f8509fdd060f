// ABOUTME: Map resources: current map image, locations, shelves and map list
// ABOUTME: Lookups match by id or name and report misses as error payloads

package telemetry

import (
	"context"
	"fmt"

	"github.com/2389/kachaka-mcp/internal/robot"
)

// CurrentMap reads map://current as PNG, or the placeholder on failure.
func (a *Accessor) CurrentMap(ctx context.Context) Result {
	return a.image(ctx, "map://current", MIMEPNG, func(ctx context.Context, c robot.Client) (robot.Image, error) {
		return c.GetPNGMap(ctx)
	})
}

// Locations reads the location list, or one location when id is set.
// id matches either the location ID or its name.
func (a *Accessor) Locations(ctx context.Context, id string) Result {
	const name = "map://locations"
	return a.query(ctx, name, func(ctx context.Context, c robot.Client) Result {
		locations, err := c.GetLocations(ctx)
		if err != nil {
			return a.fail(name, err)
		}

		toPayload := func(l robot.Location) locationPayload {
			return locationPayload{ID: l.ID, Name: l.Name, Pose: newPose(l.Pose), Type: l.Type}
		}

		if id != "" {
			for _, l := range locations {
				if l.ID == id || l.Name == id {
					return OK(toPayload(l), true)
				}
			}
			return Err(fmt.Sprintf("Location %s not found", id))
		}

		out := make([]locationPayload, 0, len(locations))
		for _, l := range locations {
			out = append(out, toPayload(l))
		}
		return OK(out, true)
	})
}

// Shelves reads the shelf list, or one shelf when id is set.
// id matches either the shelf ID or its name.
func (a *Accessor) Shelves(ctx context.Context, id string) Result {
	const name = "map://shelves"
	return a.query(ctx, name, func(ctx context.Context, c robot.Client) Result {
		shelves, err := c.GetShelves(ctx)
		if err != nil {
			return a.fail(name, err)
		}

		toPayload := func(s robot.Shelf) shelfPayload {
			return shelfPayload{ID: s.ID, Name: s.Name, Pose: newPose(s.Pose), HomeLocationID: s.HomeLocationID}
		}

		if id != "" {
			for _, s := range shelves {
				if s.ID == id || s.Name == id {
					return OK(toPayload(s), true)
				}
			}
			return Err(fmt.Sprintf("Shelf %s not found", id))
		}

		out := make([]shelfPayload, 0, len(shelves))
		for _, s := range shelves {
			out = append(out, toPayload(s))
		}
		return OK(out, true)
	})
}

// MapList reads map://list and marks the active map.
func (a *Accessor) MapList(ctx context.Context) Result {
	const name = "map://list"
	return a.query(ctx, name, func(ctx context.Context, c robot.Client) Result {
		maps, err := c.GetMapList(ctx)
		if err != nil {
			return a.fail(name, err)
		}
		current, err := c.GetCurrentMapID(ctx)
		if err != nil {
			return a.fail(name, err)
		}

		out := make([]mapPayload, 0, len(maps))
		for _, m := range maps {
			out = append(out, mapPayload{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt, IsCurrent: m.ID == current})
		}
		return OK(out, true)
	})
}
