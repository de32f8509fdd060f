// ABOUTME: Telemetry accessor serving robot status, map and sensor resources
// ABOUTME: Holds the resource catalogue and matches URIs against templates

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/2389/kachaka-mcp/internal/robot"
	"github.com/2389/kachaka-mcp/internal/store"
)

// ErrUnknownResource is returned by Read for URIs outside the catalogue.
var ErrUnknownResource = errors.New("unknown resource")

// ClientSource hands out the shared robot client.
type ClientSource interface {
	Client(ctx context.Context) (robot.Client, error)
}

// CommandLister lists audited commands.
type CommandLister interface {
	ListCommands(ctx context.Context, filter store.CommandFilter) ([]*store.CommandEntry, error)
}

// Resource describes one readable resource or resource template.
type Resource struct {
	// URI is a fixed URI, or for templates a pattern ending in one {param}.
	URI         string
	Name        string
	Description string
	MIMEType    string
	Template    bool

	read func(ctx context.Context, param string) Result
}

// Accessor reads telemetry from the shared robot client.
type Accessor struct {
	source   ClientSource
	commands CommandLister
	logger   *slog.Logger

	resources []Resource
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithCommandLog exposes the command audit log as audit://commands.
func WithCommandLog(l CommandLister) Option {
	return func(a *Accessor) { a.commands = l }
}

// New creates an Accessor and builds its catalogue.
func New(source ClientSource, logger *slog.Logger, opts ...Option) *Accessor {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Accessor{source: source, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	a.resources = a.catalogue()
	return a
}

func (a *Accessor) catalogue() []Resource {
	static := func(fn func(context.Context) Result) func(context.Context, string) Result {
		return func(ctx context.Context, _ string) Result { return fn(ctx) }
	}

	res := []Resource{
		{URI: "robot://status", Name: "robot_status", MIMEType: MIMEJSON,
			Description: "Pose, battery and command state", read: static(a.Status)},
		{URI: "robot://version", Name: "robot_version", MIMEType: MIMEText,
			Description: "Robot software version", read: static(a.Version)},
		{URI: "robot://serial", Name: "robot_serial", MIMEType: MIMEText,
			Description: "Robot serial number", read: static(a.Serial)},
		{URI: "robot://command", Name: "robot_command", MIMEType: MIMEJSON,
			Description: "State of the current command", read: static(a.Command)},
		{URI: "map://current", Name: "current_map", MIMEType: MIMEPNG,
			Description: "Image of the active map", read: static(a.CurrentMap)},
		{URI: "map://locations", Name: "locations", MIMEType: MIMEJSON,
			Description: "All registered locations", read: static(func(ctx context.Context) Result { return a.Locations(ctx, "") })},
		{URI: "map://locations/{location_id}", Name: "location", MIMEType: MIMEJSON, Template: true,
			Description: "One location by ID or name", read: a.Locations},
		{URI: "map://shelves", Name: "shelves", MIMEType: MIMEJSON,
			Description: "All registered shelves", read: static(func(ctx context.Context) Result { return a.Shelves(ctx, "") })},
		{URI: "map://shelves/{shelf_id}", Name: "shelf", MIMEType: MIMEJSON, Template: true,
			Description: "One shelf by ID or name", read: a.Shelves},
		{URI: "map://list", Name: "map_list", MIMEType: MIMEJSON,
			Description: "Available maps with the active one marked", read: static(a.MapList)},
		{URI: "sensors://camera/front", Name: "front_camera", MIMEType: MIMEJPEG,
			Description: "Front camera frame", read: static(a.FrontCamera)},
		{URI: "sensors://camera/back", Name: "back_camera", MIMEType: MIMEJPEG,
			Description: "Back camera frame", read: static(a.BackCamera)},
		{URI: "sensors://camera/tof", Name: "tof_camera", MIMEType: MIMEJPEG,
			Description: "Time-of-flight camera frame", read: static(a.TOFCamera)},
		{URI: "sensors://laser", Name: "laser_scan", MIMEType: MIMEJSON,
			Description: "Latest laser scan", read: static(a.LaserScan)},
		{URI: "sensors://imu", Name: "imu", MIMEType: MIMEJSON,
			Description: "Latest IMU sample", read: static(a.IMU)},
		{URI: "sensors://odometry", Name: "odometry", MIMEType: MIMEJSON,
			Description: "Latest odometry", read: static(a.Odometry)},
		{URI: "sensors://object_detection", Name: "object_detection", MIMEType: MIMEJSON,
			Description: "Objects seen by the on-robot detector", read: static(a.ObjectDetection)},
	}

	if a.commands != nil {
		res = append(res, Resource{URI: "audit://commands", Name: "command_log", MIMEType: MIMEJSON,
			Description: "Most recent robot commands", read: static(a.Commands)})
	}
	return res
}

// Resources returns the fixed-URI resources.
func (a *Accessor) Resources() []Resource {
	var out []Resource
	for _, r := range a.resources {
		if !r.Template {
			out = append(out, r)
		}
	}
	return out
}

// Templates returns the parameterized resources.
func (a *Accessor) Templates() []Resource {
	var out []Resource
	for _, r := range a.resources {
		if r.Template {
			out = append(out, r)
		}
	}
	return out
}

// Read resolves uri against the catalogue and reads it. The only error is
// ErrUnknownResource; read failures are carried in the Result.
func (a *Accessor) Read(ctx context.Context, uri string) (Result, error) {
	for _, r := range a.resources {
		if !r.Template && r.URI == uri {
			return r.read(ctx, ""), nil
		}
	}
	for _, r := range a.resources {
		if !r.Template {
			continue
		}
		if param, ok := matchTemplate(r.URI, uri); ok {
			return r.read(ctx, param), nil
		}
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
}

// matchTemplate matches uri against a pattern of the form "prefix{param}".
// The parameter is path-unescaped and may be empty.
func matchTemplate(pattern, uri string) (string, bool) {
	open := strings.IndexByte(pattern, '{')
	if open < 0 || !strings.HasSuffix(pattern, "}") {
		return "", false
	}
	prefix := pattern[:open]
	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}
	raw := uri[len(prefix):]
	if strings.Contains(raw, "/") {
		return "", false
	}
	param, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	return param, true
}

// query runs fn against the shared client. Any failure becomes Err.
func (a *Accessor) query(ctx context.Context, name string, fn func(ctx context.Context, c robot.Client) Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic reading resource", "resource", name, "panic", r)
			res = Err(fmt.Sprint(r))
		}
	}()

	a.logger.Debug("reading resource", "resource", name)

	client, err := a.source.Client(ctx)
	if err != nil {
		a.logger.Error("robot unavailable", "resource", name, "error", err)
		return Err(err.Error())
	}
	return fn(ctx, client)
}

// fail logs err and returns its error payload.
func (a *Accessor) fail(name string, err error) Result {
	a.logger.Error("failed to read resource", "resource", name, "error", err)
	return Err(err.Error())
}

// image fetches a frame. Any failure, including an empty frame, yields
// the placeholder PNG.
func (a *Accessor) image(ctx context.Context, name, mimeType string, fetch func(ctx context.Context, c robot.Client) (robot.Image, error)) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic reading image", "resource", name, "panic", r)
			res = Blob(Placeholder(), MIMEPNG)
		}
	}()

	a.logger.Debug("reading image", "resource", name)

	client, err := a.source.Client(ctx)
	if err != nil {
		a.logger.Error("robot unavailable", "resource", name, "error", err)
		return Blob(Placeholder(), MIMEPNG)
	}

	img, err := fetch(ctx, client)
	if err != nil {
		a.logger.Error("failed to read image", "resource", name, "error", err)
		return Blob(Placeholder(), MIMEPNG)
	}
	if len(img.Data) == 0 {
		a.logger.Warn("robot returned an empty image", "resource", name)
		return Blob(Placeholder(), MIMEPNG)
	}
	return Blob(img.Data, mimeType)
}
