// ABOUTME: In-memory fake robot implementing robot.Client for tests.
// ABOUTME: Records every call; results, errors and panics are set per method.

// Package robottest provides a scriptable fake of the robot control service.
package robottest

import (
	"context"
	"sync"

	"github.com/2389/kachaka-mcp/internal/robot"
)

// Call is one recorded invocation.
type Call struct {
	Method string
	Args   []any
}

// Robot is a fake robot.Client. Zero values answer every command with
// Success=true and every query with the corresponding field.
// Populate fields before handing the fake to the code under test.
type Robot struct {
	mu    sync.Mutex
	calls []Call

	// Results overrides the Result of a command, keyed by method name.
	Results map[string]robot.Result
	// Errs makes the named method fail with the error.
	Errs map[string]error
	// Panics makes the named method panic with the value.
	Panics map[string]any

	Pose         robot.Pose
	Battery      robot.Battery
	State        robot.CommandState
	Command      robot.Command
	Version      string
	Serial       string
	Maps         []robot.MapInfo
	CurrentMapID string
	MapImage     robot.Image
	Locations    []robot.Location
	Shelves      []robot.Shelf
	Cameras      map[string]robot.Image // "front", "back", "tof"
	Scan         robot.LaserScan
	IMU          robot.IMU
	Odometry     robot.Odometry
	Objects      []robot.DetectedObject

	// Closed is set by Close.
	Closed bool
}

var _ robot.Client = (*Robot)(nil)

// New returns a fake with initialized override maps.
func New() *Robot {
	return &Robot{
		Results: make(map[string]robot.Result),
		Errs:    make(map[string]error),
		Panics:  make(map[string]any),
		Cameras: make(map[string]robot.Image),
	}
}

// Calls returns a copy of the recorded calls.
func (r *Robot) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (r *Robot) CallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call to method.
func (r *Robot) LastCall(method string) (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].Method == method {
			return r.calls[i], true
		}
	}
	return Call{}, false
}

// Close marks the fake closed.
func (r *Robot) Close() error {
	r.mu.Lock()
	r.Closed = true
	r.mu.Unlock()
	return nil
}

// IsClosed reports whether Close was called.
func (r *Robot) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Closed
}

// record logs the call and applies panic/error overrides.
func (r *Robot) record(method string, args ...any) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Method: method, Args: args})
	p, shouldPanic := r.Panics[method]
	err := r.Errs[method]
	r.mu.Unlock()

	if shouldPanic {
		panic(p)
	}
	return err
}

func (r *Robot) command(method string, args ...any) (robot.Result, error) {
	if err := r.record(method, args...); err != nil {
		return robot.Result{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.Results[method]; ok {
		return res, nil
	}
	return robot.Result{Success: true}, nil
}

func (r *Robot) MoveToLocation(_ context.Context, target string, wait bool) (robot.Result, error) {
	return r.command("MoveToLocation", target, wait)
}

func (r *Robot) MoveToPose(_ context.Context, x, y, yaw float64, wait bool) (robot.Result, error) {
	return r.command("MoveToPose", x, y, yaw, wait)
}

func (r *Robot) ReturnHome(_ context.Context, wait bool) (robot.Result, error) {
	return r.command("ReturnHome", wait)
}

func (r *Robot) MoveForward(_ context.Context, distance, speed float64, wait bool) (robot.Result, error) {
	return r.command("MoveForward", distance, speed, wait)
}

func (r *Robot) RotateInPlace(_ context.Context, angle float64, wait bool) (robot.Result, error) {
	return r.command("RotateInPlace", angle, wait)
}

func (r *Robot) SetRobotVelocity(_ context.Context, linear, angular float64) (robot.Result, error) {
	return r.command("SetRobotVelocity", linear, angular)
}

func (r *Robot) MoveShelf(_ context.Context, shelf, location string, wait bool) (robot.Result, error) {
	return r.command("MoveShelf", shelf, location, wait)
}

func (r *Robot) ReturnShelf(_ context.Context, shelf string, wait bool) (robot.Result, error) {
	return r.command("ReturnShelf", shelf, wait)
}

func (r *Robot) DockShelf(_ context.Context, wait bool) (robot.Result, error) {
	return r.command("DockShelf", wait)
}

func (r *Robot) UndockShelf(_ context.Context, wait bool) (robot.Result, error) {
	return r.command("UndockShelf", wait)
}

func (r *Robot) DockAnyShelfWithRegistration(_ context.Context, location string, dockForward, wait bool) (robot.Result, error) {
	return r.command("DockAnyShelfWithRegistration", location, dockForward, wait)
}

func (r *Robot) Speak(_ context.Context, text string, wait bool) (robot.Result, error) {
	return r.command("Speak", text, wait)
}

func (r *Robot) CancelCommand(_ context.Context) (robot.Result, robot.Command, error) {
	res, err := r.command("CancelCommand")
	if err != nil {
		return robot.Result{}, robot.Command{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return res, r.Command, nil
}

func (r *Robot) Proceed(_ context.Context) (robot.Result, error) {
	return r.command("Proceed")
}

func (r *Robot) Lock(_ context.Context, durationSec float64, wait bool) (robot.Result, error) {
	return r.command("Lock", durationSec, wait)
}

func (r *Robot) SetAutoHomingEnabled(_ context.Context, enable bool) (robot.Result, error) {
	return r.command("SetAutoHomingEnabled", enable)
}

func (r *Robot) SetManualControlEnabled(_ context.Context, enable bool) (robot.Result, error) {
	return r.command("SetManualControlEnabled", enable)
}

func (r *Robot) SetSpeakerVolume(_ context.Context, volume int) (robot.Result, error) {
	return r.command("SetSpeakerVolume", volume)
}

func (r *Robot) RestartRobot(_ context.Context) (robot.Result, error) {
	return r.command("RestartRobot")
}

func (r *Robot) SwitchMap(_ context.Context, mapID string) (robot.Result, error) {
	return r.command("SwitchMap", mapID)
}

func (r *Robot) ExportMap(_ context.Context, mapID, outputPath string) (robot.Result, error) {
	return r.command("ExportMap", mapID, outputPath)
}

func (r *Robot) ImportMap(_ context.Context, path string) (robot.Result, error) {
	return r.command("ImportMap", path)
}

func (r *Robot) SetRobotPose(_ context.Context, pose robot.Pose) (robot.Result, error) {
	return r.command("SetRobotPose", pose)
}

func (r *Robot) GetMapList(_ context.Context) ([]robot.MapInfo, error) {
	if err := r.record("GetMapList"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Maps, nil
}

func (r *Robot) GetCurrentMapID(_ context.Context) (string, error) {
	if err := r.record("GetCurrentMapID"); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.CurrentMapID, nil
}

func (r *Robot) GetPNGMap(_ context.Context) (robot.Image, error) {
	if err := r.record("GetPNGMap"); err != nil {
		return robot.Image{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.MapImage, nil
}

func (r *Robot) GetLocations(_ context.Context) ([]robot.Location, error) {
	if err := r.record("GetLocations"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Locations, nil
}

func (r *Robot) GetShelves(_ context.Context) ([]robot.Shelf, error) {
	if err := r.record("GetShelves"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Shelves, nil
}

func (r *Robot) GetRobotPose(_ context.Context) (robot.Pose, error) {
	if err := r.record("GetRobotPose"); err != nil {
		return robot.Pose{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Pose, nil
}

func (r *Robot) GetBatteryInfo(_ context.Context) (robot.Battery, error) {
	if err := r.record("GetBatteryInfo"); err != nil {
		return robot.Battery{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Battery, nil
}

func (r *Robot) GetCommandState(_ context.Context) (robot.CommandState, robot.Command, error) {
	if err := r.record("GetCommandState"); err != nil {
		return robot.CommandState{}, robot.Command{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.State, r.Command, nil
}

func (r *Robot) GetRobotVersion(_ context.Context) (string, error) {
	if err := r.record("GetRobotVersion"); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Version, nil
}

func (r *Robot) GetRobotSerialNumber(_ context.Context) (string, error) {
	if err := r.record("GetRobotSerialNumber"); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Serial, nil
}

func (r *Robot) camera(method, which string) (robot.Image, error) {
	if err := r.record(method); err != nil {
		return robot.Image{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Cameras[which], nil
}

func (r *Robot) GetFrontCameraImage(_ context.Context) (robot.Image, error) {
	return r.camera("GetFrontCameraImage", "front")
}

func (r *Robot) GetBackCameraImage(_ context.Context) (robot.Image, error) {
	return r.camera("GetBackCameraImage", "back")
}

func (r *Robot) GetTOFCameraImage(_ context.Context) (robot.Image, error) {
	return r.camera("GetTOFCameraImage", "tof")
}

func (r *Robot) GetLaserScan(_ context.Context) (robot.LaserScan, error) {
	if err := r.record("GetLaserScan"); err != nil {
		return robot.LaserScan{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Scan, nil
}

func (r *Robot) GetIMU(_ context.Context) (robot.IMU, error) {
	if err := r.record("GetIMU"); err != nil {
		return robot.IMU{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.IMU, nil
}

func (r *Robot) GetOdometry(_ context.Context) (robot.Odometry, error) {
	if err := r.record("GetOdometry"); err != nil {
		return robot.Odometry{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Odometry, nil
}

func (r *Robot) GetObjectDetection(_ context.Context) ([]robot.DetectedObject, error) {
	if err := r.record("GetObjectDetection"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Objects, nil
}
