// ABOUTME: Capability interfaces for the robot control service client.
// ABOUTME: Client composes them; GRPCClient is the production implementation.

package robot

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by a client whose connection has been closed.
var ErrNotConnected = errors.New("robot client not connected")

// ErrEmptyResponse is returned when the robot answers without a payload.
var ErrEmptyResponse = errors.New("empty response from robot")

// Mover provides navigation and base motion.
type Mover interface {
	MoveToLocation(ctx context.Context, target string, wait bool) (Result, error)
	MoveToPose(ctx context.Context, x, y, yaw float64, wait bool) (Result, error)
	ReturnHome(ctx context.Context, wait bool) (Result, error)
	MoveForward(ctx context.Context, distance, speed float64, wait bool) (Result, error)
	RotateInPlace(ctx context.Context, angle float64, wait bool) (Result, error)
	// SetRobotVelocity is fire-and-forget; the robot keeps the velocity
	// until it is replaced or times out on its own.
	SetRobotVelocity(ctx context.Context, linear, angular float64) (Result, error)
}

// ShelfHandler provides shelf transport and docking.
type ShelfHandler interface {
	MoveShelf(ctx context.Context, shelf, location string, wait bool) (Result, error)
	// ReturnShelf returns the named shelf home. An empty name means the shelf
	// currently docked to the robot.
	ReturnShelf(ctx context.Context, shelf string, wait bool) (Result, error)
	DockShelf(ctx context.Context, wait bool) (Result, error)
	UndockShelf(ctx context.Context, wait bool) (Result, error)
	DockAnyShelfWithRegistration(ctx context.Context, location string, dockForward, wait bool) (Result, error)
}

// SystemController provides speech, command slot control and settings.
type SystemController interface {
	Speak(ctx context.Context, text string, wait bool) (Result, error)
	// CancelCommand cancels the running command and reports which command
	// was cancelled.
	CancelCommand(ctx context.Context) (Result, Command, error)
	Proceed(ctx context.Context) (Result, error)
	Lock(ctx context.Context, durationSec float64, wait bool) (Result, error)
	SetAutoHomingEnabled(ctx context.Context, enable bool) (Result, error)
	SetManualControlEnabled(ctx context.Context, enable bool) (Result, error)
	SetSpeakerVolume(ctx context.Context, volume int) (Result, error)
	RestartRobot(ctx context.Context) (Result, error)
}

// MapManager provides map management and the map-scoped registries.
type MapManager interface {
	SwitchMap(ctx context.Context, mapID string) (Result, error)
	ExportMap(ctx context.Context, mapID, outputPath string) (Result, error)
	ImportMap(ctx context.Context, path string) (Result, error)
	// SetRobotPose overrides the localized pose without moving.
	SetRobotPose(ctx context.Context, pose Pose) (Result, error)
	GetMapList(ctx context.Context) ([]MapInfo, error)
	GetCurrentMapID(ctx context.Context) (string, error)
	GetPNGMap(ctx context.Context) (Image, error)
	GetLocations(ctx context.Context) ([]Location, error)
	GetShelves(ctx context.Context) ([]Shelf, error)
}

// StatusReader provides robot status queries.
type StatusReader interface {
	GetRobotPose(ctx context.Context) (Pose, error)
	GetBatteryInfo(ctx context.Context) (Battery, error)
	GetCommandState(ctx context.Context) (CommandState, Command, error)
	GetRobotVersion(ctx context.Context) (string, error)
	GetRobotSerialNumber(ctx context.Context) (string, error)
}

// SensorReader provides raw sensor queries.
type SensorReader interface {
	GetFrontCameraImage(ctx context.Context) (Image, error)
	GetBackCameraImage(ctx context.Context) (Image, error)
	GetTOFCameraImage(ctx context.Context) (Image, error)
	GetLaserScan(ctx context.Context) (LaserScan, error)
	GetIMU(ctx context.Context) (IMU, error)
	GetOdometry(ctx context.Context) (Odometry, error)
	GetObjectDetection(ctx context.Context) ([]DetectedObject, error)
}

// Client is the full robot control surface.
type Client interface {
	Mover
	ShelfHandler
	SystemController
	MapManager
	StatusReader
	SensorReader
}

// Ensure GRPCClient implements Client
var _ Client = (*GRPCClient)(nil)
