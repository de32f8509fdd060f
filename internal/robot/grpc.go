// ABOUTME: gRPC implementation of the robot Client over a single ClientConn.
// ABOUTME: Speaks the Struct-based bridge contract, not the native kachaka_api proto.

package robot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service of the bridge contract.
const ServiceName = "kachaka.bridge.v1.RobotBridge"

// DefaultPort is the port a bridge listens on unless configured otherwise.
const DefaultPort = "26400"

// maxRecvMsgSize leaves headroom for uncompressed map and camera frames.
const maxRecvMsgSize = 32 << 20

// DialOptions configures Dial.
type DialOptions struct {
	// Keepalive is the interval between client keepalive pings. Zero uses 30s.
	Keepalive time.Duration
	// Extra options appended after the defaults (tests inject a bufconn dialer here).
	Extra []grpc.DialOption
}

// GRPCClient talks to a robot bridge. It is safe for concurrent use.
type GRPCClient struct {
	target string
	conn   *grpc.ClientConn
	closed atomic.Bool
}

// Dial creates a client bound to target (host:port). The connection is
// established lazily on the first RPC.
func Dial(target string, opts DialOptions) (*GRPCClient, error) {
	ka := opts.Keepalive
	if ka == 0 {
		ka = 30 * time.Second
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                ka,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvMsgSize)),
	}
	dialOpts = append(dialOpts, opts.Extra...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating robot client for %s: %w", target, err)
	}
	return &GRPCClient{target: target, conn: conn}, nil
}

// Target returns the address the client is bound to.
func (c *GRPCClient) Target() string {
	return c.target
}

// Close releases the underlying connection. Safe to call multiple times.
func (c *GRPCClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// call performs one unary RPC.
func (c *GRPCClient) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	if c.closed.Load() {
		return nil, ErrNotConnected
	}

	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

// command performs an RPC whose response carries a Result.
func (c *GRPCClient) command(ctx context.Context, method string, req map[string]any) (Result, error) {
	out, err := c.call(ctx, method, req)
	if err != nil {
		return Result{}, err
	}
	return decodeResult(method, out)
}

// Movement

func (c *GRPCClient) MoveToLocation(ctx context.Context, target string, wait bool) (Result, error) {
	return c.command(ctx, "MoveToLocation", map[string]any{
		"target":              target,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) MoveToPose(ctx context.Context, x, y, yaw float64, wait bool) (Result, error) {
	return c.command(ctx, "MoveToPose", map[string]any{
		"x":                   x,
		"y":                   y,
		"yaw":                 yaw,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) ReturnHome(ctx context.Context, wait bool) (Result, error) {
	return c.command(ctx, "ReturnHome", map[string]any{"wait_for_completion": wait})
}

func (c *GRPCClient) MoveForward(ctx context.Context, distance, speed float64, wait bool) (Result, error) {
	return c.command(ctx, "MoveForward", map[string]any{
		"distance_meter":      distance,
		"speed":               speed,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) RotateInPlace(ctx context.Context, angle float64, wait bool) (Result, error) {
	return c.command(ctx, "RotateInPlace", map[string]any{
		"angle_radian":        angle,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) SetRobotVelocity(ctx context.Context, linear, angular float64) (Result, error) {
	return c.command(ctx, "SetRobotVelocity", map[string]any{
		"linear":  linear,
		"angular": angular,
	})
}

// Shelves

func (c *GRPCClient) MoveShelf(ctx context.Context, shelf, location string, wait bool) (Result, error) {
	return c.command(ctx, "MoveShelf", map[string]any{
		"shelf":               shelf,
		"location":            location,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) ReturnShelf(ctx context.Context, shelf string, wait bool) (Result, error) {
	return c.command(ctx, "ReturnShelf", map[string]any{
		"shelf":               shelf,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) DockShelf(ctx context.Context, wait bool) (Result, error) {
	return c.command(ctx, "DockShelf", map[string]any{"wait_for_completion": wait})
}

func (c *GRPCClient) UndockShelf(ctx context.Context, wait bool) (Result, error) {
	return c.command(ctx, "UndockShelf", map[string]any{"wait_for_completion": wait})
}

func (c *GRPCClient) DockAnyShelfWithRegistration(ctx context.Context, location string, dockForward, wait bool) (Result, error) {
	return c.command(ctx, "DockAnyShelfWithRegistration", map[string]any{
		"location":            location,
		"dock_forward":        dockForward,
		"wait_for_completion": wait,
	})
}

// System

func (c *GRPCClient) Speak(ctx context.Context, text string, wait bool) (Result, error) {
	return c.command(ctx, "Speak", map[string]any{
		"text":                text,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) CancelCommand(ctx context.Context) (Result, Command, error) {
	out, err := c.call(ctx, "CancelCommand", nil)
	if err != nil {
		return Result{}, Command{}, err
	}
	res, err := decodeResult("CancelCommand", out)
	if err != nil {
		return Result{}, Command{}, err
	}
	return res, decodeCommand(out), nil
}

func (c *GRPCClient) Proceed(ctx context.Context) (Result, error) {
	return c.command(ctx, "Proceed", nil)
}

func (c *GRPCClient) Lock(ctx context.Context, durationSec float64, wait bool) (Result, error) {
	return c.command(ctx, "Lock", map[string]any{
		"duration_sec":        durationSec,
		"wait_for_completion": wait,
	})
}

func (c *GRPCClient) SetAutoHomingEnabled(ctx context.Context, enable bool) (Result, error) {
	return c.command(ctx, "SetAutoHomingEnabled", map[string]any{"enable": enable})
}

func (c *GRPCClient) SetManualControlEnabled(ctx context.Context, enable bool) (Result, error) {
	return c.command(ctx, "SetManualControlEnabled", map[string]any{"enable": enable})
}

func (c *GRPCClient) SetSpeakerVolume(ctx context.Context, volume int) (Result, error) {
	return c.command(ctx, "SetSpeakerVolume", map[string]any{"volume": volume})
}

func (c *GRPCClient) RestartRobot(ctx context.Context) (Result, error) {
	return c.command(ctx, "RestartRobot", nil)
}

// Maps

func (c *GRPCClient) SwitchMap(ctx context.Context, mapID string) (Result, error) {
	return c.command(ctx, "SwitchMap", map[string]any{"map_id": mapID})
}

func (c *GRPCClient) ExportMap(ctx context.Context, mapID, outputPath string) (Result, error) {
	return c.command(ctx, "ExportMap", map[string]any{
		"map_id":           mapID,
		"output_file_path": outputPath,
	})
}

func (c *GRPCClient) ImportMap(ctx context.Context, path string) (Result, error) {
	return c.command(ctx, "ImportMap", map[string]any{"target_file_path": path})
}

func (c *GRPCClient) SetRobotPose(ctx context.Context, pose Pose) (Result, error) {
	return c.command(ctx, "SetRobotPose", map[string]any{
		"pose": map[string]any{"x": pose.X, "y": pose.Y, "yaw": pose.Yaw},
	})
}

func (c *GRPCClient) GetMapList(ctx context.Context) ([]MapInfo, error) {
	out, err := c.call(ctx, "GetMapList", nil)
	if err != nil {
		return nil, err
	}
	var maps []MapInfo
	for _, v := range list(out, "maps") {
		f := v.GetStructValue().GetFields()
		maps = append(maps, MapInfo{
			ID:        str(f, "id"),
			Name:      str(f, "name"),
			CreatedAt: str(f, "created_at"),
		})
	}
	return maps, nil
}

func (c *GRPCClient) GetCurrentMapID(ctx context.Context) (string, error) {
	out, err := c.call(ctx, "GetCurrentMapId", nil)
	if err != nil {
		return "", err
	}
	return str(out.GetFields(), "id"), nil
}

func (c *GRPCClient) GetPNGMap(ctx context.Context) (Image, error) {
	return c.image(ctx, "GetPngMap")
}

func (c *GRPCClient) GetLocations(ctx context.Context) ([]Location, error) {
	out, err := c.call(ctx, "GetLocations", nil)
	if err != nil {
		return nil, err
	}
	var locs []Location
	for _, v := range list(out, "locations") {
		f := v.GetStructValue().GetFields()
		locs = append(locs, Location{
			ID:   str(f, "id"),
			Name: str(f, "name"),
			Pose: decodePose(f["pose"]),
			Type: str(f, "type"),
		})
	}
	return locs, nil
}

func (c *GRPCClient) GetShelves(ctx context.Context) ([]Shelf, error) {
	out, err := c.call(ctx, "GetShelves", nil)
	if err != nil {
		return nil, err
	}
	var shelves []Shelf
	for _, v := range list(out, "shelves") {
		f := v.GetStructValue().GetFields()
		shelves = append(shelves, Shelf{
			ID:             str(f, "id"),
			Name:           str(f, "name"),
			Pose:           decodePose(f["pose"]),
			HomeLocationID: str(f, "home_location_id"),
		})
	}
	return shelves, nil
}

// Status

func (c *GRPCClient) GetRobotPose(ctx context.Context) (Pose, error) {
	out, err := c.call(ctx, "GetRobotPose", nil)
	if err != nil {
		return Pose{}, err
	}
	pose, ok := out.GetFields()["pose"]
	if !ok {
		return Pose{}, fmt.Errorf("GetRobotPose: %w", ErrEmptyResponse)
	}
	return decodePose(pose), nil
}

func (c *GRPCClient) GetBatteryInfo(ctx context.Context) (Battery, error) {
	out, err := c.call(ctx, "GetBatteryInfo", nil)
	if err != nil {
		return Battery{}, err
	}
	f := out.GetFields()
	status := PowerSupplyStatus(str(f, "power_supply_status"))
	if status == "" {
		status = PowerSupplyUnknown
	}
	return Battery{Percentage: num(f, "remaining_percentage"), Status: status}, nil
}

func (c *GRPCClient) GetCommandState(ctx context.Context) (CommandState, Command, error) {
	out, err := c.call(ctx, "GetCommandState", nil)
	if err != nil {
		return CommandState{}, Command{}, err
	}
	f := out.GetFields()
	state := CommandState{State: str(f, "state"), CommandID: str(f, "command_id")}
	return state, decodeCommand(out), nil
}

func (c *GRPCClient) GetRobotVersion(ctx context.Context) (string, error) {
	out, err := c.call(ctx, "GetRobotVersion", nil)
	if err != nil {
		return "", err
	}
	return str(out.GetFields(), "version"), nil
}

func (c *GRPCClient) GetRobotSerialNumber(ctx context.Context) (string, error) {
	out, err := c.call(ctx, "GetRobotSerialNumber", nil)
	if err != nil {
		return "", err
	}
	return str(out.GetFields(), "serial_number"), nil
}

// Sensors

func (c *GRPCClient) GetFrontCameraImage(ctx context.Context) (Image, error) {
	return c.image(ctx, "GetFrontCameraRosCompressedImage")
}

func (c *GRPCClient) GetBackCameraImage(ctx context.Context) (Image, error) {
	return c.image(ctx, "GetBackCameraRosCompressedImage")
}

func (c *GRPCClient) GetTOFCameraImage(ctx context.Context) (Image, error) {
	return c.image(ctx, "GetTofCameraRosCompressedImage")
}

func (c *GRPCClient) GetLaserScan(ctx context.Context) (LaserScan, error) {
	out, err := c.call(ctx, "GetRosLaserScan", nil)
	if err != nil {
		return LaserScan{}, err
	}
	f := out.GetFields()
	return LaserScan{
		AngleMin:       num(f, "angle_min"),
		AngleMax:       num(f, "angle_max"),
		AngleIncrement: num(f, "angle_increment"),
		TimeIncrement:  num(f, "time_increment"),
		ScanTime:       num(f, "scan_time"),
		RangeMin:       num(f, "range_min"),
		RangeMax:       num(f, "range_max"),
		Ranges:         nums(out, "ranges"),
		Intensities:    nums(out, "intensities"),
	}, nil
}

func (c *GRPCClient) GetIMU(ctx context.Context) (IMU, error) {
	out, err := c.call(ctx, "GetRosImu", nil)
	if err != nil {
		return IMU{}, err
	}
	f := out.GetFields()
	return IMU{
		Orientation:        decodeQuaternion(f["orientation"]),
		AngularVelocity:    decodeVector3(f["angular_velocity"]),
		LinearAcceleration: decodeVector3(f["linear_acceleration"]),
	}, nil
}

func (c *GRPCClient) GetOdometry(ctx context.Context) (Odometry, error) {
	out, err := c.call(ctx, "GetRosOdometry", nil)
	if err != nil {
		return Odometry{}, err
	}
	pose := out.GetFields()["pose"].GetStructValue().GetFields()
	twist := out.GetFields()["twist"].GetStructValue().GetFields()
	return Odometry{
		Position:        decodeVector3(pose["position"]),
		Orientation:     decodeQuaternion(pose["orientation"]),
		LinearVelocity:  decodeVector3(twist["linear"]),
		AngularVelocity: decodeVector3(twist["angular"]),
	}, nil
}

func (c *GRPCClient) GetObjectDetection(ctx context.Context) ([]DetectedObject, error) {
	out, err := c.call(ctx, "GetObjectDetection", nil)
	if err != nil {
		return nil, err
	}
	var objects []DetectedObject
	for _, v := range list(out, "objects") {
		f := v.GetStructValue().GetFields()
		bbox := f["bbox"].GetStructValue().GetFields()
		objects = append(objects, DetectedObject{
			ID:    str(f, "id"),
			Label: str(f, "label"),
			Score: num(f, "score"),
			BBox: BoundingBox{
				X:      num(bbox, "x"),
				Y:      num(bbox, "y"),
				Width:  num(bbox, "width"),
				Height: num(bbox, "height"),
			},
		})
	}
	return objects, nil
}

// image fetches a compressed frame from method.
func (c *GRPCClient) image(ctx context.Context, method string) (Image, error) {
	out, err := c.call(ctx, method, nil)
	if err != nil {
		return Image{}, err
	}
	return decodeImage(method, out)
}
