// ABOUTME: Tests for the gRPC robot client against an in-process fake service.
// ABOUTME: Uses bufconn and an unknown-service handler speaking structpb.

package robot

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeService answers every method of the robot service from canned maps.
type fakeService struct {
	mu        sync.Mutex
	paths     []string
	requests  map[string]*structpb.Struct
	responses map[string]map[string]any
	errs      map[string]error
}

func (f *fakeService) handle(_ any, stream grpc.ServerStream) error {
	fullMethod, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return status.Error(codes.Internal, "no method")
	}
	name := strings.TrimPrefix(fullMethod, "/"+ServiceName+"/")

	in := &structpb.Struct{}
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	f.mu.Lock()
	f.paths = append(f.paths, fullMethod)
	f.requests[name] = in
	resp := f.responses[name]
	err := f.errs[name]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	out, err := structpb.NewStruct(resp)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return stream.SendMsg(out)
}

func (f *fakeService) request(name string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[name].AsMap()
}

func setupFakeRobot(t *testing.T) (*fakeService, *GRPCClient) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	fake := &fakeService{
		requests:  make(map[string]*structpb.Struct),
		responses: make(map[string]map[string]any),
		errs:      make(map[string]error),
	}
	srv := grpc.NewServer(grpc.UnknownServiceHandler(fake.handle))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///kachaka", DialOptions{
		Extra: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return fake, client
}

func okResponse() map[string]any {
	return map[string]any{"result": map[string]any{"success": true}}
}

func TestGRPCClient_Commands(t *testing.T) {
	t.Run("move to location forwards target and wait flag", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["MoveToLocation"] = okResponse()

		res, err := client.MoveToLocation(context.Background(), "Kitchen", true)
		require.NoError(t, err)
		assert.True(t, res.Success)

		req := fake.request("MoveToLocation")
		assert.Equal(t, "Kitchen", req["target"])
		assert.Equal(t, true, req["wait_for_completion"])
	})

	t.Run("robot-side failure is a result, not an error", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["MoveToLocation"] = map[string]any{
			"result": map[string]any{"success": false, "message": "obstacle detected"},
		}

		res, err := client.MoveToLocation(context.Background(), "Kitchen", true)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "obstacle detected", res.Message)
	})

	t.Run("response without result is an error", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["ReturnHome"] = map[string]any{}

		_, err := client.ReturnHome(context.Background(), true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyResponse))
	})

	t.Run("transport failure surfaces the status", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.errs["Speak"] = status.Error(codes.Unavailable, "robot offline")

		_, err := client.Speak(context.Background(), "hello", true)
		require.Error(t, err)
		assert.Equal(t, codes.Unavailable, status.Code(errors.Unwrap(err)))
		assert.Contains(t, err.Error(), "robot offline")
	})

	t.Run("set robot pose nests the pose", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["SetRobotPose"] = okResponse()

		_, err := client.SetRobotPose(context.Background(), Pose{X: 1.5, Y: -2, Yaw: 0.25})
		require.NoError(t, err)

		pose, _ := fake.request("SetRobotPose")["pose"].(map[string]any)
		assert.Equal(t, 1.5, pose["x"])
		assert.Equal(t, -2.0, pose["y"])
		assert.Equal(t, 0.25, pose["yaw"])
	})

	t.Run("cancel reports the cancelled command", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["CancelCommand"] = map[string]any{
			"result":  map[string]any{"success": true},
			"command": map[string]any{"type": "move_to_location_command"},
		}

		res, cmd, err := client.CancelCommand(context.Background())
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "move_to_location_command", cmd.Type)
	})

	t.Run("volume is sent as a number", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["SetSpeakerVolume"] = okResponse()

		_, err := client.SetSpeakerVolume(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, 7.0, fake.request("SetSpeakerVolume")["volume"])
	})
}

func TestGRPCClient_Queries(t *testing.T) {
	t.Run("locations", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["GetLocations"] = map[string]any{
			"locations": []any{
				map[string]any{
					"id":   "L01",
					"name": "Kitchen",
					"pose": map[string]any{"x": 1.0, "y": 2.0, "yaw": 0.5},
					"type": "LOCATION_TYPE_DEFAULT",
				},
			},
		}

		locs, err := client.GetLocations(context.Background())
		require.NoError(t, err)
		require.Len(t, locs, 1)
		assert.Equal(t, Location{
			ID:   "L01",
			Name: "Kitchen",
			Pose: Pose{X: 1, Y: 2, Yaw: 0.5},
			Type: "LOCATION_TYPE_DEFAULT",
		}, locs[0])
	})

	t.Run("png map is base64 decoded", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["GetPngMap"] = map[string]any{
			"data":   base64.StdEncoding.EncodeToString([]byte("\x89PNG")),
			"format": "png",
		}

		img, err := client.GetPNGMap(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), img.Data)
		assert.Equal(t, "png", img.Format)
	})

	t.Run("image without data is an error", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["GetFrontCameraRosCompressedImage"] = map[string]any{"format": "jpeg"}

		_, err := client.GetFrontCameraImage(context.Background())
		assert.True(t, errors.Is(err, ErrEmptyResponse))
	})

	t.Run("battery defaults unknown status", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["GetBatteryInfo"] = map[string]any{"remaining_percentage": 87.0}

		battery, err := client.GetBatteryInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 87.0, battery.Percentage)
		assert.Equal(t, PowerSupplyUnknown, battery.Status)
	})

	t.Run("odometry nests pose and twist", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["GetRosOdometry"] = map[string]any{
			"pose": map[string]any{
				"position":    map[string]any{"x": 1.0, "y": 2.0, "z": 0.0},
				"orientation": map[string]any{"x": 0.0, "y": 0.0, "z": 0.7, "w": 0.7},
			},
			"twist": map[string]any{
				"linear":  map[string]any{"x": 0.3},
				"angular": map[string]any{"z": 0.1},
			},
		}

		odom, err := client.GetOdometry(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Vector3{X: 1, Y: 2}, odom.Position)
		assert.Equal(t, 0.7, odom.Orientation.W)
		assert.Equal(t, 0.3, odom.LinearVelocity.X)
		assert.Equal(t, 0.1, odom.AngularVelocity.Z)
	})

	t.Run("laser scan arrays", func(t *testing.T) {
		fake, client := setupFakeRobot(t)
		fake.responses["GetRosLaserScan"] = map[string]any{
			"angle_min": -3.14,
			"range_max": 10.0,
			"ranges":    []any{1.0, 2.5},
		}

		scan, err := client.GetLaserScan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, -3.14, scan.AngleMin)
		assert.Equal(t, []float64{1, 2.5}, scan.Ranges)
		assert.Empty(t, scan.Intensities)
	})
}

func TestGRPCClient_Close(t *testing.T) {
	_, client := setupFakeRobot(t)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.GetRobotSerialNumber(context.Background())
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestGRPCClient_WireContract(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		method string
		call   func(c *GRPCClient) error
		fields []string
	}{
		{"MoveToLocation", func(c *GRPCClient) error { _, err := c.MoveToLocation(ctx, "L01", true); return err }, []string{"target", "wait_for_completion"}},
		{"MoveToPose", func(c *GRPCClient) error { _, err := c.MoveToPose(ctx, 1, 2, 0.5, true); return err }, []string{"wait_for_completion", "x", "y", "yaw"}},
		{"ReturnHome", func(c *GRPCClient) error { _, err := c.ReturnHome(ctx, true); return err }, []string{"wait_for_completion"}},
		{"MoveForward", func(c *GRPCClient) error { _, err := c.MoveForward(ctx, 1, 0.3, true); return err }, []string{"distance_meter", "speed", "wait_for_completion"}},
		{"RotateInPlace", func(c *GRPCClient) error { _, err := c.RotateInPlace(ctx, 1.57, true); return err }, []string{"angle_radian", "wait_for_completion"}},
		{"SetRobotVelocity", func(c *GRPCClient) error { _, err := c.SetRobotVelocity(ctx, 0.2, 0.1); return err }, []string{"angular", "linear"}},
		{"MoveShelf", func(c *GRPCClient) error { _, err := c.MoveShelf(ctx, "S01", "L01", true); return err }, []string{"location", "shelf", "wait_for_completion"}},
		{"ReturnShelf", func(c *GRPCClient) error { _, err := c.ReturnShelf(ctx, "S01", true); return err }, []string{"shelf", "wait_for_completion"}},
		{"DockShelf", func(c *GRPCClient) error { _, err := c.DockShelf(ctx, true); return err }, []string{"wait_for_completion"}},
		{"UndockShelf", func(c *GRPCClient) error { _, err := c.UndockShelf(ctx, true); return err }, []string{"wait_for_completion"}},
		{"DockAnyShelfWithRegistration", func(c *GRPCClient) error {
			_, err := c.DockAnyShelfWithRegistration(ctx, "L01", true, true)
			return err
		}, []string{"dock_forward", "location", "wait_for_completion"}},
		{"Speak", func(c *GRPCClient) error { _, err := c.Speak(ctx, "hi", true); return err }, []string{"text", "wait_for_completion"}},
		{"CancelCommand", func(c *GRPCClient) error { _, _, err := c.CancelCommand(ctx); return err }, []string{}},
		{"Proceed", func(c *GRPCClient) error { _, err := c.Proceed(ctx); return err }, []string{}},
		{"Lock", func(c *GRPCClient) error { _, err := c.Lock(ctx, 5, true); return err }, []string{"duration_sec", "wait_for_completion"}},
		{"SetAutoHomingEnabled", func(c *GRPCClient) error { _, err := c.SetAutoHomingEnabled(ctx, true); return err }, []string{"enable"}},
		{"SetManualControlEnabled", func(c *GRPCClient) error { _, err := c.SetManualControlEnabled(ctx, true); return err }, []string{"enable"}},
		{"SetSpeakerVolume", func(c *GRPCClient) error { _, err := c.SetSpeakerVolume(ctx, 5); return err }, []string{"volume"}},
		{"RestartRobot", func(c *GRPCClient) error { _, err := c.RestartRobot(ctx); return err }, []string{}},
		{"SwitchMap", func(c *GRPCClient) error { _, err := c.SwitchMap(ctx, "M01"); return err }, []string{"map_id"}},
		{"ExportMap", func(c *GRPCClient) error { _, err := c.ExportMap(ctx, "M01", "/tmp/m"); return err }, []string{"map_id", "output_file_path"}},
		{"ImportMap", func(c *GRPCClient) error { _, err := c.ImportMap(ctx, "/tmp/m"); return err }, []string{"target_file_path"}},
		{"SetRobotPose", func(c *GRPCClient) error { _, err := c.SetRobotPose(ctx, Pose{}); return err }, []string{"pose"}},
		{"GetMapList", func(c *GRPCClient) error { _, err := c.GetMapList(ctx); return err }, []string{}},
		{"GetCurrentMapId", func(c *GRPCClient) error { _, err := c.GetCurrentMapID(ctx); return err }, []string{}},
		{"GetPngMap", func(c *GRPCClient) error { _, err := c.GetPNGMap(ctx); return err }, []string{}},
		{"GetLocations", func(c *GRPCClient) error { _, err := c.GetLocations(ctx); return err }, []string{}},
		{"GetShelves", func(c *GRPCClient) error { _, err := c.GetShelves(ctx); return err }, []string{}},
		{"GetRobotPose", func(c *GRPCClient) error { _, err := c.GetRobotPose(ctx); return err }, []string{}},
		{"GetBatteryInfo", func(c *GRPCClient) error { _, err := c.GetBatteryInfo(ctx); return err }, []string{}},
		{"GetCommandState", func(c *GRPCClient) error { _, _, err := c.GetCommandState(ctx); return err }, []string{}},
		{"GetRobotVersion", func(c *GRPCClient) error { _, err := c.GetRobotVersion(ctx); return err }, []string{}},
		{"GetRobotSerialNumber", func(c *GRPCClient) error { _, err := c.GetRobotSerialNumber(ctx); return err }, []string{}},
		{"GetFrontCameraRosCompressedImage", func(c *GRPCClient) error { _, err := c.GetFrontCameraImage(ctx); return err }, []string{}},
		{"GetBackCameraRosCompressedImage", func(c *GRPCClient) error { _, err := c.GetBackCameraImage(ctx); return err }, []string{}},
		{"GetTofCameraRosCompressedImage", func(c *GRPCClient) error { _, err := c.GetTOFCameraImage(ctx); return err }, []string{}},
		{"GetRosLaserScan", func(c *GRPCClient) error { _, err := c.GetLaserScan(ctx); return err }, []string{}},
		{"GetRosImu", func(c *GRPCClient) error { _, err := c.GetIMU(ctx); return err }, []string{}},
		{"GetRosOdometry", func(c *GRPCClient) error { _, err := c.GetOdometry(ctx); return err }, []string{}},
		{"GetObjectDetection", func(c *GRPCClient) error { _, err := c.GetObjectDetection(ctx); return err }, []string{}},
	}

	assert.Equal(t, "kachaka.bridge.v1.RobotBridge", ServiceName)

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			fake, client := setupFakeRobot(t)
			fake.errs[tt.method] = status.Error(codes.Unimplemented, "not served")

			err := tt.call(client)
			assert.Equal(t, codes.Unimplemented, status.Code(errors.Unwrap(err)))

			fake.mu.Lock()
			paths := fake.paths
			fake.mu.Unlock()
			assert.Equal(t, []string{"/kachaka.bridge.v1.RobotBridge/" + tt.method}, paths)

			fields := make([]string, 0)
			for k := range fake.request(tt.method) {
				fields = append(fields, k)
			}
			sort.Strings(fields)
			assert.Equal(t, tt.fields, fields)
		})
	}
}
