// Package robot is the client side of the Kachaka robot control surface.
//
// # Overview
//
// This package defines the Client contract the rest of kachaka-mcp programs
// against and GRPCClient, a gRPC implementation of it.
//
// # Wire contract
//
// GRPCClient does not speak the robot's native kachaka_api protobuf service.
// It speaks a bridge contract: unary RPCs on the service named by ServiceName
// whose requests and responses are google.protobuf.Struct messages. Method
// and field names follow the native API (MoveToLocation with target and
// wait_for_completion, GetRosLaserScan, and so on), and command responses
// carry {"result": {"success", "message"}}. Image bytes travel base64 encoded
// in a "data" field.
//
// Pointed directly at a robot, every call fails with codes.Unimplemented. A
// deployment either runs a bridge next to the robot that translates this
// contract to kachaka_api, or supplies its own Client backed by generated
// kachaka_api stubs through the session factory.
//
// # Interfaces
//
// Client is composed from small capability interfaces so that consumers can
// depend only on what they use:
//
//   - Mover: navigation and base motion
//   - ShelfHandler: shelf transport and docking
//   - SystemController: speech, command control, robot settings
//   - MapManager: map switching, import/export, locations and shelves
//   - StatusReader: pose, battery, command state, version, serial
//   - SensorReader: cameras, laser scan, IMU, odometry, object detection
//
// # Results
//
// Commands return a Result carrying the robot's own verdict. A returned error
// always means the call did not complete (transport failure, malformed
// response); a Result with Success=false means the robot ran the command and
// refused or failed it.
//
// # Waiting
//
// Blocking commands take a wait flag that is forwarded to the robot as
// wait_for_completion. When set the robot holds the RPC open until the command
// reaches a terminal state; nothing in this package polls or sleeps.
//
// # Concurrency
//
// GRPCClient wraps a single *grpc.ClientConn and is safe for concurrent use by
// multiple goroutines.
package robot
