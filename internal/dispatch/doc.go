// Package dispatch executes robot commands on behalf of MCP tool calls.
//
// # Overview
//
// Dispatcher has one method per robot capability. Each borrows the shared
// robot client from a ClientSource, issues one robot call and renders the
// outcome as text:
//
//	"Successfully moved to Kitchen"          robot reported success
//	"Failed to move to Kitchen: <message>"   robot reported failure
//	"Error: <error>"                         transport error, dial error or panic
//
// The wording is relied on by prompt text and clients; callers distinguish
// outcomes only by prefix. No method returns an error or panics.
//
// # Tool Groups
//
// Movement (movement):
//
//   - move_to_location, move_to_pose, return_home
//   - move_forward, rotate_in_place, set_robot_velocity
//
// Shelf (shelf):
//
//   - move_shelf, return_shelf, dock_shelf, undock_shelf
//   - dock_any_shelf_with_registration
//
// System (system):
//
//   - speak, cancel_command, proceed, lock
//   - set_auto_homing_enabled, set_manual_control_enabled
//   - set_speaker_volume, restart_robot
//
// Map (map):
//
//   - switch_map, export_map, import_map, set_robot_pose
//
// Packs returns the groups as packs.Pack values for registration. Tool
// handlers decode JSON arguments; a malformed or incomplete argument
// object yields "Error: invalid arguments: ...".
//
// # Waiting
//
// Navigation, shelf, speech and lock commands ask the robot to wait for
// completion, so the call returns when the robot reports a terminal state.
// set_robot_velocity and the settings commands return immediately.
//
// # Auditing
//
// WithRecorder attaches a Recorder that receives a CommandRecord after
// every command. Recorder failures are logged and otherwise ignored.
package dispatch
