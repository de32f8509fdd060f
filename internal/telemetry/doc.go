// Package telemetry reads robot status, map and sensor data and serializes
// it as MCP resource content.
//
// Every read yields a Result and never an error: JSON payloads, raw text for
// version and serial, image bytes for the map and cameras, or the error
// payload {"error": "<message>"}. Image reads that fail return a 400x100
// solid red PNG instead, so image consumers always receive a decodable image.
//
// Resources:
//
//	robot://status                  pose, battery and command state
//	robot://version                 software version (text)
//	robot://serial                  serial number (text)
//	robot://command                 current command state
//	map://current                   active map (PNG)
//	map://locations[/{location_id}] locations, or one by id or name
//	map://shelves[/{shelf_id}]      shelves, or one by id or name
//	map://list                      maps with is_current
//	sensors://camera/{front,back,tof}
//	sensors://laser, sensors://imu, sensors://odometry,
//	sensors://object_detection
//	audit://commands                recent commands, when a log is attached
package telemetry
