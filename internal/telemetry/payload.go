// ABOUTME: JSON shapes of the telemetry resources
// ABOUTME: Field order matches the published payloads

package telemetry

import (
	"encoding/json"
	"math"

	"github.com/2389/kachaka-mcp/internal/robot"
)

// number is a float64 that encodes NaN and ±Inf as null. Sensors report a
// beam with no return as +Inf, which encoding/json rejects.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// numbers converts a reading array. A nil input yields an empty slice.
func numbers(in []float64) []number {
	out := make([]number, len(in))
	for i, f := range in {
		out[i] = number(f)
	}
	return out
}

type posePayload struct {
	X   number `json:"x"`
	Y   number `json:"y"`
	Yaw number `json:"yaw"`
}

func newPose(p robot.Pose) posePayload {
	return posePayload{X: number(p.X), Y: number(p.Y), Yaw: number(p.Yaw)}
}

type batteryPayload struct {
	Percentage number `json:"percentage"`
	Status     string `json:"status"`
}

// commandPayload.Type is null when the command slot is empty.
type commandPayload struct {
	Type *string `json:"type"`
	ID   string  `json:"id"`
}

func newCommand(state robot.CommandState, cmd robot.Command) commandPayload {
	p := commandPayload{ID: state.CommandID}
	if cmd.Type != "" {
		t := cmd.Type
		p.Type = &t
	}
	return p
}

type statusPayload struct {
	Pose         posePayload    `json:"pose"`
	Battery      batteryPayload `json:"battery"`
	CommandState string         `json:"command_state"`
	Command      commandPayload `json:"command"`
}

type commandStatePayload struct {
	State   string         `json:"state"`
	Command commandPayload `json:"command"`
}

type locationPayload struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Pose posePayload `json:"pose"`
	Type string      `json:"type"`
}

type shelfPayload struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Pose           posePayload `json:"pose"`
	HomeLocationID string      `json:"home_location_id"`
}

type mapPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	IsCurrent bool   `json:"is_current"`
}

type laserPayload struct {
	AngleMin       number   `json:"angle_min"`
	AngleMax       number   `json:"angle_max"`
	AngleIncrement number   `json:"angle_increment"`
	TimeIncrement  number   `json:"time_increment"`
	ScanTime       number   `json:"scan_time"`
	RangeMin       number   `json:"range_min"`
	RangeMax       number   `json:"range_max"`
	Ranges         []number `json:"ranges"`
	Intensities    []number `json:"intensities"`
}

type vectorPayload struct {
	X number `json:"x"`
	Y number `json:"y"`
	Z number `json:"z"`
}

func newVector(v robot.Vector3) vectorPayload {
	return vectorPayload{X: number(v.X), Y: number(v.Y), Z: number(v.Z)}
}

type quaternionPayload struct {
	X number `json:"x"`
	Y number `json:"y"`
	Z number `json:"z"`
	W number `json:"w"`
}

func newQuaternion(q robot.Quaternion) quaternionPayload {
	return quaternionPayload{X: number(q.X), Y: number(q.Y), Z: number(q.Z), W: number(q.W)}
}

type imuPayload struct {
	Orientation        quaternionPayload `json:"orientation"`
	AngularVelocity    vectorPayload     `json:"angular_velocity"`
	LinearAcceleration vectorPayload     `json:"linear_acceleration"`
}

type odometryPayload struct {
	Pose struct {
		Position    vectorPayload     `json:"position"`
		Orientation quaternionPayload `json:"orientation"`
	} `json:"pose"`
	Twist struct {
		Linear  vectorPayload `json:"linear"`
		Angular vectorPayload `json:"angular"`
	} `json:"twist"`
}

type bboxPayload struct {
	X      number `json:"x"`
	Y      number `json:"y"`
	Width  number `json:"width"`
	Height number `json:"height"`
}

type detectionPayload struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Score number      `json:"score"`
	BBox  bboxPayload `json:"bbox"`
}
