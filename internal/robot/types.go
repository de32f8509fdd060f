// ABOUTME: Value types exchanged with the robot control service.
// ABOUTME: Poses, records, sensor frames and command results.

package robot

// Result is the robot's verdict on a command.
type Result struct {
	Success bool
	Message string
}

// Pose is a planar pose on the active map. Yaw is in radians.
type Pose struct {
	X   float64
	Y   float64
	Yaw float64
}

// PowerSupplyStatus describes the charger state reported with the battery level.
type PowerSupplyStatus string

const (
	PowerSupplyCharging    PowerSupplyStatus = "CHARGING"
	PowerSupplyDischarging PowerSupplyStatus = "DISCHARGING"
	PowerSupplyUnknown     PowerSupplyStatus = "UNKNOWN"
)

// Battery is the battery level (0-100) and charging status.
type Battery struct {
	Percentage float64
	Status     PowerSupplyStatus
}

// CommandState is the execution state of the robot's command slot.
type CommandState struct {
	State     string // e.g. COMMAND_STATE_RUNNING
	CommandID string
}

// Command describes the command occupying the command slot.
// Type is empty when no command is present.
type Command struct {
	Type string
}

// Image is a compressed image frame. Format is "png" or "jpeg".
type Image struct {
	Data   []byte
	Format string
}

// Location is a registered destination on the active map.
type Location struct {
	ID   string
	Name string
	Pose Pose
	Type string
}

// Shelf is a registered shelf and where it currently is.
type Shelf struct {
	ID             string
	Name           string
	Pose           Pose
	HomeLocationID string
}

// MapInfo is an entry of the robot's map list.
type MapInfo struct {
	ID        string
	Name      string
	CreatedAt string
}

// LaserScan mirrors sensor_msgs/LaserScan.
type LaserScan struct {
	AngleMin       float64
	AngleMax       float64
	AngleIncrement float64
	TimeIncrement  float64
	ScanTime       float64
	RangeMin       float64
	RangeMax       float64
	Ranges         []float64
	Intensities    []float64
}

// Vector3 is a 3D vector.
type Vector3 struct {
	X, Y, Z float64
}

// Quaternion is an orientation quaternion.
type Quaternion struct {
	X, Y, Z, W float64
}

// IMU mirrors sensor_msgs/Imu without covariances.
type IMU struct {
	Orientation        Quaternion
	AngularVelocity    Vector3
	LinearAcceleration Vector3
}

// Odometry mirrors nav_msgs/Odometry without covariances.
type Odometry struct {
	Position        Vector3
	Orientation     Quaternion
	LinearVelocity  Vector3
	AngularVelocity Vector3
}

// BoundingBox is an image-space box in pixels.
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DetectedObject is one result of the on-robot object detector.
type DetectedObject struct {
	ID    string
	Label string
	Score float64
	BBox  BoundingBox
}
