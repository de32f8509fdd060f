// ABOUTME: Sensor resources: cameras, laser scan, IMU, odometry and detections
// ABOUTME: Camera reads fall back to the placeholder PNG

package telemetry

import (
	"context"

	"github.com/2389/kachaka-mcp/internal/robot"
)

// FrontCamera reads sensors://camera/front.
func (a *Accessor) FrontCamera(ctx context.Context) Result {
	return a.image(ctx, "sensors://camera/front", MIMEJPEG, func(ctx context.Context, c robot.Client) (robot.Image, error) {
		return c.GetFrontCameraImage(ctx)
	})
}

// BackCamera reads sensors://camera/back.
func (a *Accessor) BackCamera(ctx context.Context) Result {
	return a.image(ctx, "sensors://camera/back", MIMEJPEG, func(ctx context.Context, c robot.Client) (robot.Image, error) {
		return c.GetBackCameraImage(ctx)
	})
}

// TOFCamera reads sensors://camera/tof.
func (a *Accessor) TOFCamera(ctx context.Context) Result {
	return a.image(ctx, "sensors://camera/tof", MIMEJPEG, func(ctx context.Context, c robot.Client) (robot.Image, error) {
		return c.GetTOFCameraImage(ctx)
	})
}

// LaserScan reads sensors://laser. Missing arrays encode as [] and beams
// without a return (±Inf, NaN) as null.
func (a *Accessor) LaserScan(ctx context.Context) Result {
	const name = "sensors://laser"
	return a.query(ctx, name, func(ctx context.Context, c robot.Client) Result {
		scan, err := c.GetLaserScan(ctx)
		if err != nil {
			return a.fail(name, err)
		}
		return OK(laserPayload{
			AngleMin:       number(scan.AngleMin),
			AngleMax:       number(scan.AngleMax),
			AngleIncrement: number(scan.AngleIncrement),
			TimeIncrement:  number(scan.TimeIncrement),
			ScanTime:       number(scan.ScanTime),
			RangeMin:       number(scan.RangeMin),
			RangeMax:       number(scan.RangeMax),
			Ranges:         numbers(scan.Ranges),
			Intensities:    numbers(scan.Intensities),
		}, false)
	})
}

// IMU reads sensors://imu. Covariances are not reported.
func (a *Accessor) IMU(ctx context.Context) Result {
	const name = "sensors://imu"
	return a.query(ctx, name, func(ctx context.Context, c robot.Client) Result {
		imu, err := c.GetIMU(ctx)
		if err != nil {
			return a.fail(name, err)
		}
		return OK(imuPayload{
			Orientation:        newQuaternion(imu.Orientation),
			AngularVelocity:    newVector(imu.AngularVelocity),
			LinearAcceleration: newVector(imu.LinearAcceleration),
		}, false)
	})
}

// Odometry reads sensors://odometry as a pose plus twist.
func (a *Accessor) Odometry(ctx context.Context) Result {
	const name = "sensors://odometry"
	return a.query(ctx, name, func(ctx context.Context, c robot.Client) Result {
		odom, err := c.GetOdometry(ctx)
		if err != nil {
			return a.fail(name, err)
		}
		var p odometryPayload
		p.Pose.Position = newVector(odom.Position)
		p.Pose.Orientation = newQuaternion(odom.Orientation)
		p.Twist.Linear = newVector(odom.LinearVelocity)
		p.Twist.Angular = newVector(odom.AngularVelocity)
		return OK(p, false)
	})
}

// ObjectDetection reads sensors://object_detection. No detections encode as [].
func (a *Accessor) ObjectDetection(ctx context.Context) Result {
	const name = "sensors://object_detection"
	return a.query(ctx, name, func(ctx context.Context, c robot.Client) Result {
		objects, err := c.GetObjectDetection(ctx)
		if err != nil {
			return a.fail(name, err)
		}
		out := make([]detectionPayload, 0, len(objects))
		for _, o := range objects {
			out = append(out, detectionPayload{
				ID:    o.ID,
				Label: o.Label,
				Score: number(o.Score),
				BBox:  bboxPayload{X: number(o.BBox.X), Y: number(o.BBox.Y), Width: number(o.BBox.Width), Height: number(o.BBox.Height)},
			})
		}
		return OK(out, false)
	})
}
