// Package session holds the process-wide robot connection.
//
// # Overview
//
// Context is a single-slot cache of one robot.Client. The first call to
// Client dials the robot using the target reported by the configured
// TargetFunc; later calls return the same handle until Reset or Close
// empties the slot, after which the next access dials again with the
// then-current target.
//
// # States
//
//	Uninitialized --Client--> Active --Reset/Close--> Uninitialized
//
// # Concurrency
//
// The slot itself is mutex guarded. Handles are shared, not leased: every
// caller receives the same robot.Client and may use it concurrently. The
// gRPC client multiplexes calls over one connection, so no further
// serialization is applied.
//
// # Usage
//
//	sess := session.New(provider.RobotTarget, session.GRPCFactory(30*time.Second), logger)
//	defer sess.Close()
//
//	client, err := sess.Client(ctx)
package session
