// ABOUTME: Liveness and readiness endpoints
// ABOUTME: Readiness probes the robot by reading its serial number

package gateway

import (
	"context"
	"fmt"
	"net/http"
)

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the robot answers a serial number query.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	serial, err := g.probeRobot(ctx)
	if err != nil {
		g.logger.Warn("readiness probe failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "robot unreachable: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (robot %s)", serial)
}

// probeRobot reads the serial number through the shared session.
func (g *Gateway) probeRobot(ctx context.Context) (serial string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("robot probe panicked: %v", r)
		}
	}()

	client, err := g.session.Client(ctx)
	if err != nil {
		return "", err
	}
	return client.GetRobotSerialNumber(ctx)
}
