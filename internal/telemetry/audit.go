// ABOUTME: audit://commands resource listing recent robot commands
// ABOUTME: Only catalogued when a command log is attached

package telemetry

import (
	"context"
	"fmt"

	"github.com/2389/kachaka-mcp/internal/store"
)

// commandLogLimit bounds the entries returned by audit://commands.
const commandLogLimit = 100

// Commands reads audit://commands, newest first.
func (a *Accessor) Commands(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic reading command log", "panic", r)
			res = Err(fmt.Sprint(r))
		}
	}()

	if a.commands == nil {
		return Err("command log is disabled")
	}

	entries, err := a.commands.ListCommands(ctx, store.CommandFilter{Limit: commandLogLimit})
	if err != nil {
		return a.fail("audit://commands", err)
	}
	return OK(entries, true)
}
