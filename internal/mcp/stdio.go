// ABOUTME: MCP stdio transport: newline-delimited JSON-RPC on stdin/stdout
// ABOUTME: Used when a desktop client launches the server as a subprocess

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ServeStdio reads requests from r and writes responses to w until r is
// exhausted or ctx is cancelled. Requests are handled concurrently;
// responses are written whole, one per line.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxRequestBodySize)

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	enc := json.NewEncoder(w)
	write := func(resp *JSONRPCResponse) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := enc.Encode(resp); err != nil {
			s.logger.Warn("failed to write stdio response", "error", err)
		}
	}

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.logger.Info("serving MCP over stdio")
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil && !errors.Is(err, io.EOF) {
						return fmt.Errorf("reading stdin: %w", err)
					}
				default:
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var req JSONRPCRequest
			if err := json.Unmarshal(line, &req); err != nil {
				write(errorResponse(nil, JSONRPCParseError, "invalid JSON"))
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				if resp := s.handle(ctx, req); resp != nil {
					write(resp)
				}
			}()
		}
	}
}
