// ABOUTME: Tests for the MCP server over HTTP and stdio
// ABOUTME: Drives tools, resources and prompts against the fake robot

package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/kachaka-mcp/internal/auth"
	"github.com/2389/kachaka-mcp/internal/dispatch"
	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/robot"
	"github.com/2389/kachaka-mcp/internal/robot/robottest"
	"github.com/2389/kachaka-mcp/internal/telemetry"
)

type staticSource struct {
	client robot.Client
	err    error
}

func (s staticSource) Client(context.Context) (robot.Client, error) {
	return s.client, s.err
}

func setupServer(t *testing.T, gate *auth.Gate) (*Server, *robottest.Robot) {
	t.Helper()
	fake := robottest.New()
	src := staticSource{client: fake}

	registry := packs.NewRegistry(nil)
	for _, p := range dispatch.New(src, nil).Packs() {
		require.NoError(t, registry.RegisterPack(p))
	}

	server, err := NewServer(Config{
		Name:      "Kachaka Robot",
		Version:   "test",
		Registry:  registry,
		Telemetry: telemetry.New(src, nil),
		Gate:      gate,
	})
	require.NoError(t, err)
	return server, fake
}

// client drives one HTTP session.
type client struct {
	t         *testing.T
	handler   http.Handler
	sessionID string
	apiKey    string
	nextID    int
}

func (c *client) post(body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		req.Header.Set("Mcp-Session-Id", c.sessionID)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *client) initialize() {
	c.t.Helper()
	rec := c.post(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"1"}}}`)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	c.sessionID = rec.Header().Get("Mcp-Session-Id")
	require.NotEmpty(c.t, c.sessionID)
}

// call sends a request and decodes its result into out.
func (c *client) call(method, params string, out any) *JSONRPCError {
	c.t.Helper()
	c.nextID++
	body := `{"jsonrpc":"2.0","id":` + strconv.Itoa(c.nextID+100) + `,"method":"` + method + `"`
	if params != "" {
		body += `,"params":` + params
	}
	body += "}"

	rec := c.post(body)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *JSONRPCError   `json:"error"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	if resp.Error != nil {
		return resp.Error
	}
	if out != nil {
		require.NoError(c.t, json.Unmarshal(resp.Result, out))
	}
	return nil
}

func newClient(t *testing.T, s *Server) *client {
	c := &client{t: t, handler: s.Handler()}
	c.initialize()
	return c
}

func TestInitialize(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := &client{t: t, handler: s.Handler()}

	rec := c.post(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Mcp-Session-Id"))

	var resp struct {
		Result struct {
			ProtocolVersion string         `json:"protocolVersion"`
			Capabilities    map[string]any `json:"capabilities"`
			ServerInfo      struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-03-26", resp.Result.ProtocolVersion)
	assert.Equal(t, "Kachaka Robot", resp.Result.ServerInfo.Name)
	assert.Contains(t, resp.Result.Capabilities, "tools")
	assert.Contains(t, resp.Result.Capabilities, "resources")
	assert.Contains(t, resp.Result.Capabilities, "prompts")
}

func TestNegotiateVersion(t *testing.T) {
	assert.Equal(t, "2024-11-05", negotiateVersion("2024-11-05"))
	assert.Equal(t, latestProtocolVersion, negotiateVersion("1999-01-01"))
	assert.Equal(t, latestProtocolVersion, negotiateVersion(""))
}

func TestSessionRequired(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := &client{t: t, handler: s.Handler()}

	rec := c.post(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c.sessionID = "unknown"
	rec = c.post(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := newClient(t, s)

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set("Mcp-Session-Id", c.sessionID)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.post(`{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationAccepted(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := newClient(t, s)

	rec := c.post(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := setupServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST, GET, DELETE", rec.Header().Get("Allow"))
}

func TestToolsList(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := newClient(t, s)

	var result MCPListToolsResult
	require.Nil(t, c.call("tools/list", "", &result))
	require.Len(t, result.Tools, 23)
	assert.Equal(t, "move_to_location", result.Tools[0].Name)
	assert.JSONEq(t, `"object"`, string(mustField(t, result.Tools[0].InputSchema, "type")))
}

func mustField(t *testing.T, raw json.RawMessage, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[field]
}

func TestToolsCall(t *testing.T) {
	s, fake := setupServer(t, nil)
	c := newClient(t, s)

	t.Run("success", func(t *testing.T) {
		var result MCPCallToolResult
		require.Nil(t, c.call("tools/call", `{"name":"move_to_location","arguments":{"location_name":"Kitchen"}}`, &result))
		require.Len(t, result.Content, 1)
		assert.Equal(t, "Successfully moved to Kitchen", result.Content[0].Text)
		assert.False(t, result.IsError)
		assert.Equal(t, 1, fake.CallCount("MoveToLocation"))
	})

	t.Run("robot refusal is not an error result", func(t *testing.T) {
		fake.Results["DockShelf"] = robot.Result{Message: "no shelf found"}
		var result MCPCallToolResult
		require.Nil(t, c.call("tools/call", `{"name":"dock_shelf"}`, &result))
		assert.Equal(t, "Failed to dock shelf: no shelf found", result.Content[0].Text)
		assert.False(t, result.IsError)
	})

	t.Run("transport error is flagged", func(t *testing.T) {
		fake.Errs["Speak"] = errors.New("unavailable")
		var result MCPCallToolResult
		require.Nil(t, c.call("tools/call", `{"name":"speak","arguments":{"text":"hi"}}`, &result))
		assert.Equal(t, "Error: unavailable", result.Content[0].Text)
		assert.True(t, result.IsError)
	})

	t.Run("unknown tool", func(t *testing.T) {
		rpcErr := c.call("tools/call", `{"name":"fly"}`, nil)
		require.NotNil(t, rpcErr)
		assert.Equal(t, JSONRPCInvalidParams, rpcErr.Code)
	})

	t.Run("missing name", func(t *testing.T) {
		rpcErr := c.call("tools/call", `{}`, nil)
		require.NotNil(t, rpcErr)
		assert.Equal(t, "tool name is required", rpcErr.Message)
	})
}

func TestResources(t *testing.T) {
	s, fake := setupServer(t, nil)
	c := newClient(t, s)

	var list MCPListResourcesResult
	require.Nil(t, c.call("resources/list", "", &list))
	assert.Len(t, list.Resources, 15)

	var templates MCPListResourceTemplatesResult
	require.Nil(t, c.call("resources/templates/list", "", &templates))
	require.Len(t, templates.ResourceTemplates, 2)
	assert.Equal(t, "map://locations/{location_id}", templates.ResourceTemplates[0].URITemplate)

	t.Run("text", func(t *testing.T) {
		fake.Version = "3.8.5"
		var result MCPReadResourceResult
		require.Nil(t, c.call("resources/read", `{"uri":"robot://version"}`, &result))
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "3.8.5", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Empty(t, result.Contents[0].Blob)
	})

	t.Run("error payload", func(t *testing.T) {
		var result MCPReadResourceResult
		require.Nil(t, c.call("resources/read", `{"uri":"map://shelves/shelf-42"}`, &result))
		assert.Equal(t, `{"error": "Shelf shelf-42 not found"}`, result.Contents[0].Text)
	})

	t.Run("blob", func(t *testing.T) {
		fake.Errs["GetPNGMap"] = errors.New("boom")
		var result MCPReadResourceResult
		require.Nil(t, c.call("resources/read", `{"uri":"map://current"}`, &result))
		assert.Equal(t, "image/png", result.Contents[0].MIMEType)
		data, err := base64.StdEncoding.DecodeString(result.Contents[0].Blob)
		require.NoError(t, err)
		assert.Equal(t, telemetry.Placeholder(), data)
	})

	t.Run("unknown", func(t *testing.T) {
		rpcErr := c.call("resources/read", `{"uri":"robot://mood"}`, nil)
		require.NotNil(t, rpcErr)
		assert.Equal(t, MCPResourceNotFound, rpcErr.Code)
	})
}

func TestPrompts(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := newClient(t, s)

	var list MCPListPromptsResult
	require.Nil(t, c.call("prompts/list", "", &list))
	require.Len(t, list.Prompts, 4)
	assert.Equal(t, "robot_control_prompt", list.Prompts[0].Name)

	var got MCPGetPromptResult
	require.Nil(t, c.call("prompts/get", `{"name":"navigation_prompt"}`, &got))
	require.Len(t, got.Messages, 2)
	for _, m := range got.Messages {
		assert.Equal(t, "user", m.Role)
		assert.Equal(t, "text", m.Content.Type)
	}
	assert.Contains(t, got.Messages[0].Content.Text, "move_to_pose")

	rpcErr := c.call("prompts/get", `{"name":"nope"}`, nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, JSONRPCInvalidParams, rpcErr.Code)
}

func TestUnknownMethod(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := newClient(t, s)

	rpcErr := c.call("sampling/createMessage", "", nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, JSONRPCMethodNotFound, rpcErr.Code)
}

func TestInvalidJSON(t *testing.T) {
	s, _ := setupServer(t, nil)
	c := &client{t: t, handler: s.Handler()}

	rec := c.post(`{not json`)
	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, JSONRPCParseError, resp.Error.Code)
}

func TestAuthGate(t *testing.T) {
	gate, err := auth.NewGate(auth.GateConfig{Enabled: true, APIKeys: []string{"k1", "k2"}}, nil)
	require.NoError(t, err)
	s, fake := setupServer(t, gate)

	t.Run("rejected without key", func(t *testing.T) {
		c := &client{t: t, handler: s.Handler()}
		rec := c.post(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected key never reaches the robot", func(t *testing.T) {
		c := &client{t: t, handler: s.Handler(), apiKey: "wrong"}
		rec := c.post(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"return_home"}}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, fake.CallCount("ReturnHome"))
	})

	t.Run("session bound to its key", func(t *testing.T) {
		c := &client{t: t, handler: s.Handler(), apiKey: "k1"}
		c.initialize()

		var result MCPCallToolResult
		require.Nil(t, c.call("tools/call", `{"name":"return_home"}`, &result))
		assert.Equal(t, "Successfully returned home", result.Content[0].Text)

		other := &client{t: t, handler: s.Handler(), apiKey: "k2", sessionID: c.sessionID}
		rec := other.post(`{"jsonrpc":"2.0","id":2,"method":"ping"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestServeStdio(t *testing.T) {
	s, _ := setupServer(t, nil)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`garbage`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"proceed"}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.ServeStdio(ctx, strings.NewReader(input), &out))

	byID := map[string]JSONRPCResponse{}
	dec := json.NewDecoder(&out)
	for {
		var resp JSONRPCResponse
		err := dec.Decode(&resp)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		byID[string(resp.ID)] = resp
	}

	require.Len(t, byID, 3, "initialize, parse error and tools/call; no reply to the notification")
	assert.Nil(t, byID["1"].Error)
	require.NotNil(t, byID["null"].Error)
	assert.Equal(t, JSONRPCParseError, byID["null"].Error.Code)

	result, err := json.Marshal(byID["2"].Result)
	require.NoError(t, err)
	assert.Contains(t, string(result), "Successfully proceeded")
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)

	_, err = NewServer(Config{Registry: packs.NewRegistry(nil)})
	assert.Error(t, err)
}

func TestDuplicateToolCallNotReExecuted(t *testing.T) {
	s, fake := setupServer(t, nil)
	c := newClient(t, s)

	body := `{"jsonrpc":"2.0","id":"move-1","method":"tools/call","params":{"name":"move_forward","arguments":{"distance_meter":0.5}}}`
	rec := c.post(body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Successfully moved forward 0.5m")

	rec = c.post(body)
	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, JSONRPCInvalidRequest, resp.Error.Code)
	assert.Equal(t, 1, fake.CallCount("MoveForward"))

	// The same id in another session is a different request.
	other := newClient(t, s)
	rec = other.post(body)
	assert.Contains(t, rec.Body.String(), "Successfully moved forward")
	assert.Equal(t, 2, fake.CallCount("MoveForward"))
}
