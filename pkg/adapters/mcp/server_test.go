package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/buddy/pkg/adapters/memory"
	"github.com/aretw0/buddy/pkg/dispatch"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRelayText(t *testing.T) {
	q := memory.NewQueue()
	s := NewServer(dispatch.New(q), WithQueue(q))

	resp, err := s.handleRelayText(context.Background(), mcp.CallToolRequest{}, RelayArgs{
		Action: "translateToMandarin",
		Text:   "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "Text translated to Mandarin", resp.Reply)
	assert.Equal(t, "[Translated to Mandarin]: hello", resp.Result)

	item, ok, err := q.TryPop(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resp.Result, item)
}

func TestHandleRelayText_UnknownActionIsIdentity(t *testing.T) {
	q := memory.NewQueue()
	s := NewServer(dispatch.New(q))

	resp, err := s.handleRelayText(context.Background(), mcp.CallToolRequest{}, RelayArgs{Action: "nope", Text: "as is"})
	require.NoError(t, err)
	assert.Equal(t, "Text received by Flask server", resp.Reply)
	assert.Equal(t, "as is", resp.Result)
}

func rpc(t *testing.T, s *Server, id int, method string, params any) map[string]any {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	out := s.MCPServer().HandleMessage(context.Background(), msg)
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func initialize(t *testing.T, s *Server) {
	t.Helper()
	rpc(t, s, 1, "initialize", map[string]any{
		"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
		"capabilities":    map[string]any{},
	})
}

func TestToolsListAndCall(t *testing.T) {
	q := memory.NewQueue()
	s := NewServer(dispatch.New(q), WithQueue(q), WithVersion("9.9.9"))
	initialize(t, s)

	list := rpc(t, s, 2, "tools/list", map[string]any{})
	raw, _ := json.Marshal(list["result"])
	assert.Contains(t, string(raw), `"relay_text"`)
	assert.Contains(t, string(raw), "showAllLinks")

	call := rpc(t, s, 3, "tools/call", map[string]any{
		"name":      "relay_text",
		"arguments": map[string]any{"action": "summarizePage", "text": "A. B. C. D."},
	})
	raw, _ = json.Marshal(call["result"])
	assert.Contains(t, string(raw), "Summary provided")

	item, ok, err := q.TryPop(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A. B. C.", item)
}

func TestDepthResource(t *testing.T) {
	q := memory.NewQueue()
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, "one"))
	require.NoError(t, q.Push(ctx, "two"))

	s := NewServer(dispatch.New(q), WithQueue(q))
	initialize(t, s)

	read := rpc(t, s, 2, "resources/read", map[string]any{"uri": DepthURI})
	raw, _ := json.Marshal(read["result"])
	assert.Contains(t, string(raw), `"text":"2"`)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, NewServer(nil).Validate(), ErrNoDispatcher)
	assert.NoError(t, NewServer(dispatch.New(memory.NewQueue())).Validate())
}
