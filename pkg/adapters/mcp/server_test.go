package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/toolguide/internal/runtime"
	toolmcp "github.com/aretw0/toolguide/pkg/adapters/mcp"
	"github.com/aretw0/toolguide/pkg/adapters/memory"
	"github.com/aretw0/toolguide/pkg/guides/pizza"
	"github.com/aretw0/toolguide/pkg/guides/triage"
	"github.com/aretw0/toolguide/pkg/session"
	"github.com/aretw0/toolguide/pkg/tools"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	eng := runtime.NewEngine(session.NewManager(memory.NewStore()))
	require.NoError(t, eng.Register(pizza.New()))
	require.NoError(t, eng.Register(triage.MustNew()))
	srv := toolmcp.NewServer(tools.New(eng), eng)

	c, err := client.NewInProcessClient(srv.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{Name: "test-client", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initRequest)
	require.NoError(t, err)
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	var body map[string]any
	if !result.IsError {
		require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	} else {
		body = map[string]any{"error": text.Text}
	}
	return body, result.IsError
}

func TestServer_ListTools(t *testing.T) {
	c := newClient(t)
	list, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	byName := map[string]mcp.Tool{}
	for _, tool := range list.Tools {
		byName[tool.Name] = tool
	}
	assert.Len(t, byName, 12)
	require.Contains(t, byName, "continue_pizza_order")
	assert.ElementsMatch(t, []string{"session_id", "user_response"}, byName["continue_pizza_order"].InputSchema.Required)
	assert.Contains(t, byName["continue_triage"].InputSchema.Properties, "report")
}

func TestServer_PizzaConversation(t *testing.T) {
	c := newClient(t)

	start, isErr := callTool(t, c, "start_pizza_order", nil)
	require.False(t, isErr)
	assert.Equal(t, "ask_user", start["action"])
	id := start["session_id"].(string)

	next, _ := callTool(t, c, "continue_pizza_order", map[string]any{"session_id": id, "user_response": "Thin crust"})
	assert.Equal(t, "CHOOSE_CATEGORY", next["next_state"])

	unknown, isErr := callTool(t, c, "continue_pizza_order", map[string]any{"session_id": "deadbeef", "user_response": "thin"})
	require.False(t, isErr, "unknown sessions are protocol errors, not tool failures")
	assert.Equal(t, "error", unknown["status"])
	assert.Equal(t, "Session deadbeef not found. Please start a new order.", unknown["message"])

	status, _ := callTool(t, c, "get_order_status", map[string]any{"session_id": id})
	assert.Equal(t, "found", status["status"])
}

func TestServer_BadArgumentsAreToolErrors(t *testing.T) {
	c := newClient(t)
	body, isErr := callTool(t, c, "continue_triage", map[string]any{"session_id": "x"})
	assert.True(t, isErr)
	assert.Contains(t, body["error"], "report")
}

func TestServer_Resources(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	read := func(uri string) string {
		req := mcp.ReadResourceRequest{}
		req.Params.URI = uri
		res, err := c.ReadResource(ctx, req)
		require.NoError(t, err)
		require.Len(t, res.Contents, 1)
		text, ok := mcp.AsTextResourceContents(res.Contents[0])
		require.True(t, ok)
		return text.Text
	}

	var guides []toolmcp.GuideInfo
	require.NoError(t, json.Unmarshal([]byte(read(toolmcp.GuidesURI)), &guides))
	require.Len(t, guides, 2)
	assert.Equal(t, "pizza", guides[0].Name)

	assert.Contains(t, read("toolguide://guides/triage/graph"), "RED_FLAG_SCREENING")

	start, _ := callTool(t, c, "start_triage", nil)
	overlay := read("toolguide://sessions/" + start["session_id"].(string) + "/graph")
	assert.Contains(t, overlay, "class RED_FLAG_SCREENING current;")
}
