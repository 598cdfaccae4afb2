package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/scorm"
	"github.com/aretw0/scorm/pkg/adapters/memory"
	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	m := session.NewManager(memory.NewStore())
	return NewServer(m), m
}

func TestServer_ToolsDriveASession(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	info, err := s.handleLaunch(ctx, req, LaunchArgs{LearnerID: "agent", ScoID: "quiz", LaunchData: "level=2"})
	require.NoError(t, err)
	id := info.SessionID

	initialize := s.lifecycle((*scorm.API).Initialize)
	resp, err := initialize(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, CallResponse{SessionID: id, Result: "true", Error: "0"}, resp)

	resp, err = s.handleGetValue(ctx, req, GetValueArgs{SessionID: id, Element: "cmi.launch_data"})
	require.NoError(t, err)
	assert.Equal(t, "level=2", resp.Result)

	resp, err = s.handleSetValue(ctx, req, SetValueArgs{SessionID: id, Element: "cmi.score.raw", Value: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "false", resp.Result)
	assert.Equal(t, "406", resp.Error)
	assert.Equal(t, "Data Model Element Type Mismatch", resp.ErrorText)

	lastReq := mcp.CallToolRequest{}
	lastReq.Params.Arguments = map[string]any{"session_id": id}
	last, err := s.handleLastError(ctx, lastReq)
	require.NoError(t, err)
	require.Len(t, last.Content, 1)
	text, ok := last.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "406 Data Model Element Type Mismatch")
	assert.Contains(t, text.Text, `"abc"`)

	resp, err = s.handleSetValue(ctx, req, SetValueArgs{SessionID: id, Element: "cmi.score.raw", Value: "88"})
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Result)

	resp, err = s.lifecycle((*scorm.API).Terminate)(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Result)

	attempt, err := m.Inspect(ctx, "agent-quiz")
	require.NoError(t, err)
	assert.Equal(t, "88", attempt.Data["cmi.score.raw"])
	assert.True(t, attempt.Terminated())
}

func TestServer_UnknownSession(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.handleGetValue(context.Background(), mcp.CallToolRequest{}, GetValueArgs{SessionID: "nope", Element: "cmi.mode"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_LaunchValidation(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.handleLaunch(context.Background(), mcp.CallToolRequest{}, LaunchArgs{ScoID: "quiz"})
	assert.ErrorIs(t, err, session.ErrInvalidLaunch)
}

func TestServer_LastError(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	info, err := s.handleLaunch(ctx, mcp.CallToolRequest{}, LaunchArgs{LearnerID: "agent", ScoID: "quiz"})
	require.NoError(t, err)

	_, err = s.handleGetValue(ctx, mcp.CallToolRequest{}, GetValueArgs{SessionID: info.SessionID, Element: "cmi.mode"})
	require.NoError(t, err)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_id": info.SessionID}
	result, err := s.handleLastError(ctx, req)
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "122 Retrieve Data Before Initialization")

	result, err = s.handleLastError(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError, "session_id is required")
}

func TestServer_DataModelResource(t *testing.T) {
	s, _ := newTestServer(t)
	msg := s.MCPServer().HandleMessage(context.Background(), []byte(`{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "resources/read",
		"params": {"uri": "scorm://datamodel"}
	}`))

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	var envelope struct {
		Result struct {
			Contents []struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Len(t, envelope.Result.Contents, 1)
	assert.Equal(t, DataModelURI, envelope.Result.Contents[0].URI)

	var infos []cmi.ElementInfo
	require.NoError(t, json.Unmarshal([]byte(envelope.Result.Contents[0].Text), &infos))
	assert.NotEmpty(t, infos)
}
