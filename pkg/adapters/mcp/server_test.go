package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/manipd/internal/testutils"
	"github.com/aretw0/manipd/pkg/adapters/mcp"
	"github.com/aretw0/manipd/pkg/adapters/yamlmodel"
	"github.com/aretw0/manipd/pkg/assembler"
	"github.com/aretw0/manipd/pkg/manipulation"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResult struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StructuredContent json.RawMessage `json:"structuredContent"`
		Contents          []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newServer(t *testing.T) (*mcp.Server, *problem.Registry) {
	t.Helper()
	reg := problem.NewRegistry()
	reg.Create(problem.DefaultKey)
	mgr := session.NewManager(reg)
	asm := assembler.New(yamlmodel.NewLoader(testutils.SetupModelRoot(t)))
	svc := manipulation.NewService(mgr, asm, manipulation.WithName("mcp"))
	return mcp.NewServer(svc, "1.0.0\n"), reg
}

func rpc(t *testing.T, s *mcp.Server, method string, params any) rpcResult {
	t.Helper()
	msg, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	resp := s.MCPServer().HandleMessage(context.Background(), msg)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var out rpcResult
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	require.Nil(t, out.Error, string(raw))
	return out
}

func call(t *testing.T, s *mcp.Server, tool string, args map[string]any) rpcResult {
	t.Helper()
	return rpc(t, s, "tools/call", map[string]any{"name": tool, "arguments": args})
}

func TestServer_ListTools(t *testing.T) {
	s, _ := newServer(t)

	res := rpc(t, s, "tools/list", map[string]any{})
	var names []string
	for _, tool := range res.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"insert_robot_model", "insert_object_model", "insert_humanoid_model",
		"load_environment_model", "get_root_joint_position", "set_root_joint_position",
		"add_handle", "add_axial_handle", "add_gripper", "get_available", "get_contact",
	}, names)
}

func TestServer_Tools(t *testing.T) {
	s, reg := newServer(t)

	res := call(t, s, "get_root_joint_position", map[string]any{"name": "ur"})
	require.True(t, res.Result.IsError)
	assert.Contains(t, res.Result.Content[0].Text, "NoRobot")

	res = call(t, s, "insert_robot_model", map[string]any{
		"name": "ur", "root_joint_type": "freeflyer", "package": "fixtures", "model": "arm",
	})
	require.False(t, res.Result.IsError, res.Result.Content)

	res = call(t, s, "set_root_joint_position", map[string]any{"name": "ur", "position": []float64{0, 1, 0, 0, 0, 0, 1}})
	require.False(t, res.Result.IsError, res.Result.Content)

	res = call(t, s, "get_root_joint_position", map[string]any{"name": "ur"})
	require.False(t, res.Result.IsError, res.Result.Content)
	var pos mcp.PositionResponse
	require.NoError(t, json.Unmarshal(res.Result.StructuredContent, &pos))
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 0, 1}, pos.Position)

	res = call(t, s, "add_gripper", map[string]any{
		"body": "ur/wrist", "name": "g1", "position": []float64{0, 0, 0, 0, 0, 0, 1},
		"collision_bodies": []string{"ur/upper_arm"},
	})
	require.False(t, res.Result.IsError, res.Result.Content)

	res = call(t, s, "add_handle", map[string]any{"body": "ur/wrist", "name": "g1", "position": []float64{0, 0, 0, 0, 0, 0, 1}})
	require.False(t, res.Result.IsError, "handles and grippers have separate namespaces")
	res = call(t, s, "add_axial_handle", map[string]any{"body": "ur/wrist", "name": "g1", "position": []float64{0, 0, 0, 0, 0, 0, 1}})
	require.True(t, res.Result.IsError)
	assert.Contains(t, res.Result.Content[0].Text, "DuplicateName")

	res = call(t, s, "load_environment_model", map[string]any{"package": "fixtures", "model": "kitchen", "prefix": "env1_"})
	require.False(t, res.Result.IsError, res.Result.Content)

	res = call(t, s, "get_available", map[string]any{"what": "obstacle"})
	var names mcp.NamesResponse
	require.NoError(t, json.Unmarshal(res.Result.StructuredContent, &names))
	assert.Equal(t, []string{"env1_table", "env1_shelf"}, names.Names)

	p, err := reg.Active()
	require.NoError(t, err)
	assert.Len(t, p.Obstacles(), 2, "tools share the registry")
}

func TestServer_ContactTool(t *testing.T) {
	s, _ := newServer(t)

	res := call(t, s, "get_contact", map[string]any{"kind": "robotcontact", "name": "box/bottom"})
	require.True(t, res.Result.IsError)
	assert.Contains(t, res.Result.Content[0].Text, "NoRobot")

	call(t, s, "insert_object_model", map[string]any{
		"name": "box", "root_joint_type": "freeflyer", "package": "fixtures", "model": "box",
	})
	call(t, s, "set_root_joint_position", map[string]any{"name": "box", "position": []float64{1, 0, 0, 0, 0, 0, 1}})

	res = call(t, s, "get_available", map[string]any{"what": "RobotContact"})
	var names mcp.NamesResponse
	require.NoError(t, json.Unmarshal(res.Result.StructuredContent, &names))
	assert.Equal(t, []string{"box/bottom"}, names.Names)

	res = call(t, s, "get_contact", map[string]any{"kind": "robotcontact", "name": "box/bottom"})
	require.False(t, res.Result.IsError, res.Result.Content)
	var contact manipulation.ContactView
	require.NoError(t, json.Unmarshal(res.Result.StructuredContent, &contact))
	assert.Equal(t, "box/root_joint", contact.Joint)
	require.Len(t, contact.Triangles, 1)
	assert.InDelta(t, 0.975, contact.Triangles[0][0][0], 1e-12)
	assert.InDelta(t, -0.025, contact.Local[0][0][0], 1e-12)

	res = call(t, s, "get_contact", map[string]any{"kind": "envcontact", "name": "env1_table_top"})
	require.True(t, res.Result.IsError)
	assert.Contains(t, res.Result.Content[0].Text, "NotFound")
}

func TestServer_ProblemResource(t *testing.T) {
	s, _ := newServer(t)

	call(t, s, "insert_object_model", map[string]any{
		"name": "box", "root_joint_type": "freeflyer", "package": "fixtures", "model": "box",
	})

	res := rpc(t, s, "resources/read", map[string]any{"uri": mcp.ProblemURI})
	require.Len(t, res.Result.Contents, 1)
	assert.Equal(t, mcp.ProblemURI, res.Result.Contents[0].URI)

	var snap manipulation.Snapshot
	require.NoError(t, json.Unmarshal([]byte(res.Result.Contents[0].Text), &snap))
	require.Len(t, snap.Models, 1)
	assert.Equal(t, "box", snap.Models[0].Name)
	assert.Equal(t, []string{"box/handle"}, snap.Handles)
}

func TestServer_TreeResource(t *testing.T) {
	s, _ := newServer(t)

	call(t, s, "insert_object_model", map[string]any{
		"name": "box", "root_joint_type": "freeflyer", "package": "fixtures", "model": "box",
	})

	res := rpc(t, s, "resources/read", map[string]any{"uri": mcp.TreeURI})
	require.Len(t, res.Result.Contents, 1)
	assert.Contains(t, res.Result.Contents[0].Text, "j_box_root_joint[[\"box/root_joint\"]]")
	assert.Contains(t, res.Result.Contents[0].Text, "h_box_handle")
}
