package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/manipd/internal/config"
	"github.com/aretw0/manipd/internal/server"
	"github.com/aretw0/manipd/internal/testutils"
	"github.com/aretw0/manipd/pkg/adapters/yamlmodel"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/frontend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(exts ...frontend.Spec) config.Config {
	cfg := config.Default()
	cfg.CoreAddr = "127.0.0.1:0"
	cfg.ManipulationAddr = "127.0.0.1:0"
	cfg.Extensions = exts
	return cfg
}

func newServer(t *testing.T, cfg config.Config) *server.Server {
	t.Helper()
	s, err := server.New(cfg,
		server.WithVersion("test"),
		server.WithLoader(yamlmodel.NewLoader(testutils.SetupModelRoot(t))),
	)
	require.NoError(t, err)
	return s
}

// start binds s and serves it until the test ends.
func start(t *testing.T, s *server.Server) map[string]string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})

	urls := make(map[string]string)
	for _, f := range s.Frontends() {
		urls[f.Name().Service] = "http://" + f.Addr()
	}
	return urls
}

func call(t *testing.T, method, url string, body any) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

var armModel = map[string]string{"name": "ur", "root_joint_type": "freeflyer", "package": "fixtures", "model": "arm"}

func TestBuiltins(t *testing.T) {
	reg := server.Builtins()
	assert.Equal(t, []string{server.KindMCP, server.KindPinned}, reg.Kinds())

	pinned, err := reg.Lookup(server.KindPinned)
	require.NoError(t, err)
	assert.Equal(t, frontend.Dedicated, pinned.Sharing)
	assert.Equal(t, "pinned", pinned.DefaultKey)

	mcp, err := reg.Lookup(server.KindMCP)
	require.NoError(t, err)
	assert.Equal(t, frontend.Shared, mcp.Sharing)
}

func TestServer_SharedRegistry(t *testing.T) {
	s := newServer(t, testConfig())
	urls := start(t, s)
	require.Len(t, urls, 2)

	status, body := call(t, "GET", urls["problem"]+"/info", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"service":"hpp/corbaserver/problem"`)

	status, body = call(t, "GET", urls["manipulation"]+"/info", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"service":"hpp/corbaserver/manipulation"`)

	status, body = call(t, "POST", urls["manipulation"]+"/robot/environments",
		map[string]string{"package": "fixtures", "model": "kitchen", "prefix": "k_"})
	require.Equal(t, http.StatusNoContent, status, body)

	// The core front-end sees what the manipulation front-end loaded.
	status, body = call(t, "GET", urls["problem"]+"/problems/selected/obstacles", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"k_table"`)

	status, _ = call(t, "POST", urls["problem"]+"/problems", map[string]string{"key": "p2"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = call(t, "PUT", urls["problem"]+"/problems/selected", map[string]string{"key": "p2"})
	require.Equal(t, http.StatusNoContent, status)

	// After selection, the manipulation front-end edits the new problem.
	status, body = call(t, "GET", urls["manipulation"]+"/robot/available/obstacle", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)

	status, body = call(t, "GET", urls["problem"]+"/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "manipd_calls_total")
}

func TestServer_Extensions(t *testing.T) {
	s := newServer(t, testConfig(
		frontend.Spec{Kind: server.KindPinned, Addr: "127.0.0.1:0"},
		frontend.Spec{Kind: server.KindMCP, Addr: "127.0.0.1:0", Service: "agent"},
	))
	urls := start(t, s)
	require.Len(t, urls, 4)

	// The dedicated problem exists but startup keeps "default" selected.
	status, body := call(t, "GET", urls["problem"]+"/problems", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"problems":["default","pinned"],"selected":"default"}`, body)

	status, body = call(t, "POST", urls["pinned"]+"/robot/models/robot", armModel)
	require.Equal(t, http.StatusNoContent, status, body)

	status, body = call(t, "GET", urls["pinned"]+"/robot/available/joint", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "ur/shoulder")

	// The selected problem was not touched by the pinned front-end.
	status, body = call(t, "GET", urls["manipulation"]+"/robot/available/joint", nil)
	assert.Equal(t, http.StatusConflict, status, body)

	status, body = call(t, "GET", urls["pinned"]+"/info", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"service":"hpp/corbaserver/pinned"`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", urls["agent"]+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: endpoint\n", line)
	cancel()
}

func TestServer_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()

	s := newServer(t, cfg)
	urls := start(t, s)

	status, body := call(t, "POST", urls["manipulation"]+"/robot/models/robot", armModel)
	require.Equal(t, http.StatusNoContent, status, body)
	assert.Empty(t, mr.Keys(), "lock released after the mutation")
}

func TestStart_CoreBindFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.CoreAddr = busy.Addr().String()
	s := newServer(t, cfg)

	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hpp/corbaserver/problem")
	for _, f := range s.Frontends() {
		assert.Empty(t, f.Addr(), "nothing else is bound")
	}
}

func TestStart_ExtensionBindFailureKeepsEarlierListeners(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	s := newServer(t, testConfig(frontend.Spec{Kind: server.KindMCP, Addr: busy.Addr().String()}))
	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hpp/corbaserver/mcp")

	fronts := s.Frontends()
	assert.NotEmpty(t, fronts[0].Addr())
	assert.NotEmpty(t, fronts[1].Addr())
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestStart_ExtensionErrors(t *testing.T) {
	tests := []struct {
		name string
		exts []frontend.Spec
		kind error
	}{
		{"unknown kind", []frontend.Spec{{Kind: "corba", Addr: "127.0.0.1:0"}}, domain.ErrNotFound},
		{"bad options", []frontend.Spec{{Kind: server.KindMCP, Addr: "127.0.0.1:0", Options: map[string]any{"bogus": 1}}}, domain.ErrInvalidArgument},
		{"same key twice", []frontend.Spec{
			{Kind: server.KindPinned, Addr: "127.0.0.1:0"},
			{Kind: server.KindPinned, Addr: "127.0.0.1:0", Service: "pinned2"},
		}, domain.ErrDuplicateName},
		{"default key taken", []frontend.Spec{{Kind: server.KindPinned, Addr: "127.0.0.1:0", Key: "default"}}, domain.ErrDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t, testConfig(tt.exts...))
			err := s.Start(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), err.Error())
			require.NoError(t, s.Shutdown(context.Background()))
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, testConfig(), server.WithLoader(yamlmodel.NewLoader(t.TempDir())))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
}
