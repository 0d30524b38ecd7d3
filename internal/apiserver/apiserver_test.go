package apiserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tap-ir/tapir/internal/apiserver"
	"github.com/tap-ir/tapir/internal/plugin"
	"github.com/tap-ir/tapir/internal/session"
)

const testKey = "test-key"

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	reg := plugin.NewRegistry()
	reg.Register(plugin.NewLocal())
	reg.Register(plugin.NewHash())
	reg.Register(plugin.NewMerge())

	uploadDir := t.TempDir()
	sess := session.New(reg, 2, nil)
	srv := apiserver.New(apiserver.Config{APIKey: testKey, UploadDir: uploadDir}, sess, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, uploadDir
}

func authedRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("x-api-key", testKey)
	return req
}

func TestAuthGateRejectsMissingAndWrongKey(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/node_count")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/node_count", nil)
	req.Header.Set("x-api-key", "wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestOptionsPreflightReturns204(t *testing.T) {
	ts, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/node_count", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNodeCountInitiallyOne(t *testing.T) {
	ts, _ := newTestServer(t)
	req := authedRequest(t, http.MethodGet, ts.URL+"/api/node_count", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var count int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	require.Equal(t, 1, count) // just the root
}

func TestRunLocalIncreasesNodeCount(t *testing.T) {
	ts, _ := newTestServer(t)

	fixture := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(fixture, []byte("hello world"), 0o644))

	args, err := json.Marshal(map[string]any{"files": []string{fixture}})
	require.NoError(t, err)
	body, err := json.Marshal(apiserver.PluginArgs{Name: "local", Arguments: string(args)})
	require.NoError(t, err)

	req := authedRequest(t, http.MethodPost, ts.URL+"/api/run", body)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req2 := authedRequest(t, http.MethodGet, ts.URL+"/api/node_count", nil)
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	var count int
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&count))
	require.Equal(t, 2, count)
}

func TestScheduleAndJoinReachesFinished(t *testing.T) {
	ts, _ := newTestServer(t)

	fixture := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(fixture, []byte("hello world"), 0o644))
	args, err := json.Marshal(map[string]any{"files": []string{fixture}})
	require.NoError(t, err)
	body, err := json.Marshal(apiserver.PluginArgs{Name: "local", Arguments: string(args)})
	require.NoError(t, err)

	req := authedRequest(t, http.MethodPost, ts.URL+"/api/schedule", body)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var id uint32
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&id))

	joinReq := authedRequest(t, http.MethodPost, ts.URL+"/api/join", nil)
	joinResp, err := http.DefaultClient.Do(joinReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, joinResp.StatusCode)

	taskReq := authedRequest(t, http.MethodPost, fmt.Sprintf("%s/api/task?task_id=%d", ts.URL, id), nil)
	taskResp, err := http.DefaultClient.Do(taskReq)
	require.NoError(t, err)
	defer taskResp.Body.Close()
	var state map[string]any
	require.NoError(t, json.NewDecoder(taskResp.Body).Decode(&state))
	require.Equal(t, "finished", state["state"])
}

func TestUploadRejectsTraversal(t *testing.T) {
	ts, _ := newTestServer(t)
	req := authedRequest(t, http.MethodPost, ts.URL+"/api/upload?name=../evil", []byte("data"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRootAttributesKeyPresentWhenRequestedEvenIfEmpty(t *testing.T) {
	ts, _ := newTestServer(t)
	req := authedRequest(t, http.MethodGet, ts.URL+"/api/root", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	attrs, ok := raw["attributes"]
	require.True(t, ok, "attributes key must be present when NodeOption.Attributes is requested")
	require.Equal(t, "[]", string(attrs))
}

func TestScanRunsAnalysisPluginsAgainstIngestedNodes(t *testing.T) {
	ts, _ := newTestServer(t)

	fixture := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(fixture, []byte("hello world"), 0o644))
	args, err := json.Marshal(map[string]any{"files": []string{fixture}})
	require.NoError(t, err)
	body, err := json.Marshal(apiserver.PluginArgs{Name: "local", Arguments: string(args)})
	require.NoError(t, err)
	runReq := authedRequest(t, http.MethodPost, ts.URL+"/api/run", body)
	runResp, err := http.DefaultClient.Do(runReq)
	require.NoError(t, err)
	runResp.Body.Close()
	require.Equal(t, http.StatusOK, runResp.StatusCode)

	scanReq := authedRequest(t, http.MethodPost, ts.URL+"/api/scan", nil)
	scanResp, err := http.DefaultClient.Do(scanReq)
	require.NoError(t, err)
	defer scanResp.Body.Close()
	require.Equal(t, http.StatusOK, scanResp.StatusCode)

	var ran []map[string]any
	require.NoError(t, json.NewDecoder(scanResp.Body).Decode(&ran))
	require.NotEmpty(t, ran, "/scan must run analysis plugins against the ingested node")

	names := make([]string, 0, len(ran))
	for _, r := range ran {
		names = append(names, r["plugin"].(string))
	}
	require.Contains(t, names, "hash")
}

func TestDownloadIDAuthenticatesByQueryKeyOnly(t *testing.T) {
	ts, _ := newTestServer(t)

	// No x-api-key header and no apikey query param: rejected.
	resp, err := http.Get(ts.URL + "/api/download_id?index1=0&stamp=0")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A header key alone (no query key) must still be rejected: download_id
	// is query-auth only, never header-auth, so it must not fall through to
	// the header-gated subrouter.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/download_id?index1=0&stamp=0", nil)
	req.Header.Set("x-api-key", testKey)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	// Query key alone, no header: accepted through the auth gate (node may
	// still 400 since index1=0/stamp=0 carries no data, but it must not be 401).
	resp3, err := http.Get(ts.URL + "/api/download_id?index1=0&stamp=0&apikey=" + testKey)
	require.NoError(t, err)
	require.NotEqual(t, http.StatusUnauthorized, resp3.StatusCode)
}

func TestUploadWritesFile(t *testing.T) {
	ts, uploadDir := newTestServer(t)
	req := authedRequest(t, http.MethodPost, ts.URL+"/api/upload?name=sample.bin", []byte("some bytes"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := os.ReadFile(filepath.Join(uploadDir, "sample.bin"))
	require.NoError(t, err)
	require.Equal(t, "some bytes", string(data))
}
