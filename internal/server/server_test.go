package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	mid "github.com/graphview/backend/internal/server/middleware"
	"github.com/graphview/backend/pkg/ai"
	"github.com/graphview/backend/pkg/common"
	"github.com/graphview/backend/pkg/graph"
	"github.com/graphview/backend/pkg/loader"
	ioloader "github.com/graphview/backend/pkg/loader/io"
	"github.com/graphview/backend/pkg/query"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
)

var snapshotFiles = map[string]string{
	"entity_component_data.csv": "guid,name,type,owner\nc1,Button,component,ui\nc2,Table,component,data\nc3,Orphan,component,none\n",
	"entity_tool_data.csv":      "guid,name,type\nt1,Jest,tool\n",
	"relation_tests_data.csv":   "guid,name,source_guid,target_guid,source_type,target_type\nr1,tests,t1,c1,tool,component\n",
	"relation_uses_data.csv":    "guid,name,source_guid,target_guid,source_type,target_type\nr2,uses,c1,c2,component,component\n",
}

func newSnapshotLoader(t *testing.T) loader.SnapshotLoader {
	t.Helper()

	fs, err := mem.NewFS()
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range snapshotFiles {
		if err := hackpadfs.WriteFullFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return ioloader.NewIOSnapshotLoader(fs, ".")
}

// countingLoader records every store access.
type countingLoader struct {
	loader.SnapshotLoader

	mu    sync.Mutex
	calls int
}

func (l *countingLoader) GetFileText(ctx context.Context, name string) ([]byte, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.SnapshotLoader.GetFileText(ctx, name)
}

func (l *countingLoader) ListFiles(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.SnapshotLoader.ListFiles(ctx)
}

func (l *countingLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type fakeAIClient struct {
	result  ai.ChatResult
	err     error
	metrics ai.ModelMetrics
	resets  int
}

func (f *fakeAIClient) GenerateChatWithTools(
	ctx context.Context,
	messages []ai.ChatMessage,
	tools []ai.Tool,
	opts ...ai.GenerateOption,
) (ai.ChatResult, error) {
	return f.result, f.err
}

func (f *fakeAIClient) ResetMetrics() {
	f.resets++
	f.metrics = ai.ModelMetrics{}
}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return f.metrics }

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

func newTestApp(t *testing.T, l loader.SnapshotLoader, aiClient ai.GraphAIClient) *mid.App {
	t.Helper()

	graphClient := graph.NewGraphClient(graph.NewGraphClientParams{Loader: l})
	app := &mid.App{Graph: graphClient}
	if aiClient != nil {
		app.Chat = query.NewGraphChatClient(aiClient, graphClient, query.WithTokenCounter(wordCounter{}))
	}
	return app
}

func do(t *testing.T, app *mid.App, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := New(app)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestApp(t, newSnapshotLoader(t), nil), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestPostEntityGraph(t *testing.T) {
	app := newTestApp(t, newSnapshotLoader(t), nil)

	rec := do(t, app, http.MethodPost, "/api/entity-graph", `{"entities":["component","tool"],"relations":["tests"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	g := decode[common.EntityGraph](t, rec)
	if len(g.Relations) != 1 || g.Relations[0].GUID != "r1" {
		t.Fatalf("relations = %+v", g.Relations)
	}
	if len(g.Entities) != 2 {
		t.Fatalf("entities = %+v", g.Entities)
	}
}

func TestPostEntityGraphEmptyArrays(t *testing.T) {
	app := newTestApp(t, newSnapshotLoader(t), nil)

	rec := do(t, app, http.MethodPost, "/api/entity-graph", `{"entities":[],"relations":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"entities":[],"relations":[]}` {
		t.Fatalf("body = %s", got)
	}
}

func TestPostEntityGraphRejectsNonArrays(t *testing.T) {
	l := &countingLoader{SnapshotLoader: newSnapshotLoader(t)}
	app := newTestApp(t, l, nil)

	bodies := []string{
		`{"entities":"component","relations":[]}`,
		`{"entities":[],"relations":{"a":1}}`,
		`{"entities":[]}`,
		`{"entities":null,"relations":[]}`,
		``,
	}
	for _, body := range bodies {
		for _, target := range []string{"/api/entity-graph", "/api/force-graph"} {
			rec := do(t, app, http.MethodPost, target, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("POST %s %q = %d, want 400", target, body, rec.Code)
			}
			resp := decode[map[string]string](t, rec)
			if resp["error"] != "entities and relations must be arrays" {
				t.Fatalf("error = %q", resp["error"])
			}
		}
	}

	if n := l.Calls(); n != 0 {
		t.Fatalf("rejected requests touched the store %d times", n)
	}

	rec := do(t, app, http.MethodPost, "/api/entity-graph", `{"entities":["tool"],"relations":[]}`)
	if rec.Code != http.StatusOK || l.Calls() == 0 {
		t.Fatalf("valid request = %d with %d store calls", rec.Code, l.Calls())
	}
}

func TestPostForceGraph(t *testing.T) {
	app := newTestApp(t, newSnapshotLoader(t), nil)

	rec := do(t, app, http.MethodPost, "/api/force-graph", `{"entities":["component"],"relations":["uses"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	g := decode[common.ForceGraph](t, rec)
	if len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("force graph = %+v", g)
	}
	if g.Links[0] != (common.ForceLink{Source: "c1", Target: "c2", Type: "uses"}) {
		t.Fatalf("link = %+v", g.Links[0])
	}
}

func TestGetEntities(t *testing.T) {
	rec := do(t, newTestApp(t, newSnapshotLoader(t), nil), http.MethodGet, "/api/entities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	resp := decode[struct {
		Entities []common.Entity `json:"entities"`
	}](t, rec)
	if len(resp.Entities) != 4 {
		t.Fatalf("expected 4 entities, got %d", len(resp.Entities))
	}
	if resp.Entities[0].Properties["owner"] != "ui" {
		t.Fatalf("first entity = %+v", resp.Entities[0])
	}
}

type unlistableLoader struct {
	loader.SnapshotLoader
}

func (unlistableLoader) ListFiles(ctx context.Context) ([]string, error) {
	return nil, errors.New("bucket unavailable")
}

func TestReadAllRoutesFailWhenStoreCannotBeListed(t *testing.T) {
	app := newTestApp(t, unlistableLoader{SnapshotLoader: newSnapshotLoader(t)}, nil)

	tests := []struct {
		target  string
		message string
	}{
		{target: "/api/entities", message: "Failed to load entities"},
		{target: "/api/relations", message: "Failed to load relations"},
		{target: "/api/types", message: "Failed to list snapshot types"},
	}
	for _, tc := range tests {
		rec := do(t, app, http.MethodGet, tc.target, "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("GET %s = %d, want 500", tc.target, rec.Code)
		}
		if resp := decode[map[string]string](t, rec); resp["error"] != tc.message {
			t.Fatalf("GET %s error = %q", tc.target, resp["error"])
		}
	}
}

func TestGetRelations(t *testing.T) {
	rec := do(t, newTestApp(t, newSnapshotLoader(t), nil), http.MethodGet, "/api/relations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	resp := decode[map[string][]map[string]string](t, rec)
	if len(resp) != 2 || len(resp["uses"]) != 1 || resp["uses"][0]["source_guid"] != "c1" {
		t.Fatalf("relations = %v", resp)
	}
}

func TestGetTypes(t *testing.T) {
	rec := do(t, newTestApp(t, newSnapshotLoader(t), nil), http.MethodGet, "/api/types", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"entities":["component","tool"],"relations":["tests","uses"]}` {
		t.Fatalf("body = %s", got)
	}
}

func TestPostChat(t *testing.T) {
	fake := &fakeAIClient{result: ai.ChatResult{
		Content:   "Proposing it.",
		ToolCalls: []ai.ToolCall{{ID: "call_1", Name: "create_entity", Arguments: `{"name":"Slider","type":"component"}`}},
		Usage:     ai.ModelMetrics{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}}
	app := newTestApp(t, newSnapshotLoader(t), fake)

	rec := do(t, app, http.MethodPost, "/api/chat", `{"messages":[{"role":"system","content":"hi"},{"role":"user","content":"add a slider"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decode[struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		ToolCalls []ai.ToolCall   `json:"tool_calls"`
		Usage     ai.ModelMetrics `json:"usage"`
	}](t, rec)
	if resp.Message.Role != "assistant" || resp.Message.Content != "Proposing it." {
		t.Fatalf("message = %+v", resp.Message)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "create_entity" {
		t.Fatalf("tool_calls = %+v", resp.ToolCalls)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("usage = %+v", resp.Usage)
	}

	// snapshots are never modified by chat
	entities := do(t, app, http.MethodGet, "/api/entities", "")
	if strings.Contains(entities.Body.String(), "Slider") {
		t.Fatal("chat tool call was applied to the snapshots")
	}
}

func TestPostChatWithoutBackend(t *testing.T) {
	rec := do(t, newTestApp(t, newSnapshotLoader(t), nil), http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestPostChatInvalidRequest(t *testing.T) {
	app := newTestApp(t, newSnapshotLoader(t), &fakeAIClient{})

	for _, body := range []string{`{}`, `{"messages":"hi"}`, `{"messages":[{"role":"robot","content":"hi"}]}`} {
		rec := do(t, app, http.MethodPost, "/api/chat", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("POST /api/chat %s = %d, want 400", body, rec.Code)
		}
	}
}

func TestPostChatFailure(t *testing.T) {
	app := newTestApp(t, newSnapshotLoader(t), &fakeAIClient{err: errors.New("upstream timeout")})

	rec := do(t, app, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decode[map[string]string](t, rec)
	if resp["error"] != "Failed to process chat request." || resp["details"] != "upstream timeout" {
		t.Fatalf("body = %v", resp)
	}
}

func TestChatMetrics(t *testing.T) {
	fake := &fakeAIClient{metrics: ai.ModelMetrics{InputTokens: 30, OutputTokens: 12, TotalTokens: 42}}
	app := newTestApp(t, newSnapshotLoader(t), fake)

	rec := do(t, app, http.MethodGet, "/api/chat/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[ai.ModelMetrics](t, rec); got.TotalTokens != 42 {
		t.Fatalf("GET metrics = %+v", got)
	}

	rec = do(t, app, http.MethodDelete, "/api/chat/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[ai.ModelMetrics](t, rec); got.TotalTokens != 42 {
		t.Fatalf("DELETE metrics = %+v, want the totals before the reset", got)
	}
	if fake.resets != 1 {
		t.Fatalf("resets = %d, want 1", fake.resets)
	}

	rec = do(t, app, http.MethodGet, "/api/chat/metrics", "")
	if got := decode[ai.ModelMetrics](t, rec); got.TotalTokens != 0 {
		t.Fatalf("metrics after reset = %+v", got)
	}
}

func TestChatMetricsWithoutBackend(t *testing.T) {
	app := newTestApp(t, newSnapshotLoader(t), nil)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := do(t, app, method, "/api/chat/metrics", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s /api/chat/metrics = %d, want 503", method, rec.Code)
		}
	}
}
