package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"solendir/internal/model"
	"solendir/internal/relay"
	"solendir/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSearcher struct {
	mu      sync.Mutex
	result  model.SearchResult
	err     error
	tokens  []string
	queries []model.SearchQuery
}

func (f *fakeSearcher) Search(_ context.Context, token string, q model.SearchQuery) (model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	f.queries = append(f.queries, q)
	return f.result, f.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	result  model.GenerateResult
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, req model.GenerateRequest) (model.GenerateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	return f.result, f.err
}

type harness struct {
	searcher  *fakeSearcher
	generator *fakeGenerator
	tokens    *store.MemoryTokenStore
	handler   http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		searcher:  &fakeSearcher{},
		generator: &fakeGenerator{result: model.GenerateResult{Text: "hi there", Answered: true}},
		tokens:    store.NewMemoryTokenStore(),
	}
	svc := relay.NewService(h.searcher, h.generator, relay.Options{Model: "llama3"})
	h.handler = New(svc, h.tokens, Options{AllowedOrigins: []string{"*"}}).Handler()
	return h
}

func (h *harness) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("response is not JSON: %v (%q)", err, rec.Body.String())
		}
	}
	return rec, out
}

func TestRoot_Liveness(t *testing.T) {
	h := newHarness(t)
	rec, out := h.do(t, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if diff := cmp.Diff(map[string]any{"message": "Solendir backend is running!"}, out); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestChat_PlainMessage(t *testing.T) {
	h := newHarness(t)
	rec, out := h.do(t, http.MethodPost, "/chat", `{"message":"hello"}`, nil)
	if rec.Code != http.StatusOK || out["response"] != "hi there" {
		t.Fatalf("got %d %v", rec.Code, out)
	}
	if diff := cmp.Diff([]string{"hello"}, h.generator.prompts); diff != "" {
		t.Fatalf("prompt mismatch (-want +got):\n%s", diff)
	}
	if len(h.searcher.tokens) != 0 {
		t.Fatal("no token is stored, so no search should happen")
	}
}

func TestChat_UsesStoredToken(t *testing.T) {
	h := newHarness(t)
	if _, out := h.do(t, http.MethodPost, "/notion/token", `{"token":"secret_1"}`, nil); out["status"] != "ok" {
		t.Fatalf("set token: %v", out)
	}
	h.searcher.result = model.SearchResult{Items: []model.WorkspaceItem{{Kind: model.ObjectPage, ID: "p1", Title: "Diet Plan", URL: "https://notion.so/p1"}}}

	h.do(t, http.MethodPost, "/chat", `{"message":"summarize my diet"}`, nil)

	if diff := cmp.Diff([]string{"secret_1"}, h.searcher.tokens); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
	if h.searcher.queries[0].PageSize != 20 {
		t.Fatalf("chat page size = %d, want 20", h.searcher.queries[0].PageSize)
	}
	want := "User's Notion items:\nPage: Diet Plan (https://notion.so/p1)\nUser question: summarize my diet\nAnswer as a helpful assistant."
	if h.generator.prompts[0] != want {
		t.Fatalf("prompt = %q\nwant %q", h.generator.prompts[0], want)
	}
}

func TestChat_HeaderOverridesStoredToken(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/notion/token", `{"token":"stored"}`, nil)

	h.do(t, http.MethodPost, "/chat", `{"message":"list my pages"}`, map[string]string{NotionTokenHeader: "override"})

	if diff := cmp.Diff([]string{"override"}, h.searcher.tokens); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
	stored, _, _ := h.tokens.Get(context.Background(), model.ProviderNotion)
	if stored != "stored" {
		t.Fatalf("override must not replace the stored token, got %q", stored)
	}
}

func TestChat_GeneratorFailureIsStringified(t *testing.T) {
	h := newHarness(t)
	h.generator.err = &model.ProviderError{Provider: "ollama", Kind: model.KindNetwork, Message: "request failed", Cause: errors.New("connection refused")}

	rec, out := h.do(t, http.MethodPost, "/chat", `{"message":"hello"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := "Error: ollama: request failed: connection refused"
	if out["response"] != want {
		t.Fatalf("response = %v, want %q", out["response"], want)
	}
}

func TestChat_PlaceholderWhenUnanswered(t *testing.T) {
	h := newHarness(t)
	h.generator.result = model.GenerateResult{}

	_, out := h.do(t, http.MethodPost, "/chat", `{"message":"hello"}`, nil)
	if out["response"] != relay.NoResponsePlaceholder {
		t.Fatalf("response = %v", out["response"])
	}
}

func TestMalformedBodiesAreRejected(t *testing.T) {
	tests := []struct {
		name, path, body string
	}{
		{"chat empty", "/chat", ""},
		{"chat invalid json", "/chat", "{"},
		{"chat missing field", "/chat", `{"msg":"hi"}`},
		{"chat wrong type", "/chat", `{"message":42}`},
		{"token missing field", "/notion/token", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec, out := h.do(t, http.MethodPost, tt.path, tt.body, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			if _, ok := out["error"]; !ok {
				t.Fatalf("expected error field, got %v", out)
			}
			if len(h.generator.prompts) != 0 {
				t.Fatal("rejected request must not reach the generator")
			}
		})
	}
}

func TestSetToken_OverwritesAndAcceptsEmpty(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/notion/token", `{"token":"first"}`, nil)
	h.do(t, http.MethodPost, "/notion/token", `{"token":""}`, nil)

	token, ok, err := h.tokens.Get(context.Background(), model.ProviderNotion)
	if err != nil || !ok || token != "" {
		t.Fatalf("Get = %q, %v, %v; want empty stored token", token, ok, err)
	}
}

func TestBlankStoredTokenCountsAsUnset(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/notion/token", `{"token":"   "}`, nil)

	_, out := h.do(t, http.MethodGet, "/notion/pages", "", nil)
	if out["error"] != "No Notion token set." {
		t.Fatalf("pages = %v", out)
	}

	h.do(t, http.MethodPost, "/chat", `{"message":"my page"}`, nil)
	if diff := cmp.Diff([]string{"my page"}, h.generator.prompts); diff != "" {
		t.Fatalf("prompt mismatch (-want +got):\n%s", diff)
	}
	if len(h.searcher.tokens) != 0 {
		t.Fatalf("no search expected, got tokens %q", h.searcher.tokens)
	}
}

func TestClearToken(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/notion/token", `{"token":"first"}`, nil)

	rec, out := h.do(t, http.MethodDelete, "/notion/token", "", nil)
	if rec.Code != http.StatusOK || out["status"] != "ok" {
		t.Fatalf("got %d %v", rec.Code, out)
	}
	if _, ok, _ := h.tokens.Get(context.Background(), model.ProviderNotion); ok {
		t.Fatal("token should be cleared")
	}
}

func TestPages_NoToken(t *testing.T) {
	h := newHarness(t)
	rec, out := h.do(t, http.MethodGet, "/notion/pages", "", nil)
	if rec.Code != http.StatusOK || out["error"] != "No Notion token set." {
		t.Fatalf("got %d %v", rec.Code, out)
	}
	if len(h.searcher.tokens) != 0 {
		t.Fatal("no outbound call expected")
	}
}

func TestPages_RawPassThroughWithCursor(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/notion/token", `{"token":"secret"}`, nil)
	h.searcher.result = model.SearchResult{Raw: json.RawMessage(`{"object":"list","results":[],"has_more":false}`)}

	_, out := h.do(t, http.MethodGet, "/notion/pages?cursor=abc", "", nil)

	want := map[string]any{"raw": map[string]any{"object": "list", "results": []any{}, "has_more": false}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"secret"}, h.searcher.tokens); diff != "" {
		t.Fatalf("search token mismatch (-want +got):\n%s", diff)
	}
	q := h.searcher.queries[0]
	if q.PageSize != 10 || q.StartCursor != "abc" {
		t.Fatalf("query = %+v", q)
	}
}

func TestPages_SearchFailure(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/notion/token", `{"token":"bad"}`, nil)
	h.searcher.err = &model.ProviderError{Provider: "notion", Kind: model.KindAuth, Message: "status 401", StatusCode: 401}

	rec, out := h.do(t, http.MethodGet, "/notion/pages", "", nil)
	if rec.Code != http.StatusOK || out["error"] != "notion: status 401" {
		t.Fatalf("got %d %v", rec.Code, out)
	}
}

func TestCORS_EchoesOriginWithCredentials(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(t, http.MethodGet, "/", "", map[string]string{"Origin": "http://localhost:3000"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("Allow-Credentials = %q", got)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	h := newHarness(t)
	svc := relay.NewService(h.searcher, h.generator, relay.Options{})
	srv := New(svc, h.tokens, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	transport := &http.Transport{DisableKeepAlives: true}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		cancel()
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
