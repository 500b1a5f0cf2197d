package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClient_ChatSendsMessageAndOverride(t *testing.T) {
	var gotBody map[string]string
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotHeader = r.Header.Get("X-Notion-Token")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"response":"hello back"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	c.NotionToken = "secret"
	got, err := c.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "hello back" {
		t.Fatalf("Chat = %q", got)
	}
	if diff := cmp.Diff(map[string]string{"message": "hello"}, gotBody); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if gotHeader != "secret" {
		t.Fatalf("override header = %q", gotHeader)
	}
}

func TestClient_PagesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"No Notion token set."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Pages(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "No Notion token set." {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestClient_PagesForwardsCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("cursor"); got != "a b" {
			t.Errorf("cursor = %q", got)
		}
		_, _ = w.Write([]byte(`{"raw":{"object":"list"}}`))
	}))
	defer srv.Close()

	raw, err := New(srv.URL).Pages(context.Background(), "a b")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if string(raw) != `{"object":"list"}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"field required: token"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).SetToken(context.Background(), "x")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != 422 || statusErr.Message != "field required: token" {
		t.Fatalf("unexpected error: %+v", statusErr)
	}
}

func TestClient_ClearTokenAndHealth(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"message":"Solendir backend is running!"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.ClearToken(context.Background()); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	msg, err := c.Health(context.Background())
	if err != nil || msg != "Solendir backend is running!" {
		t.Fatalf("Health = %q, %v", msg, err)
	}
	if diff := cmp.Diff([]string{"DELETE /notion/token", "GET /"}, methods); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}
