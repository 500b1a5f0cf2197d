package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"solendir/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestGenerate_PostsNonStreamingRequest(t *testing.T) {
	var got map[string]any
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","response":"Hello there","done":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	res, err := client.Generate(context.Background(), model.GenerateRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotPath != "/api/generate" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	want := map[string]any{"model": DefaultModel, "prompt": "hi", "stream": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
	if !res.Answered || res.Text != "Hello there" {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestGenerate_MissingOrNullResponseIsUnanswered(t *testing.T) {
	for _, body := range []string{`{"done":true}`, `{"response":null,"done":true}`} {
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
				Header:     make(http.Header),
				Request:    r,
			}, nil
		})
		client := NewClient("", 0)
		client.HTTPClient = &http.Client{Transport: rt}

		res, err := client.Generate(context.Background(), model.GenerateRequest{Model: "llama3", Prompt: "x"})
		if err != nil {
			t.Fatalf("%s: Generate failed: %v", body, err)
		}
		if res.Answered {
			t.Fatalf("%s: expected unanswered result, got %#v", body, res)
		}
	}
}

func TestGenerate_EmptyResponseStillAnswered(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{"response":""}`)),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	})
	client := NewClient("", 0)
	client.HTTPClient = &http.Client{Transport: rt}

	res, err := client.Generate(context.Background(), model.GenerateRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !res.Answered || res.Text != "" {
		t.Fatalf("expected answered empty text, got %#v", res)
	}
}

func TestGenerate_ErrorKinds(t *testing.T) {
	t.Run("upstream 500", func(t *testing.T) {
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(bytes.NewBufferString(`{"error":"model 'llama3' not found"}`)),
				Header:     make(http.Header),
				Request:    r,
			}, nil
		})
		client := NewClient("", 0)
		client.HTTPClient = &http.Client{Transport: rt}
		_, err := client.Generate(context.Background(), model.GenerateRequest{Prompt: "x"})
		var pe *model.ProviderError
		if !errors.As(err, &pe) || pe.Kind != model.KindUpstream || pe.StatusCode != 500 {
			t.Fatalf("unexpected error: %#v", err)
		}
	})
	t.Run("network", func(t *testing.T) {
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})
		client := NewClient("", 0)
		client.HTTPClient = &http.Client{Transport: rt}
		_, err := client.Generate(context.Background(), model.GenerateRequest{Prompt: "x"})
		if model.KindOf(err) != model.KindNetwork {
			t.Fatalf("expected network kind, got %v", err)
		}
	})
	t.Run("malformed body", func(t *testing.T) {
		rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`not-json`)),
				Header:     make(http.Header),
				Request:    r,
			}, nil
		})
		client := NewClient("", 0)
		client.HTTPClient = &http.Client{Transport: rt}
		_, err := client.Generate(context.Background(), model.GenerateRequest{Prompt: "x"})
		if model.KindOf(err) != model.KindParse {
			t.Fatalf("expected parse kind, got %v", err)
		}
	})
}

func TestGenerate_HonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.Generate(context.Background(), model.GenerateRequest{Prompt: "slow"})
	if model.KindOf(err) != model.KindNetwork {
		t.Fatalf("expected network kind on timeout, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"version":"0.3.12"}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, time.Second).Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if got != "0.3.12" {
		t.Fatalf("version = %q", got)
	}
}

func TestVersion_Unreachable(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	client := &Client{BaseURL: "http://ollama.invalid", HTTPClient: &http.Client{Transport: rt}}

	_, err := client.Version(context.Background())
	if model.KindOf(err) != model.KindNetwork {
		t.Fatalf("kind = %q, want network (err=%v)", model.KindOf(err), err)
	}
}
