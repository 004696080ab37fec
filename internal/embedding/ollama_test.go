package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fadilmartias/resume-matcher/internal/config"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, srv *httptest.Server, model string) *OllamaClient {
	t.Helper()
	cfg := &config.OllamaConfig{Host: "localhost", Port: 11434, Timeout: 5}
	c := NewOllamaClient(cfg, model, 1000, zap.NewNop())
	c.http.SetBaseURL(srv.URL)
	return c
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"},{"model":"all-minilm"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "nomic-embed-text")
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 2 || models[0] != "nomic-embed-text:latest" || models[1] != "all-minilm" {
		t.Errorf("models = %v", models)
	}
}

func TestEnsureModelReadyMemoized(t *testing.T) {
	var tagCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			atomic.AddInt32(&tagCalls, 1)
			_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"}]}`))
			return
		}
		t.Errorf("unexpected path %s", r.URL.Path)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "nomic-embed-text")
	for i := 0; i < 3; i++ {
		if !c.EnsureModelReady(context.Background()) {
			t.Fatalf("call %d: model should be ready", i)
		}
	}
	if n := atomic.LoadInt32(&tagCalls); n != 1 {
		t.Errorf("tags endpoint hit %d times, want 1", n)
	}
}

func TestEnsureModelReadyPullsMissingModel(t *testing.T) {
	var pulled int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"other-model"}]}`))
		case "/api/pull":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["name"] != "nomic-embed-text" {
				t.Errorf("pulled %v, want nomic-embed-text", body["name"])
			}
			atomic.AddInt32(&pulled, 1)
			_, _ = w.Write([]byte(`{"status":"success"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "nomic-embed-text")
	if !c.EnsureModelReady(context.Background()) {
		t.Fatal("model should be ready after pull")
	}
	if atomic.LoadInt32(&pulled) != 1 {
		t.Error("expected exactly one pull")
	}
}

func TestGenerateEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text"}]}`))
		case "/api/embeddings":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["model"] != "nomic-embed-text" {
				t.Errorf("model = %v", body["model"])
			}
			_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "nomic-embed-text")
	vec, err := c.GenerateEmbedding(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("vector length = %d, want 3", len(vec))
	}
	if vec[0] != 0.1 || vec[2] != 0.3 {
		t.Errorf("vector = %v", vec)
	}
}

func TestGenerateEmbeddingRejectsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[{"name":"m"}]}`))
			return
		}
		t.Errorf("no embedding request expected, got %s", r.URL.Path)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "m")
	if _, err := c.GenerateEmbedding(context.Background(), "   \n\t  "); err == nil {
		t.Error("expected an error for whitespace-only text")
	}
}

func TestGenerateEmbeddingsBatchKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"m"}]}`))
		case "/api/embeddings":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			prompt, _ := body["prompt"].(string)
			if strings.Contains(prompt, "bad") {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"embedding":[1.0]}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "m")
	got := c.GenerateEmbeddingsBatch(context.Background(), []string{"first", "bad one", "third"})
	if len(got) != 3 {
		t.Fatalf("batch length = %d, want 3", len(got))
	}
	if got[0] == nil || got[2] == nil {
		t.Error("successful slots should be populated")
	}
	if got[1] != nil {
		t.Error("failed slot should be nil")
	}
}
