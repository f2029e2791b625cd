package mentor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newLocalHTTPServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping: cannot bind local test listener: %v", err)
	}

	srv := httptest.NewUnstartedServer(handler)
	srv.Listener = ln
	srv.Start()
	return srv
}

func TestOllamaGenerateSuccess(t *testing.T) {
	srv := newLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var req ollamaGenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %s", req.Model)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Options.NumPredict != 256 {
			t.Errorf("expected NumPredict=256, got %d", req.Options.NumPredict)
		}

		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "the answer is 42", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaGenerativeClient(srv.URL, "test-model", time.Second)
	answer, err := c.Generate(context.Background(), "what is the answer?", Budget{MaxTokens: 256, Temperature: 0.2})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "the answer is 42" {
		t.Errorf("answer = %q, want %q", answer, "the answer is 42")
	}
}

func TestOllamaGenerateNon2xxStatus(t *testing.T) {
	srv := newLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not loaded"))
	}))
	defer srv.Close()

	c := NewOllamaGenerativeClient(srv.URL, "test-model", time.Second)
	_, err := c.Generate(context.Background(), "hello", Budget{MaxTokens: 64})
	if err == nil {
		t.Fatal("Generate() error = nil, want an error for a 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %q, want it to mention the 500 status", err.Error())
	}
}

func TestOllamaGenerateMalformedResponseBody(t *testing.T) {
	srv := newLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewOllamaGenerativeClient(srv.URL, "test-model", time.Second)
	_, err := c.Generate(context.Background(), "hello", Budget{MaxTokens: 64})
	if err == nil {
		t.Fatal("Generate() error = nil, want a decode error for a malformed body")
	}
}

func TestOllamaGenerateConnectionRefused(t *testing.T) {
	c := NewOllamaGenerativeClient("http://127.0.0.1:1", "test-model", time.Second)
	_, err := c.Generate(context.Background(), "hello", Budget{MaxTokens: 64})
	if err == nil {
		t.Fatal("Generate() error = nil, want an error for a refused connection")
	}
}

func TestOllamaGenerateContextDeadlineExceeded(t *testing.T) {
	srv := newLocalHTTPServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "too slow"})
	}))
	defer srv.Close()

	// The caller's own deadline (not the client's dial/read timeout) is
	// what Generate inspects to report "generation timeout", since
	// ctx.Err() only observes cancellation on the context passed in.
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	c := NewOllamaGenerativeClient(srv.URL, "test-model", time.Second)
	_, err := c.Generate(ctx, "hello", Budget{MaxTokens: 64})
	if err == nil {
		t.Fatal("Generate() error = nil, want a timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error = %q, want it to mention a timeout", err.Error())
	}
}
