package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi/transport"
)

type ipv4Server struct {
	URL string
	srv *http.Server
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv}
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func chatRequest() GenerateRequest {
	return GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1}
}

func TestGenerateReturnsStructuredResponse(t *testing.T) {
	var got GenerateRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Request-Id", "req_ok")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "test-model",
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "ok"}}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
	req := chatRequest()
	req.TopP, req.TopK, req.Temperature = 0.95, 40, 0.15
	out, err := c.Generate(context.Background(), req)
	require.NoError(t, err)

	sr, ok := out.(StructuredResponse)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, "ok", sr.Content)
	assert.Equal(t, "req_ok", sr.RequestID)
	assert.Equal(t, 4, sr.Usage.TotalTokens)
	assert.Equal(t, 40, got.TopK)
	assert.InDelta(t, 0.95, got.TopP, 1e-9)
}

func TestGenerateDoesNotRetry(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), chatRequest())

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 2*time.Second, rl.RetryAfter)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), chatRequest())
	var br *BadRequestError
	require.ErrorAs(t, err, &br)
	assert.Contains(t, err.Error(), "req_test_123")
	assert.Contains(t, err.Error(), "bad req")
}

func TestClassifyAuthAndServerErrors(t *testing.T) {
	for _, tc := range []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{http.StatusBadGateway, func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
	} {
		srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
		_, err := c.Generate(context.Background(), chatRequest())
		assert.True(t, tc.check(err), "status %d: %v", tc.status, err)
		srv.Close()
	}
}

func TestGenerateMissingContent(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), chatRequest())
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGenerateWithoutKey(t *testing.T) {
	_, err := NewClient("", time.Second).Generate(context.Background(), chatRequest())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestText(t *testing.T) {
	s, err := Text(RawText("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	s, err = Text(StructuredResponse{Content: "wrapped"})
	require.NoError(t, err)
	assert.Equal(t, "wrapped", s)

	s, err = Text(&StructuredResponse{Content: "ptr"})
	require.NoError(t, err)
	assert.Equal(t, "ptr", s)

	_, err = Text(nil)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGetRuntime(t *testing.T) {
	rt, err := GetRuntime(context.Background(), "OLLAMA", RuntimeConfig{Host: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaClient{}, rt)

	_, err = GetRuntime(context.Background(), "openrouter", RuntimeConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = GetRuntime(context.Background(), "gemini", RuntimeConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = GetRuntime(context.Background(), "nope", RuntimeConfig{})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Equal(t, "gemini-pro", DefaultModel("gemini"))
}

func TestGeminiRuntimeHonoursHTTPTimeout(t *testing.T) {
	hc := geminiHTTPClient("k", 5*time.Second)
	require.NotNil(t, hc)
	assert.Equal(t, 5*time.Second, hc.Timeout)
	tr, ok := hc.Transport.(*transport.APIKey)
	require.True(t, ok)
	assert.Equal(t, "k", tr.Key)

	assert.Nil(t, geminiHTTPClient("k", 0))
	assert.Nil(t, geminiHTTPClient("", time.Second))

	rt, err := GetRuntime(context.Background(), "gemini", RuntimeConfig{APIKey: "k", HTTPTimeout: 5 * time.Second})
	require.NoError(t, err)
	gc, ok := rt.(*GeminiClient)
	require.True(t, ok)
	assert.NoError(t, gc.Close())
}
