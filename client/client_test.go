package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vinayprograms/meshkit/errors"
	"github.com/vinayprograms/meshkit/logging"
	"github.com/vinayprograms/meshkit/tasks"
)

// newTestClient points a fast-retrying client at a test server.
func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	logger := logging.New()
	logger.SetLevel(logging.LevelError)
	c, err := New(Config{
		APIKey:            "test-key",
		BaseURL:           serverURL,
		MaxRetries:        3,
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		RequestsPerSecond: 1000,
		PollMaxAttempts:   10,
		PollInterval:      time.Millisecond,
		Logger:            logger,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing api key")
	}
	if _, err := New(Config{APIKey: "k"}); err != nil {
		t.Errorf("minimal config should be valid, got %v", err)
	}
}

func TestClient_AuthHeaderAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(map[string]string{"id": "tsk_1"})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	if _, err := c.TextTo3D.Create(context.Background(), TextTo3DRequest{
		Mode:   "preview",
		Prompt: "a crystal fox",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotReqID == "" {
		t.Error("expected an X-Request-ID header")
	}
}

func TestClient_RetriesRateLimitThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n <= 2 {
			w.WriteHeader(429)
			w.Write([]byte(`{"message":"slow down"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "tsk_2"})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	id, err := c.TextTo3D.Create(context.Background(), TextTo3DRequest{
		Mode:   "preview",
		Prompt: "a crystal fox",
	})
	if err != nil {
		t.Fatalf("Create failed after retryable 429s: %v", err)
	}
	if id != "tsk_2" {
		t.Errorf("id = %q, want tsk_2", id)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("server saw %d attempts, want 3", got)
	}
	// One window entry per completed call, even with retries
	if got := c.Gate().InWindow(); got != 1 {
		t.Errorf("rate window holds %d entries, want 1", got)
	}
}

func TestClient_UnauthorizedFailsImmediately(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(401)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	_, err := c.TextTo3D.Get(context.Background(), "tsk_3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("Code = %v, want UNAUTHORIZED", errors.Code(err))
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("server saw %d attempts, want exactly 1", got)
	}
	if got := c.Gate().InWindow(); got != 0 {
		t.Errorf("failed call should not charge the rate window, got %d entries", got)
	}
}

func TestClient_ExhaustedRetriesKeepLastError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(503)
		w.Write([]byte(`{"message":"deploying"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	_, err := c.TextTo3D.Get(context.Background(), "tsk_4")
	if err == nil {
		t.Fatal("expected error")
	}
	// The final error is the last classified failure, not a generic
	// exhaustion error.
	if !errors.Is(err, errors.ErrCodeServerError) {
		t.Errorf("Code = %v, want SERVER_ERROR", errors.Code(err))
	}
	if errors.HTTPStatus(err) != 503 {
		t.Errorf("HTTPStatus = %d, want 503", errors.HTTPStatus(err))
	}
	if err.Error() != "deploying" {
		t.Errorf("message = %q, want the service's own message", err.Error())
	}
	// MaxRetries=3 means 4 total attempts
	if got := atomic.LoadInt32(&attempts); got != 4 {
		t.Errorf("server saw %d attempts, want 4", got)
	}
}

func TestClient_TransportFailureClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	c := newTestClient(t, server.URL)
	defer c.Close()

	_, err := c.TextTo3D.Get(context.Background(), "tsk_5")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("Code = %v, want TRANSPORT", errors.Code(err))
	}
}

func TestClient_OnRetryHook(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(500)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "tsk_6"})
	}))
	defer server.Close()

	type retryEvent struct {
		attempt int
		delay   time.Duration
		code    errors.ErrorCode
	}
	var events []retryEvent

	logger := logging.New()
	logger.SetLevel(logging.LevelError)
	c, err := New(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		MaxRetries:        2,
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		RequestsPerSecond: 1000,
		Logger:            logger,
		OnRetry: func(attempt int, delay time.Duration, cause error) {
			events = append(events, retryEvent{attempt, delay, errors.Code(cause)})
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.TextTo3D.Create(context.Background(), TextTo3DRequest{
		Mode:   "preview",
		Prompt: "a crystal fox",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("observer saw %d retries, want 1", len(events))
	}
	if events[0].attempt != 0 {
		t.Errorf("attempt = %d, want 0", events[0].attempt)
	}
	if events[0].code != errors.ErrCodeServerError {
		t.Errorf("cause = %v, want SERVER_ERROR", events[0].code)
	}
	if events[0].delay <= 0 {
		t.Errorf("delay = %v, want positive", events[0].delay)
	}
}

func TestClient_ContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
	}))
	defer server.Close()

	logger := logging.New()
	logger.SetLevel(logging.LevelError)
	c, err := New(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		MaxRetries:        5,
		BaseDelay:         10 * time.Second, // long enough that cancel wins
		RequestsPerSecond: 1000,
		Logger:            logger,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.TextTo3D.Get(ctx, "tsk_7")
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v, should interrupt the backoff", elapsed)
	}
}

func TestService_GetDecodesTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/text-to-3d/tsk_8" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{
			"id": "tsk_8",
			"status": "in_progress",
			"progress": 40
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	task, err := c.TextTo3D.Get(context.Background(), "tsk_8")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if task.ID != "tsk_8" || task.Status != tasks.StatusInProgress || task.Progress != 40 {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestService_Delete(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(204)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	if err := c.Rigging.Delete(context.Background(), "tsk_9"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/rigging/tsk_9" {
		t.Errorf("got %s %s, want DELETE /rigging/tsk_9", gotMethod, gotPath)
	}
}

func TestTextTo3D_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-3d" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page_num") != "2" || q.Get("page_size") != "10" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"id": "tsk_a", "status": "succeeded", "progress": 100},
			{"id": "tsk_b", "status": "pending", "progress": 0}
		]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	page, err := c.TextTo3D.List(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d tasks, want 2", len(page))
	}
	if page[0].ID != "tsk_a" || page[1].Status != tasks.StatusPending {
		t.Errorf("unexpected page: %+v %+v", page[0], page[1])
	}
}

func TestService_WaitDrivesTaskToCompletion(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&polls, 1) {
		case 1:
			w.Write([]byte(`{"id":"tsk_c","status":"pending","progress":0}`))
		case 2:
			w.Write([]byte(`{"id":"tsk_c","status":"in_progress","progress":60}`))
		default:
			w.Write([]byte(`{"id":"tsk_c","status":"succeeded","progress":100,` +
				`"result":{"model_urls":{"glb":"https://assets.example/c.glb"}}}`))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	task, err := c.Animation.Wait(context.Background(), "tsk_c")
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !task.Succeeded() {
		t.Errorf("Status = %v, want succeeded", task.Status)
	}

	var manifest ModelManifest
	if err := task.DecodeResult(&manifest); err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if manifest.ModelURLs["glb"] != "https://assets.example/c.glb" {
		t.Errorf("unexpected manifest: %+v", manifest)
	}
}

func TestService_WaitSurfacesTaskFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"tsk_d","status":"failed","task_error":"mesh degenerated"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	_, err := c.Retexture.Wait(context.Background(), "tsk_d")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeTaskFailed) {
		t.Errorf("Code = %v, want TASK_FAILED", errors.Code(err))
	}
	if errors.TaskID(err) != "tsk_d" {
		t.Errorf("TaskID = %q, want tsk_d", errors.TaskID(err))
	}
}

func TestService_WaitAbsorbsInitial404(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) == 1 {
			w.WriteHeader(404)
			w.Write([]byte(`{"message":"task not found"}`))
			return
		}
		w.Write([]byte(`{"id":"tsk_e","status":"succeeded","progress":100}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	defer c.Close()

	task, err := c.TextTo3D.Wait(context.Background(), "tsk_e")
	if err != nil {
		t.Fatalf("Wait failed despite eventual-consistency grace: %v", err)
	}
	if !task.Succeeded() {
		t.Errorf("Status = %v, want succeeded", task.Status)
	}
}

func TestRequestValidation(t *testing.T) {
	c := newTestClient(t, "http://unused.invalid")
	defer c.Close()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"preview without prompt", func() error {
			_, err := c.TextTo3D.Create(ctx, TextTo3DRequest{Mode: "preview"})
			return err
		}},
		{"refine without preview task", func() error {
			_, err := c.TextTo3D.Create(ctx, TextTo3DRequest{Mode: "refine"})
			return err
		}},
		{"unknown mode", func() error {
			_, err := c.TextTo3D.Create(ctx, TextTo3DRequest{Mode: "sculpt", Prompt: "x"})
			return err
		}},
		{"rigging without source", func() error {
			_, err := c.Rigging.Create(ctx, RiggingRequest{})
			return err
		}},
		{"rigging with both sources", func() error {
			_, err := c.Rigging.Create(ctx, RiggingRequest{InputTaskID: "a", ModelURL: "b"})
			return err
		}},
		{"retexture without style", func() error {
			_, err := c.Retexture.Create(ctx, RetextureRequest{InputTaskID: "a"})
			return err
		}},
		{"animation without action", func() error {
			_, err := c.Animation.Create(ctx, AnimationRequest{InputTaskID: "a"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, errors.ErrCodeBadRequest) {
				t.Errorf("Code = %v, want BAD_REQUEST", errors.Code(err))
			}
		})
	}
}

func TestClient_NegativeMaxRetriesDisablesRetries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(503)
	}))
	defer server.Close()

	logger := logging.New()
	logger.SetLevel(logging.LevelError)
	c, err := New(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		MaxRetries:        -1,
		BaseDelay:         time.Millisecond,
		RequestsPerSecond: 1000,
		Logger:            logger,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	_, err = c.TextTo3D.Get(context.Background(), "tsk_10")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrCodeServerError) {
		t.Errorf("Code = %v, want SERVER_ERROR", errors.Code(err))
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("server saw %d attempts, want exactly 1 with retries disabled", got)
	}
}
