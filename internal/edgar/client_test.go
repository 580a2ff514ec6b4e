package edgar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, timeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(&ClientConfig{
		UserAgent:         "edgarvault test@example.edu",
		Timeout:           timeout,
		RateLimitCapacity: 100,
		RateLimitRefill:   100,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestClient_GetOK(t *testing.T) {
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	client := newTestClient(t, 5*time.Second)
	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK() {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Text() != "payload" {
		t.Errorf("unexpected body: %q", resp.Text())
	}
	if gotUserAgent != "edgarvault test@example.edu" {
		t.Errorf("request missing identification header, got %q", gotUserAgent)
	}
}

func TestClient_SoftStatusPassThrough(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "bad request", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := newTestClient(t, 5*time.Second)
			resp, err := client.Get(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("soft status %d should not error, got: %v", tt.status, err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if resp.OK() {
				t.Error("non-200 response must not report OK")
			}
		})
	}
}

func TestClient_FatalStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reason FatalReason
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, reason: ReasonRateLimited},
		{name: "forbidden", status: http.StatusForbidden, reason: ReasonForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := newTestClient(t, 5*time.Second)
			_, err := client.Get(context.Background(), srv.URL)
			if err == nil {
				t.Fatalf("status %d must abort the run", tt.status)
			}

			var fatal *FatalError
			if !errors.As(err, &fatal) {
				t.Fatalf("expected *FatalError, got %T: %v", err, err)
			}
			if fatal.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, fatal.Reason)
			}
			if !IsFatal(err) {
				t.Error("IsFatal must report true")
			}
		})
	}
}

func TestClient_TimeoutBecomesSyntheticResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := newTestClient(t, 30*time.Millisecond)
	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("timeout must degrade to a synthetic response, got error: %v", err)
	}
	if resp.StatusCode != StatusTimeout {
		t.Errorf("expected synthetic status %d, got %d", StatusTimeout, resp.StatusCode)
	}
}

func TestClient_ConnectionErrorIsFatal(t *testing.T) {
	// Reserve a port, then close the listener so the connection is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	client := newTestClient(t, 5*time.Second)
	_, err := client.Get(context.Background(), deadURL)
	if err == nil {
		t.Fatal("connection failure must abort the run")
	}

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected *FatalError, got %T: %v", err, err)
	}
	if fatal.Reason != ReasonConnection {
		t.Errorf("expected reason %q, got %q", ReasonConnection, fatal.Reason)
	}
}

func TestClient_CancellationIsInterrupt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := newTestClient(t, 5*time.Second)
	_, err := client.Get(ctx, srv.URL)
	if err == nil {
		t.Fatal("cancelled request must abort the run")
	}

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected *FatalError, got %T: %v", err, err)
	}
	if fatal.Reason != ReasonInterrupted {
		t.Errorf("expected reason %q, got %q", ReasonInterrupted, fatal.Reason)
	}
}
