package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSession_GetSetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	session := NewSession(2 * time.Second)
	defer session.Close()

	body, status, err := session.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("Expected 200, got %d", status)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("Unexpected body: %s", body)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("Expected browser UA, got %q", gotUA)
	}
}

func TestSession_NonOKStatusReturnsNoBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`slow down`))
	}))
	defer server.Close()

	session := NewSession(2 * time.Second)
	defer session.Close()

	body, status, err := session.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if status != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", status)
	}
	if body != nil {
		t.Errorf("Expected no body for non-200, got %s", body)
	}
}

func TestSession_TransportErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	session := NewSession(time.Second)
	defer session.Close()

	if _, _, err := session.Get(context.Background(), server.URL); err == nil {
		t.Error("Expected transport error for closed server")
	}
}

func TestSession_UseAfterClosePanics(t *testing.T) {
	session := NewSession(time.Second)
	session.Close()

	// Close is idempotent
	session.Close()

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on Get after Close")
		}
	}()
	session.Get(context.Background(), "http://127.0.0.1:0/")
}
