package gauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func startTestCallbackServer(t *testing.T, state string) *callbackServer {
	t.Helper()
	srv := newCallbackServer(discardLogger(), state)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := srv.Start(ctx, 0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

func TestCallbackServerStartTwice(t *testing.T) {
	srv := startTestCallbackServer(t, "state")

	if err := srv.Start(context.Background(), 0); err == nil {
		t.Fatal("second Start should fail")
	}

	uri := srv.RedirectURI()
	if !strings.HasPrefix(uri, "http://127.0.0.1:") || !strings.HasSuffix(uri, "/callback") {
		t.Errorf("unexpected redirect URI %q", uri)
	}
}

func TestCallbackServerReportsProviderError(t *testing.T) {
	srv := startTestCallbackServer(t, "state")

	q := url.Values{"error": {"access_denied"}, "error_description": {"user denied access"}}
	resp, err := http.Get(srv.RedirectURI() + "?" + q.Encode())
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	select {
	case err := <-srv.Err():
		if !strings.Contains(err.Error(), "access_denied") {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestCallbackServerRejectsMissingCode(t *testing.T) {
	srv := startTestCallbackServer(t, "good-state")

	resp, err := http.Get(srv.RedirectURI() + "?" + url.Values{"state": {"good-state"}}.Encode())
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	select {
	case err := <-srv.Err():
		if !strings.Contains(err.Error(), "no authorization code") {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error reported")
	}
}

func TestCallbackServerStopBeforeStart(t *testing.T) {
	srv := newCallbackServer(discardLogger(), "state")
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop before Start should be a no-op: %v", err)
	}
}
