package gauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: tokenURL,
		},
	}
}

// captureURLFlow wires openURL to a channel so the test can play the
// browser's role.
func captureURLFlow(cfg *oauth2.Config, openErr error) (*Flow, <-chan string) {
	flow := NewFlow(cfg, discardLogger())
	authURLCh := make(chan string, 1)
	flow.openURL = func(u string) error {
		authURLCh <- u
		return openErr
	}
	return flow, authURLCh
}

type flowResult struct {
	tok *oauth2.Token
	err error
}

func runFlow(flow *Flow) <-chan flowResult {
	resultCh := make(chan flowResult, 1)
	go func() {
		tok, err := flow.Run(context.Background())
		resultCh <- flowResult{tok, err}
	}()
	return resultCh
}

func TestFlowRunExchangesCode(t *testing.T) {
	exchanged := make(chan url.Values, 1)
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Runs on the server goroutine, so no require here.
		if err := r.ParseForm(); err != nil {
			t.Error(err)
			return
		}
		exchanged <- r.PostForm
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-123","token_type":"Bearer","refresh_token":"rt-456","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	flow, authURLCh := captureURLFlow(testOAuthConfig(tokenSrv.URL), nil)
	resultCh := runFlow(flow)

	authURL := <-authURLCh
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "test-client", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	state := q.Get("state")
	require.NotEmpty(t, state)
	redirect := q.Get("redirect_uri")
	require.True(t, strings.HasPrefix(redirect, "http://127.0.0.1:"), "redirect URI %q must be loopback", redirect)

	resp, err := http.Get(redirect + "?" + url.Values{"state": {state}, "code": {"code-789"}}.Encode())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	res := <-resultCh
	require.NoError(t, res.err)
	assert.Equal(t, "at-123", res.tok.AccessToken)
	assert.Equal(t, "rt-456", res.tok.RefreshToken)

	form := <-exchanged
	assert.Equal(t, "code-789", form.Get("code"))
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, redirect, form.Get("redirect_uri"))
}

func TestFlowRejectsStateMismatch(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be called on state mismatch")
	}))
	defer tokenSrv.Close()

	flow, authURLCh := captureURLFlow(testOAuthConfig(tokenSrv.URL), nil)
	resultCh := runFlow(flow)

	authURL := <-authURLCh
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	redirect := parsed.Query().Get("redirect_uri")

	resp, err := http.Get(redirect + "?" + url.Values{"state": {"forged"}, "code": {"code-789"}}.Encode())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	select {
	case res := <-resultCh:
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "state mismatch")
	case <-time.After(5 * time.Second):
		t.Fatal("flow did not fail after state mismatch")
	}
}

func TestFlowSurvivesBrowserFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-1","token_type":"Bearer"}`)
	}))
	defer tokenSrv.Close()

	// The URL still reaches the user through the log, so the flow keeps
	// waiting for a manually completed redirect.
	flow, authURLCh := captureURLFlow(testOAuthConfig(tokenSrv.URL), errors.New("no browser available"))
	resultCh := runFlow(flow)

	authURL := <-authURLCh
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()

	resp, err := http.Get(q.Get("redirect_uri") + "?" + url.Values{"state": {q.Get("state")}, "code": {"code-1"}}.Encode())
	require.NoError(t, err)
	_ = resp.Body.Close()

	res := <-resultCh
	require.NoError(t, res.err)
	assert.Equal(t, "at-1", res.tok.AccessToken)
}

func TestFlowTimesOutWithoutCallback(t *testing.T) {
	flow, _ := captureURLFlow(testOAuthConfig("https://oauth2.example.com/token"), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := flow.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
