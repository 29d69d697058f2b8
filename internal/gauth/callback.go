package gauth

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// callbackServer receives the OAuth redirect on a loopback port.
type callbackServer struct {
	server      *http.Server
	listener    net.Listener
	redirectURI string
	state       string
	codeCh      chan string
	errCh       chan error
	logger      *logrus.Logger
	mu          sync.Mutex
	started     bool
}

func newCallbackServer(logger *logrus.Logger, state string) *callbackServer {
	return &callbackServer{
		state:  state,
		codeCh: make(chan string, 1),
		errCh:  make(chan error, 1),
		logger: logger,
	}
}

// Start binds the server on 127.0.0.1. Port 0 picks a free port; the
// resulting redirect URI is available via RedirectURI.
func (s *callbackServer) Start(ctx context.Context, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("callback server is already started")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	s.redirectURI = fmt.Sprintf("http://127.0.0.1:%d/callback", listener.Addr().(*net.TCPAddr).Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.started = true

	go func() {
		s.logger.Debugf("OAuth callback server listening on %s", s.redirectURI)
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Callback server error")
			s.reportError(err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	return nil
}

// Stop shuts the server down, draining in-flight requests briefly.
func (s *callbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("Error shutting down callback server")
		return err
	}
	s.logger.Debug("OAuth callback server stopped")
	return nil
}

// RedirectURI returns the redirect URI for this server. Valid after Start.
func (s *callbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirectURI
}

// AuthCode returns the channel carrying the authorization code.
func (s *callbackServer) AuthCode() <-chan string {
	return s.codeCh
}

// Err returns the channel carrying callback failures.
func (s *callbackServer) Err() <-chan error {
	return s.errCh
}

func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writePage(w, http.StatusMethodNotAllowed, "Method Not Allowed", "Only GET requests are allowed")
		return
	}

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = "authorization failed"
		}
		s.logger.Warnf("OAuth error received: %s - %s", errParam, desc)
		s.writePage(w, http.StatusBadRequest, "Authorization Failed", desc)
		s.reportError(fmt.Errorf("oauth error: %s - %s", errParam, desc))
		return
	}

	// The state round-trips through Google unchanged; anything else is a
	// forged or stale redirect.
	if query.Get("state") != s.state {
		s.logger.Warn("OAuth callback state mismatch")
		s.writePage(w, http.StatusBadRequest, "Invalid Request", "State parameter does not match")
		s.reportError(fmt.Errorf("oauth state mismatch"))
		return
	}

	code := query.Get("code")
	if code == "" {
		s.logger.Warn("No authorization code received in callback")
		s.writePage(w, http.StatusBadRequest, "Invalid Request", "No authorization code received")
		s.reportError(fmt.Errorf("no authorization code received"))
		return
	}

	s.writePage(w, http.StatusOK, "Authorization Successful", "You can close this window and return to the terminal.")

	select {
	case s.codeCh <- code:
		s.logger.Debug("Authorization code received")
	default:
		s.logger.Warn("Authorization code channel is full")
	}
}

func (s *callbackServer) reportError(err error) {
	select {
	case s.errCh <- err:
	default:
		// A result is already pending.
	}
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .container { max-width: 600px; margin: 0 auto; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>`))

func (s *callbackServer) writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	data := struct {
		Title   string
		Message string
	}{Title: title, Message: message}

	if err := callbackPage.Execute(w, data); err != nil {
		s.logger.WithError(err).Warn("Failed to render callback page")
	}
}
