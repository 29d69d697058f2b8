package gauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const flowTimeout = 5 * time.Minute

// Flow runs the installed-app consent flow: a loopback callback server,
// the system browser pointed at Google's consent page, and a code
// exchange once the redirect lands.
type Flow struct {
	cfg    *oauth2.Config
	logger *logrus.Logger

	// openURL is swapped out in tests.
	openURL func(url string) error
}

// NewFlow creates a browser consent flow for the given client config.
func NewFlow(cfg *oauth2.Config, logger *logrus.Logger) *Flow {
	return &Flow{
		cfg:     cfg,
		logger:  logger,
		openURL: openBrowser,
	}
}

// Run performs the flow and returns the exchanged token. It blocks until
// the user completes consent, the timeout elapses, or ctx is cancelled.
func (f *Flow) Run(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, flowTimeout)
	defer cancel()

	state, err := generateState()
	if err != nil {
		return nil, err
	}

	srv := newCallbackServer(f.logger, state)
	if err := srv.Start(ctx, 0); err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() {
		_ = srv.Stop()
	}()

	// The redirect port is chosen by the listener, so the config is
	// completed per run.
	cfg := *f.cfg
	cfg.RedirectURL = srv.RedirectURI()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	f.logger.Info("Opening browser for Google authorization")
	if err := f.openURL(authURL); err != nil {
		f.logger.WithError(err).Warn("Could not open browser automatically")
		f.logger.Infof("Visit this URL to authorize access: %s", authURL)
	}

	select {
	case code := <-srv.AuthCode():
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		f.logger.Info("Google authorization completed")
		return tok, nil
	case err := <-srv.Err():
		return nil, fmt.Errorf("authorization failed: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization cancelled: %w", ctx.Err())
	}
}

// generateState produces the CSRF token carried through the redirect.
func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state parameter: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
