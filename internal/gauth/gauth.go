// Package gauth resolves Google API credentials for the Sheets client.
//
// Resolution follows a fixed priority: a service account key file when one
// is configured, then a cached user token, and finally an interactive
// browser consent flow. Tokens obtained or refreshed along the way are
// persisted so later runs skip the browser.
package gauth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/duquesnay/google-sheets-mcp-server/internal/utils/httpclient"
)

// Scopes returns the OAuth scopes requested for Sheets access. The
// drive.file scope keeps Drive visibility limited to spreadsheets this
// server creates or opens.
func Scopes() []string {
	return []string{sheets.SpreadsheetsScope, sheets.DriveFileScope}
}

// Options locates the credential material on disk. All paths must already
// be absolute; tilde expansion happens in the config layer.
type Options struct {
	// ServiceAccountPath points at a service account key file. When set
	// and present it takes priority over the user OAuth flow.
	ServiceAccountPath string

	// CredentialsPath points at the OAuth client secrets file used for
	// the installed-app flow.
	CredentialsPath string

	// TokenPath is where the user token is cached between runs.
	TokenPath string
}

// CredentialsError reports a failure to load or obtain Google credentials.
type CredentialsError struct {
	Path  string
	Cause error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("credentials error (%s): %v", e.Path, e.Cause)
}

func (e *CredentialsError) Unwrap() error {
	return e.Cause
}

// TokenSource resolves credentials and returns a source suitable for
// oauth2.NewClient. An unreadable service account key is logged and
// skipped rather than treated as fatal, matching the priority order: the
// user OAuth path may still succeed.
func TokenSource(ctx context.Context, logger *logrus.Logger, opts Options) (oauth2.TokenSource, error) {
	// Token exchanges and refreshes go through the proxy-aware client so
	// corporate networks can reach Google's token endpoint.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpclient.New(30*time.Second, logger))

	if opts.ServiceAccountPath != "" {
		if _, err := os.Stat(opts.ServiceAccountPath); err == nil {
			ts, err := serviceAccountTokenSource(ctx, opts.ServiceAccountPath)
			if err == nil {
				logger.WithField("path", opts.ServiceAccountPath).Info("Using service account credentials")
				return ts, nil
			}
			logger.WithError(err).WithField("path", opts.ServiceAccountPath).Warn("Failed to load service account credentials, falling back to user OAuth")
		}
	}

	cfg, err := loadOAuthConfig(opts.CredentialsPath)
	if err != nil {
		return nil, err
	}

	tok := cachedToken(logger, opts.TokenPath)
	if tok == nil || (!tok.Valid() && tok.RefreshToken == "") {
		tok, err = NewFlow(cfg, logger).Run(ctx)
		if err != nil {
			return nil, err
		}
		if err := saveToken(logger, opts.TokenPath, tok); err != nil {
			logger.WithError(err).Warn("Failed to cache OAuth token")
		} else {
			logger.WithField("path", opts.TokenPath).Debug("Cached OAuth token")
		}
	}

	// cfg.TokenSource refreshes expired tokens on demand; the persisting
	// wrapper writes each refreshed token back to the cache file.
	return &persistingTokenSource{
		base:   cfg.TokenSource(ctx, tok),
		path:   opts.TokenPath,
		logger: logger,
		last:   tok,
	}, nil
}

func serviceAccountTokenSource(ctx context.Context, path string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := google.JWTConfigFromJSON(data, Scopes()...)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx), nil
}

func loadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialsError{Path: path, Cause: err}
	}
	cfg, err := google.ConfigFromJSON(data, Scopes()...)
	if err != nil {
		return nil, &CredentialsError{Path: path, Cause: err}
	}
	return cfg, nil
}

// cachedToken loads the persisted token if one exists. Corrupt or
// unreadable caches are logged and discarded so the flow can recreate them.
func cachedToken(logger *logrus.Logger, path string) *oauth2.Token {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	tok, err := loadToken(logger, path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Failed to load cached token, re-authenticating")
		return nil
	}
	return tok
}
