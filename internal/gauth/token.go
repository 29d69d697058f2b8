package gauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// loadToken reads the cached token under a shared file lock. Several
// server instances can share one token file.
func loadToken(logger *logrus.Logger, path string) (*oauth2.Token, error) {
	fileLock := flock.New(path + ".lock")
	locked, err := fileLock.TryRLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire read lock on token file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire read lock on token file")
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.WithError(err).Warn("Failed to release token file lock")
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse cached token: %w", err)
	}
	return &tok, nil
}

// saveToken writes the token with owner-only permissions, creating parent
// directories as needed.
func saveToken(logger *logrus.Logger, path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	fileLock := flock.New(path + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire write lock on token file: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire write lock on token file")
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.WithError(err).Warn("Failed to release token file lock")
		}
	}()

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// persistingTokenSource writes tokens back to the cache file whenever the
// underlying source hands out a new one, so a refresh in one run is
// visible to the next.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger *logrus.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := saveToken(s.logger, s.path, tok); err != nil {
			s.logger.WithError(err).Warn("Failed to persist refreshed token")
		} else {
			s.logger.Debug("Persisted refreshed OAuth token")
		}
	}
	return tok, nil
}
