package k8sgateway

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// TokenReloader re-reads a bearer token file at most once per debounce
// interval, so repeated Token calls do not turn into a burst of file
// reads. It is a standalone helper: Gateway's clients are built from a
// rest.Config and do not use it.
type TokenReloader struct {
	path      string
	debounce  time.Duration
	mu        sync.Mutex
	lastRead  time.Time
	lastToken string
}

func NewTokenReloader(path string, debounce time.Duration) *TokenReloader {
	return &TokenReloader{path: path, debounce: debounce}
}

// Token returns the current token, re-reading the file if the debounce
// window has elapsed since the last read.
func (t *TokenReloader) Token() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Since(t.lastRead) < t.debounce && t.lastToken != "" {
		return t.lastToken, nil
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		if t.lastToken != "" {
			// Serve the stale token rather than fail outright; a token
			// file can be briefly absent during a service-account
			// rotation's atomic rename.
			return t.lastToken, nil
		}
		return "", fmt.Errorf("read token file %q: %w", t.path, err)
	}

	t.lastToken = string(data)
	t.lastRead = time.Now()
	return t.lastToken, nil
}

// ForceReload clears the debounce window, forcing the next Token() call
// to re-read the file. No code path in this repository calls it when a
// request returns 401.
func (t *TokenReloader) ForceReload() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRead = time.Time{}
}
