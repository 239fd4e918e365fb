package k8sgateway

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenReloaderDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("token-v1"), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	r := NewTokenReloader(path, time.Hour)
	tok, err := r.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "token-v1" {
		t.Fatalf("token = %q, want token-v1", tok)
	}

	if err := os.WriteFile(path, []byte("token-v2"), 0o600); err != nil {
		t.Fatalf("rewrite token file: %v", err)
	}
	tok, err = r.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "token-v1" {
		t.Fatalf("token = %q, want stale token-v1 within debounce window", tok)
	}

	r.ForceReload()
	tok, err = r.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "token-v2" {
		t.Fatalf("token = %q, want token-v2 after ForceReload", tok)
	}
}

func TestTokenReloaderServesStaleOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("token-v1"), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	r := NewTokenReloader(path, 0)
	if _, err := r.Token(); err != nil {
		t.Fatalf("initial Token: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove token file: %v", err)
	}
	tok, err := r.Token()
	if err != nil {
		t.Fatalf("Token after removal: %v", err)
	}
	if tok != "token-v1" {
		t.Fatalf("token = %q, want stale token-v1", tok)
	}
}
