package logging

import "testing"

func TestNewDebugAndProduction(t *testing.T) {
	for _, debug := range []bool{true, false} {
		log, err := New(debug)
		if err != nil {
			t.Fatalf("New(%v): %v", debug, err)
		}
		if log == nil {
			t.Fatalf("New(%v) returned nil logger", debug)
		}
		defer log.Sync()
	}
}

func TestAsLogr(t *testing.T) {
	z, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lr := AsLogr(z)
	lr.Info("test message", "key", "value")
}
