// Package logging builds the one zap logger each binary uses, plus a
// logr.Logger adapter (via go-logr/zapr) for the admission server, which
// speaks logr natively the way the retrieved rkitindi-kr-pvc-webhook and
// storageos-api-manager webhooks do.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// New builds a production zap logger unless debug is set, in which case it
// builds a development logger (colorized, caller line, debug level).
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// AsLogr adapts a *zap.Logger to logr.Logger.
func AsLogr(z *zap.Logger) logr.Logger {
	return zapr.NewLogger(z)
}
