// Package chunklog wraps zap the same way the teacher's VM plumbs a
// logger into each call site (chain/builder.go's vm.Logger()): a plain
// *zap.Logger field passed to the caller, defaulting to a no-op so tests
// and callers that don't care about logs don't need to construct one.
package chunklog

import "go.uber.org/zap"

// Nop returns a logger that discards everything, used as the default
// when a caller doesn't supply one.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns l, or a no-op logger if l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
