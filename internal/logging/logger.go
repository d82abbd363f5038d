// Package logging is the client's structured logger. Components take a
// Logger and tag their output with With("component", ...); SlogLogger is
// the only implementation and Nop silences tests.
package logging

import "context"

// Logger logs msg with alternating key/value args:
//
//	log.Debug(ctx, "view transition", "from", prev.Kind, "to", next.Kind)
//
// Debug carries per-event detail (view transitions, superseded fetches),
// Info session milestones, Warn recoverable failures such as a transient
// fetch error, and Error conditions that should not happen, such as a
// permission error on a write that passed validation.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
