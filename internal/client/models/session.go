package models

import (
	"fmt"
	"time"
)

// Session is a live authenticated connection with the auth service.
// The token is opaque to everything except the auth adapter.
type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
	IsActive  bool
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type SessionEventKind int

const (
	EventSignedIn SessionEventKind = iota + 1
	EventSignedOut
	EventPasswordRecoveryRequested
	EventTokenRefreshed
)

func (k SessionEventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	case EventPasswordRecoveryRequested:
		return "password_recovery"
	case EventTokenRefreshed:
		return "token_refreshed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// SessionEvent is emitted by the auth service only. Session is nil for
// EventSignedOut.
type SessionEvent struct {
	Kind    SessionEventKind
	Session *Session
}

func SignedIn(s *Session) SessionEvent {
	return SessionEvent{Kind: EventSignedIn, Session: s}
}

func SignedOut() SessionEvent {
	return SessionEvent{Kind: EventSignedOut}
}

func PasswordRecoveryRequested(s *Session) SessionEvent {
	return SessionEvent{Kind: EventPasswordRecoveryRequested, Session: s}
}

func TokenRefreshed(s *Session) SessionEvent {
	return SessionEvent{Kind: EventTokenRefreshed, Session: s}
}
