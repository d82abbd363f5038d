package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/cryptox"
	"github.com/dmitrijs2005/wellbeing/internal/logging"
)

// Service is what the session controller consumes.
type Service interface {
	// CurrentSession is a synchronous snapshot; the event stream does not
	// replay history.
	CurrentSession() (*models.Session, bool)
	// SessionEvents returns a new subscription. Every subscriber sees every
	// later event in emission order.
	SessionEvents() <-chan models.SessionEvent
	SignOut(ctx context.Context) error
}

const linkTypeRecovery = "recovery"

// afterFunc is a seam for testing expiry timers.
var afterFunc = func(d time.Duration, f func()) *time.Timer {
	return time.AfterFunc(d, f)
}

type Hub struct {
	secret []byte
	store  metadata.Repository
	logger logging.Logger

	mu      sync.Mutex
	session *models.Session
	version uint64
	expiry  *time.Timer
	subs    []*subscriber
	closed  bool

	// persistMu orders writes to store. Held without mu.
	persistMu sync.Mutex
}

var _ Service = (*Hub)(nil)

// NewHub builds a hub and restores the session persisted by a previous run.
// A persisted token that is expired, fails verification or cannot be
// unsealed is discarded.
func NewHub(ctx context.Context, secret []byte, store metadata.Repository, logger logging.Logger) (*Hub, error) {
	h := &Hub{
		secret: secret,
		store:  store,
		logger: logger.With("component", "auth"),
	}

	raw, err := store.Get(ctx, common.SessionTokenKey)
	if errors.Is(err, cryptox.ErrOpen) {
		h.logger.Warn(ctx, "persisted session is sealed with another passphrase", "error", err)
		h.discard(ctx)
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if raw == nil {
		return h, nil
	}

	s, err := ParseSessionToken(string(raw), secret)
	if err != nil {
		h.logger.Info(ctx, "discarding persisted session", "error", err)
		h.discard(ctx)
		return h, nil
	}

	h.mu.Lock()
	h.setSessionLocked(s)
	h.mu.Unlock()
	h.logger.Info(ctx, "session restored", "user_id", s.UserID)

	return h, nil
}

func (h *Hub) discard(ctx context.Context) {
	if err := h.store.Delete(ctx, common.SessionTokenKey); err != nil {
		h.logger.Warn(ctx, "failed to delete persisted session", "error", err)
	}
}

func (h *Hub) CurrentSession() (*models.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session == nil {
		return nil, false
	}
	s := *h.session
	return &s, true
}

func (h *Hub) SessionEvents() <-chan models.SessionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := newSubscriber()
	if h.closed {
		sub.stop()
		return sub.out
	}
	h.subs = append(h.subs, sub)
	return sub.out
}

// SignIn installs the session carried by accessToken and emits SignedIn.
func (h *Hub) SignIn(ctx context.Context, accessToken string) (*models.Session, error) {
	s, err := ParseSessionToken(accessToken, h.secret)
	if err != nil {
		return nil, err
	}
	h.install(ctx, s, models.SignedIn)
	return s, nil
}

// Refresh swaps the current token for a newer one of the same user.
func (h *Hub) Refresh(ctx context.Context, accessToken string) (*models.Session, error) {
	s, err := ParseSessionToken(accessToken, h.secret)
	if err != nil {
		return nil, err
	}

	cur, ok := h.CurrentSession()
	if !ok {
		return nil, common.ErrSessionMissing
	}
	if cur.UserID != s.UserID {
		return nil, fmt.Errorf("%w: refresh token belongs to another user", common.ErrInvalidToken)
	}

	h.install(ctx, s, models.TokenRefreshed)
	return s, nil
}

// HandleDeepLink consumes a redirect such as
//
//	wellbeing://login-callback#access_token=...&type=recovery
//
// Recovery links emit PasswordRecoveryRequested, any other type SignedIn.
// Parameters are read from the fragment, falling back to the query string.
func (h *Hub) HandleDeepLink(ctx context.Context, link string) (*models.Session, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse deep link: %w", err)
	}

	params, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return nil, fmt.Errorf("parse deep link fragment: %w", err)
	}
	if len(params) == 0 {
		params = u.Query()
	}

	if desc := params.Get("error_description"); desc != "" {
		return nil, fmt.Errorf("auth service: %s", desc)
	}

	token := params.Get("access_token")
	if token == "" {
		return nil, fmt.Errorf("%w: deep link carries no access token", common.ErrInvalidToken)
	}

	s, err := ParseSessionToken(token, h.secret)
	if err != nil {
		return nil, err
	}

	if params.Get("type") == linkTypeRecovery {
		h.install(ctx, s, models.PasswordRecoveryRequested)
	} else {
		h.install(ctx, s, models.SignedIn)
	}
	return s, nil
}

// SignOut destroys the session and emits SignedOut. The event is emitted even
// when no session is held, so observers always converge. A failure to clear
// the persisted snapshot is returned after the event has gone out.
func (h *Hub) SignOut(ctx context.Context) error {
	h.mu.Lock()
	h.clearSessionLocked()
	h.emitLocked(models.SignedOut())
	h.mu.Unlock()

	h.logger.Info(ctx, "signed out")

	h.persistMu.Lock()
	defer h.persistMu.Unlock()
	if err := h.store.Delete(ctx, common.SessionTokenKey); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	return nil
}

// Close stops the expiry timer and closes every subscription channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	if h.expiry != nil {
		h.expiry.Stop()
		h.expiry = nil
	}
	for _, sub := range h.subs {
		sub.stop()
	}
	h.subs = nil
}

func (h *Hub) install(ctx context.Context, s *models.Session, event func(*models.Session) models.SessionEvent) {
	h.mu.Lock()
	h.setSessionLocked(s)
	version := h.version
	cp := *s
	ev := event(&cp)
	h.emitLocked(ev)
	h.mu.Unlock()

	h.logger.Info(ctx, "session event", "event", ev.Kind, "user_id", s.UserID)

	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	// Whatever changed the session after the event owns the stored value.
	h.mu.Lock()
	stale := h.version != version
	h.mu.Unlock()
	if stale {
		return
	}

	if err := h.store.Set(ctx, common.SessionTokenKey, []byte(s.Token)); err != nil {
		h.logger.Warn(ctx, "failed to persist session", "error", err)
	}
}

// expire runs on the expiry timer. token pins the session the timer was
// armed for, so a refresh that raced the timer wins.
func (h *Hub) expire(token string) {
	ctx := context.Background()

	h.mu.Lock()
	if h.closed || h.session == nil || h.session.Token != token {
		h.mu.Unlock()
		return
	}
	userID := h.session.UserID
	h.clearSessionLocked()
	h.emitLocked(models.SignedOut())
	h.mu.Unlock()

	h.logger.Info(ctx, "session expired", "user_id", userID)

	h.persistMu.Lock()
	defer h.persistMu.Unlock()
	if err := h.store.Delete(ctx, common.SessionTokenKey); err != nil {
		h.logger.Warn(ctx, "failed to delete expired session", "error", err)
	}
}

func (h *Hub) setSessionLocked(s *models.Session) {
	if h.expiry != nil {
		h.expiry.Stop()
		h.expiry = nil
	}
	cp := *s
	h.session = &cp
	h.version++

	if !s.ExpiresAt.IsZero() && !h.closed {
		token := s.Token
		h.expiry = afterFunc(time.Until(s.ExpiresAt), func() { h.expire(token) })
	}
}

func (h *Hub) clearSessionLocked() {
	if h.expiry != nil {
		h.expiry.Stop()
		h.expiry = nil
	}
	h.session = nil
	h.version++
}

func (h *Hub) emitLocked(ev models.SessionEvent) {
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		sub.push(ev)
	}
}
