// Package session turns the auth service's event stream into the view the
// user should see, and owns the signed-in user's profile record.
//
// Controller is the only writer of the current ViewState and profile. The
// presentation layer reads snapshots (State, Profile, Subscribe) and issues
// requests (Set*, SaveProfile, ChangeAvatar, Retry, SignOut); every request
// returns an error value to render inline.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/auth"
	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/client/profile"
	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/logging"
)

// ErrNothingToRetry is returned by Retry outside ProfileLoadError.
var ErrNothingToRetry = errors.New("no failed profile load to retry")

type fetchResult struct {
	gen     uint64
	userID  string
	profile *models.ProfileRecord
	err     error
}

type Controller struct {
	auth         auth.Service
	repo         profile.Store
	logger       logging.Logger
	fetchTimeout time.Duration
	now          func() time.Time

	results chan fetchResult
	retry   chan struct{}

	mu      sync.Mutex
	view    models.ViewState
	session *models.Session
	// gen identifies the live fetch. Results carrying an older value are
	// superseded and dropped.
	gen     uint64
	draft   Draft
	subs    map[int]chan models.ViewState
	nextSub int
}

func NewController(a auth.Service, repo profile.Store, logger logging.Logger, fetchTimeout time.Duration) *Controller {
	return &Controller{
		auth:         a,
		repo:         repo,
		logger:       logger.With("component", "session"),
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		results:      make(chan fetchResult),
		retry:        make(chan struct{}, 1),
		view:         models.ViewState{Kind: models.ViewUnauthenticated},
		subs:         make(map[int]chan models.ViewState),
	}
}

// Run reconciles with the auth service's current session and then applies
// session events and fetch results in arrival order until ctx is done or the
// event stream closes. Run must be called once.
func (c *Controller) Run(ctx context.Context) error {
	// Subscribe before reading the snapshot so nothing emitted in between
	// is lost.
	events := c.auth.SessionEvents()

	if s, ok := c.auth.CurrentSession(); ok {
		c.apply(ctx, models.SignedIn(s))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				c.logger.Info(ctx, "session event stream closed")
				return nil
			}
			c.apply(ctx, ev)
		case r := <-c.results:
			c.resolve(ctx, r)
		case <-c.retry:
			c.reload(ctx)
		}
	}
}

func (c *Controller) apply(ctx context.Context, ev models.SessionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevUser := userOf(c.session)
	step := Next(c.view, c.session, ev)
	c.session = step.Session

	if userOf(c.session) != prevUser {
		c.draft = Draft{}
	}

	c.logger.Debug(ctx, "session event", "event", ev.Kind, "user_id", userOf(c.session))
	c.setViewLocked(ctx, step.View)

	if step.Fetch {
		c.startFetchLocked(ctx)
	}
}

func (c *Controller) resolve(ctx context.Context, r fetchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.gen != c.gen || c.view.Kind != models.ViewProfileLoading {
		c.logger.Debug(ctx, "discarding superseded profile fetch", "user_id", r.userID)
		return
	}

	if r.err != nil {
		c.logFailure(ctx, "profile fetch failed", r.err, "user_id", r.userID)
	}
	c.setViewLocked(ctx, Resolve(c.view, r.profile, r.err))
}

func (c *Controller) reload(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Kind != models.ViewProfileLoadError || c.session == nil {
		return
	}
	c.setViewLocked(ctx, models.ViewState{Kind: models.ViewProfileLoading})
	c.startFetchLocked(ctx)
}

func (c *Controller) startFetchLocked(ctx context.Context) {
	c.gen++
	gen, userID := c.gen, c.session.UserID

	go func() {
		fctx, cancel := ctx, context.CancelFunc(func() {})
		if c.fetchTimeout > 0 {
			fctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		}
		p, err := c.repo.Fetch(fctx, userID)
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, common.ErrorTransient) {
			err = fmt.Errorf("%w: %w", common.ErrorTransient, err)
		}
		cancel()

		select {
		case c.results <- fetchResult{gen: gen, userID: userID, profile: p, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) setViewLocked(ctx context.Context, next models.ViewState) {
	prev := c.view
	c.view = next
	if prev.Kind == next.Kind && prev.Profile == next.Profile && prev.Err == nil && next.Err == nil {
		return
	}

	c.logger.Debug(ctx, "view transition", "from", prev.Kind, "to", next.Kind)

	snap := snapshot(next)
	for _, ch := range c.subs {
		offer(ch, snap)
	}
}

// offer replaces whatever the subscriber has not read yet.
func offer(ch chan models.ViewState, s models.ViewState) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

func snapshot(v models.ViewState) models.ViewState {
	v.Profile = v.Profile.Clone()
	return v
}

func userOf(s *models.Session) string {
	if s == nil {
		return ""
	}
	return s.UserID
}

// logFailure picks the level by error class. A permission error means a
// write slipped past the client-side checks.
func (c *Controller) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch {
	case errors.Is(err, common.ErrorPermission):
		c.logger.Error(ctx, msg+": unexpected permission error", args...)
	case errors.Is(err, common.ErrorValidation):
		c.logger.Debug(ctx, msg, args...)
	default:
		c.logger.Warn(ctx, msg, args...)
	}
}

// Subscribe delivers the current state at once and every later one. A slow
// reader sees the latest state; intermediate ones may be skipped. The
// returned func ends the subscription and closes the channel.
func (c *Controller) Subscribe() (<-chan models.ViewState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.ViewState, 1)
	ch <- snapshot(c.view)

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) State() models.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot(c.view)
}

// Profile returns a copy of the routed user's record.
func (c *Controller) Profile() (*models.ProfileRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.view.Kind.Routed() {
		return nil, false
	}
	return c.view.Profile.Clone(), true
}

func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Retry asks for the failed profile load to be repeated. The reload happens
// on the Run loop.
func (c *Controller) Retry(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	kind := c.view.Kind
	c.mu.Unlock()

	if kind != models.ViewProfileLoadError {
		return ErrNothingToRetry
	}

	select {
	case c.retry <- struct{}{}:
	default:
	}
	return nil
}

// SignOut delegates to the auth service. The SignedOut event it emits drives
// the transition.
func (c *Controller) SignOut(ctx context.Context) error {
	return c.auth.SignOut(ctx)
}

// SetUsername buffers v. An empty value is kept and reported again by
// SaveProfile.
func (c *Controller) SetUsername(v string) error {
	v = strings.TrimSpace(v)
	return c.edit(ValidateUsername(v), func(d *Draft) { d.Username = &v })
}

func (c *Controller) SetGender(g models.Gender) error {
	return c.edit(ValidateGender(g), func(d *Draft) { d.Gender = &g })
}

func (c *Controller) SetDateOfBirth(dob time.Time) error {
	dob = models.DateOf(dob)
	return c.edit(ValidateDateOfBirth(dob, c.now()), func(d *Draft) { d.DateOfBirth = &dob })
}

// edit records the value whatever validErr says; validErr takes precedence
// over ErrNoProfile in the result.
func (c *Controller) edit(validErr error, set func(*Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.view.Kind.Routed() {
		if validErr != nil {
			return validErr
		}
		return common.ErrNoProfile
	}
	set(&c.draft)
	return validErr
}

// SaveProfile validates every buffered field and sends the ones that differ
// from the record. Nothing goes over the network when a field is invalid.
func (c *Controller) SaveProfile(ctx context.Context) error {
	c.mu.Lock()
	if !c.view.Kind.Routed() {
		c.mu.Unlock()
		return common.ErrNoProfile
	}
	draft := c.draft.clone()
	current := c.view.Profile.Clone()
	c.mu.Unlock()

	if err := draft.validate(c.now()); err != nil {
		return err
	}

	patch := draft.patch(current)
	if len(patch) == 0 {
		c.mu.Lock()
		if userOf(c.session) == current.ID {
			c.draft.forget(draft)
		}
		c.mu.Unlock()
		return nil
	}

	if err := c.repo.Update(ctx, current.ID, patch); err != nil {
		c.logFailure(ctx, "profile update failed", err, "user_id", current.ID, "fields", patch.Fields())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The draft belongs to whoever is signed in now.
	if userOf(c.session) == current.ID {
		c.draft.forget(draft)
	}
	if c.view.Kind.Routed() && c.view.Profile.ID == current.ID {
		updated := c.view.Profile.Clone()
		updated.Apply(patch)
		c.setViewLocked(ctx, models.RoutedFor(updated))
	}
	c.logger.Info(ctx, "profile saved", "user_id", current.ID, "fields", patch.Fields())
	return nil
}

// ChangeAvatar uploads image and shows the new avatar once its URL is on the
// record. On failure the previous avatar stays. When the blob was stored but
// the URL could not be saved, the URL is queued in the draft and written by
// the next SaveProfile.
func (c *Controller) ChangeAvatar(ctx context.Context, image []byte) (string, error) {
	c.mu.Lock()
	if !c.view.Kind.Routed() {
		c.mu.Unlock()
		return "", common.ErrNoProfile
	}
	userID := c.view.Profile.ID
	c.mu.Unlock()

	url, err := c.repo.UploadAvatar(ctx, userID, image)

	c.mu.Lock()
	defer c.mu.Unlock()

	stillRouted := c.view.Kind.Routed() && c.view.Profile.ID == userID

	if err != nil {
		c.logFailure(ctx, "avatar change failed", err, "user_id", userID)
		if errors.Is(err, common.ErrAvatarNotPersisted) && url != "" && stillRouted {
			c.draft.AvatarURL = &url
		}
		return url, err
	}

	if stillRouted {
		c.draft.AvatarURL = nil
		updated := c.view.Profile.Clone()
		updated.AvatarURL = &url
		c.setViewLocked(ctx, models.RoutedFor(updated))
	}
	return url, nil
}
