package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/auth"
	"github.com/dmitrijs2005/wellbeing/internal/client/config"
	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/client/repositories"
	"github.com/dmitrijs2005/wellbeing/internal/client/session"
	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("cli-secret")

type memProfiles struct {
	mu      sync.Mutex
	rows    map[string]*models.ProfileRecord
	avatars int
}

func (m *memProfiles) Fetch(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p.Clone(), nil
}

func (m *memProfiles) Update(ctx context.Context, userID string, patch models.ProfilePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID].Apply(patch)
	return nil
}

func (m *memProfiles) UploadAvatar(ctx context.Context, userID string, img []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avatars++
	url := "https://cdn.example.com/avatars/" + userID + "/avatar.jpg"
	m.rows[userID].AvatarURL = &url
	return url, nil
}

type appFixture struct {
	app      *App
	profiles *memProfiles
	userID   string
	token    string
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	ctx := context.Background()

	local, err := repositories.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.DB.Close() })

	hub, err := auth.NewHub(ctx, testSecret, local.Metadata, logging.Nop())
	require.NoError(t, err)

	uid := uuid.NewString()
	tok, err := auth.GenerateToken(uid, "alice@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	profiles := &memProfiles{rows: map[string]*models.ProfileRecord{
		uid: {ID: uid, Email: "alice@example.com", Role: models.RoleMember, Username: "alice"},
	}}
	ctrl := session.NewController(hub, profiles, logging.Nop(), time.Second)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	app := newApp(cfg, logging.Nop(), hub, ctrl)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_ = ctrl.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		app.close()
	})

	return &appFixture{app: app, profiles: profiles, userID: uid, token: tok}
}

func (f *appFixture) waitKind(t *testing.T, kind models.ViewKind) {
	t.Helper()
	require.Eventually(t, func() bool { return f.app.ctrl.State().Kind == kind }, 2*time.Second, 5*time.Millisecond)
}

func writePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestApp_ProfileFlow(t *testing.T) {
	out := capturePrint(t)
	f := newAppFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.app.ShowProfile(ctx), common.ErrNoProfile)

	require.NoError(t, f.app.SignIn(ctx, f.token))
	assert.Contains(t, *out, "Signed in as alice@example.com")
	f.waitKind(t, models.ViewRoutedMember)
	assert.Equal(t, "(alice member)", f.app.getStatus())

	require.NoError(t, f.app.SetUsername(ctx, "bob"))
	require.NoError(t, f.app.SetGender(ctx, "Female"))
	require.NoError(t, f.app.SetDateOfBirth(ctx, "1990-05-17"))
	require.NoError(t, f.app.ShowProfile(ctx))
	assert.Contains(t, (*out)[len(*out)-1], "alice -> bob *")

	require.NoError(t, f.app.Save(ctx))
	p, ok := f.app.ctrl.Profile()
	require.True(t, ok)
	assert.Equal(t, "bob", p.Username)
	assert.Equal(t, models.GenderFemale, p.Gender)

	require.NoError(t, f.app.Avatar(ctx, writePNG(t)))
	assert.Equal(t, 1, f.profiles.avatars)
	p, _ = f.app.ctrl.Profile()
	require.NotNil(t, p.AvatarURL)

	require.NoError(t, f.app.SignOut(ctx))
	f.waitKind(t, models.ViewUnauthenticated)
	assert.Equal(t, "(unauthenticated)", f.app.getStatus())
}

func TestApp_InputErrors(t *testing.T) {
	capturePrint(t)
	f := newAppFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.SignIn(ctx, f.token))
	f.waitKind(t, models.ViewRoutedMember)

	assert.ErrorIs(t, f.app.SetGender(ctx, "other"), common.ErrInvalidGender)
	assert.ErrorIs(t, f.app.SetDateOfBirth(ctx, "17/05/1990"), common.ErrInvalidDateOfBirth)
	assert.ErrorIs(t, f.app.SetUsername(ctx, "   "), common.ErrEmptyUsername)
	assert.ErrorIs(t, f.app.Save(ctx), common.ErrEmptyUsername)
	assert.Error(t, f.app.Avatar(ctx, filepath.Join(t.TempDir(), "missing.png")))
	assert.ErrorIs(t, f.app.Retry(ctx), session.ErrNothingToRetry)
	assert.ErrorIs(t, f.app.SignIn(ctx, "garbage"), common.ErrInvalidToken)
}

func TestApp_SignInPromptsForToken(t *testing.T) {
	capturePrint(t)
	f := newAppFixture(t)

	orig := getToken
	t.Cleanup(func() { getToken = orig })
	getToken = func(w io.Writer, prompt string) (string, error) { return f.token, nil }

	require.NoError(t, f.app.SignIn(context.Background(), ""))
	f.waitKind(t, models.ViewRoutedMember)

	refreshed, err := auth.GenerateToken(f.userID, "alice@example.com", testSecret, 2*time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.app.Refresh(context.Background(), refreshed))
	assert.Equal(t, models.ViewRoutedMember, f.app.ctrl.State().Kind)
}

func TestApp_RecoveryLink(t *testing.T) {
	out := capturePrint(t)
	f := newAppFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.Link(ctx, "wellbeing://login-callback#access_token="+f.token+"&type=recovery"))
	f.waitKind(t, models.ViewPasswordRecovery)
	assert.Contains(t, *out, "Link accepted for alice@example.com")

	require.NoError(t, f.app.Status(ctx))
	assert.Contains(t, (*out)[len(*out)-1], "Password recovery")
}

func TestWatchStates(t *testing.T) {
	out := capturePrint(t)

	ch := make(chan models.ViewState, 2)
	ch <- models.ViewState{Kind: models.ViewProfileLoading}
	ch <- models.ViewState{Kind: models.ViewUnauthenticated}
	close(ch)

	watchStates(context.Background(), ch)
	assert.Equal(t, []string{"Loading profile...", "Signed out. Use 'signin' or 'link <url>'."}, *out)
}
