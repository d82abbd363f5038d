package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/filex"
)

// maxAvatarBytes caps what is read from disk before decoding.
const maxAvatarBytes = 10 << 20

// getToken is an indirection over GetToken so tests can avoid the terminal.
var getToken = GetToken

var _ execIface = (*App)(nil)

func (a *App) Status(ctx context.Context) error {
	printlnFn(renderState(a.ctrl.State()))
	return nil
}

// SignIn accepts an access token issued by the hosted auth service. The
// token is prompted for without echo when not given inline.
func (a *App) SignIn(ctx context.Context, token string) error {
	token, err := a.tokenOrPrompt(token, "Access token")
	if err != nil {
		return err
	}
	s, err := a.hub.SignIn(ctx, token)
	if err != nil {
		return err
	}
	printlnFn("Signed in as", displayName(s))
	return nil
}

func (a *App) Refresh(ctx context.Context, token string) error {
	token, err := a.tokenOrPrompt(token, "Refreshed access token")
	if err != nil {
		return err
	}
	s, err := a.hub.Refresh(ctx, token)
	if err != nil {
		return err
	}
	printlnFn("Session valid until", s.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) Link(ctx context.Context, link string) error {
	s, err := a.hub.HandleDeepLink(ctx, link)
	if err != nil {
		return err
	}
	printlnFn("Link accepted for", displayName(s))
	return nil
}

func (a *App) ShowProfile(ctx context.Context) error {
	p, ok := a.ctrl.Profile()
	if !ok {
		return common.ErrNoProfile
	}
	printlnFn(renderProfile(p, a.ctrl.Draft()))
	return nil
}

func (a *App) SetUsername(ctx context.Context, v string) error {
	return a.ctrl.SetUsername(v)
}

func (a *App) SetGender(ctx context.Context, v string) error {
	g, err := models.ParseGender(v)
	if err != nil {
		return err
	}
	return a.ctrl.SetGender(g)
}

func (a *App) SetDateOfBirth(ctx context.Context, v string) error {
	d, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: expected YYYY-MM-DD", common.ErrInvalidDateOfBirth)
	}
	return a.ctrl.SetDateOfBirth(d)
}

func (a *App) Save(ctx context.Context) error {
	if err := a.ctrl.SaveProfile(ctx); err != nil {
		return err
	}
	printlnFn("Saved.")
	return nil
}

func (a *App) Avatar(ctx context.Context, path string) error {
	data, err := filex.ReadLimited(path, maxAvatarBytes)
	if err != nil {
		return err
	}
	url, err := a.ctrl.ChangeAvatar(ctx, data)
	if err != nil {
		return err
	}
	printlnFn("Avatar updated:", url)
	return nil
}

func (a *App) Retry(ctx context.Context) error {
	return a.ctrl.Retry(ctx)
}

func (a *App) SignOut(ctx context.Context) error {
	return a.ctrl.SignOut(ctx)
}

func (a *App) tokenOrPrompt(token, prompt string) (string, error) {
	if token != "" {
		return token, nil
	}
	return getToken(os.Stdout, prompt)
}

func displayName(s *models.Session) string {
	if s.Email != "" {
		return s.Email
	}
	return s.UserID
}
