package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wellbeing/internal/client/session"
	"github.com/dmitrijs2005/wellbeing/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Status(ctx context.Context) error
	SignIn(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) error
	Link(ctx context.Context, link string) error
	ShowProfile(ctx context.Context) error
	SetUsername(ctx context.Context, v string) error
	SetGender(ctx context.Context, v string) error
	SetDateOfBirth(ctx context.Context, v string) error
	Save(ctx context.Context) error
	Avatar(ctx context.Context, path string) error
	Retry(ctx context.Context) error
	SignOut(ctx context.Context) error
}

const helpText = `Available commands:
  status                 current view
  signin [token]         sign in with an access token (prompted when omitted)
  refresh [token]        replace the token with a refreshed one
  link <url>             open an auth deep link (signup, magic link, recovery)
  profile                show the profile and unsaved edits
  username <name>        edit username
  gender <male|female>   edit gender
  dob <YYYY-MM-DD>       edit date of birth
  save                   send edits
  avatar <file>          upload a new avatar image
  retry                  retry a failed profile load
  signout                sign out
  exit | quit            leave the program`

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit"/"quit". Each command's error is rendered inline; none of them ends
// the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("wb %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if cmd == "" {
			continue
		}

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "status":
			err = a.Status(ctx)
		case "signin":
			err = a.SignIn(ctx, arg)
		case "refresh":
			err = a.Refresh(ctx, arg)
		case "link":
			if arg == "" {
				printlnFn("Usage: link <url>")
				continue
			}
			err = a.Link(ctx, arg)
		case "profile":
			err = a.ShowProfile(ctx)
		case "username":
			err = a.SetUsername(ctx, arg)
		case "gender":
			err = a.SetGender(ctx, arg)
		case "dob":
			if arg == "" {
				printlnFn("Usage: dob <YYYY-MM-DD>")
				continue
			}
			err = a.SetDateOfBirth(ctx, arg)
		case "save":
			err = a.Save(ctx)
		case "avatar":
			if arg == "" {
				printlnFn("Usage: avatar <file>")
				continue
			}
			err = a.Avatar(ctx, arg)
		case "retry":
			err = a.Retry(ctx)
		case "signout":
			err = a.SignOut(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrAvatarNotPersisted):
		return "avatar uploaded but not saved to your profile; it will be saved with your next 'save'"
	case errors.Is(err, common.ErrorValidation):
		return err.Error()
	case errors.Is(err, common.ErrNoProfile):
		return "sign in first"
	case errors.Is(err, session.ErrNothingToRetry):
		return "nothing to retry"
	case errors.Is(err, common.ErrorNotFound):
		return "profile not found"
	case errors.Is(err, common.ErrorPermission):
		return "the server refused this change"
	case errors.Is(err, common.ErrorTransient):
		return "service unavailable, try again"
	case errors.Is(err, common.ErrTokenExpired):
		return "token expired, sign in again"
	case errors.Is(err, common.ErrInvalidToken):
		return "invalid token"
	case errors.Is(err, common.ErrSessionMissing):
		return "not signed in"
	default:
		return err.Error()
	}
}
