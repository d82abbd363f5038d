package session

import (
	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/common"
)

// Step is the outcome of feeding one session event to the state machine.
// When Fetch is set the caller must load the profile of Session.UserID.
type Step struct {
	View    models.ViewState
	Session *models.Session
	Fetch   bool
}

// Next is the session-event half of the routing state machine. It is pure:
// view and held are the current state, ev the event to apply.
//
//	any                      SignedOut                 -> Unauthenticated
//	any                      PasswordRecoveryRequested -> PasswordRecovery
//	routed for the same user SignedIn                  -> unchanged
//	anything else            SignedIn                  -> ProfileLoading + fetch
//	same user                TokenRefreshed            -> unchanged, session replaced
//	other or no user         TokenRefreshed            -> as SignedIn
func Next(view models.ViewState, held *models.Session, ev models.SessionEvent) Step {
	switch ev.Kind {
	case models.EventSignedOut:
		return Step{View: models.ViewState{Kind: models.ViewUnauthenticated}}

	case models.EventPasswordRecoveryRequested:
		return Step{View: models.ViewState{Kind: models.ViewPasswordRecovery}, Session: ev.Session}

	case models.EventSignedIn:
		if ev.Session == nil {
			break
		}
		if view.Kind.Routed() && sameUser(held, ev.Session) {
			return Step{View: view, Session: ev.Session}
		}
		return Step{
			View:    models.ViewState{Kind: models.ViewProfileLoading},
			Session: ev.Session,
			Fetch:   true,
		}

	case models.EventTokenRefreshed:
		if ev.Session == nil {
			break
		}
		if !sameUser(held, ev.Session) {
			return Next(view, held, models.SignedIn(ev.Session))
		}
		return Step{View: view, Session: ev.Session}
	}

	return Step{View: view, Session: held}
}

// Resolve is the fetch-result half. Results only matter while loading; the
// caller is responsible for dropping superseded ones.
func Resolve(view models.ViewState, p *models.ProfileRecord, err error) models.ViewState {
	if view.Kind != models.ViewProfileLoading {
		return view
	}
	if err != nil {
		return models.ViewState{Kind: models.ViewProfileLoadError, Err: err}
	}
	if p == nil {
		return models.ViewState{Kind: models.ViewProfileLoadError, Err: common.ErrorNotFound}
	}
	return models.RoutedFor(p)
}

func sameUser(a, b *models.Session) bool {
	return a != nil && b != nil && a.UserID == b.UserID
}
