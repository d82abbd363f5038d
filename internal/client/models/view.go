package models

type ViewKind int

const (
	ViewUnauthenticated ViewKind = iota
	ViewPasswordRecovery
	ViewProfileLoading
	ViewProfileLoadError
	ViewRoutedAdmin
	ViewRoutedMember
)

func (k ViewKind) String() string {
	switch k {
	case ViewUnauthenticated:
		return "unauthenticated"
	case ViewPasswordRecovery:
		return "password_recovery"
	case ViewProfileLoading:
		return "profile_loading"
	case ViewProfileLoadError:
		return "profile_load_error"
	case ViewRoutedAdmin:
		return "admin"
	case ViewRoutedMember:
		return "member"
	default:
		return "unknown"
	}
}

// Routed reports whether the view carries a loaded profile.
func (k ViewKind) Routed() bool {
	return k == ViewRoutedAdmin || k == ViewRoutedMember
}

// ViewState is derived, never persisted. Profile is set for the routed
// kinds, Err for ViewProfileLoadError.
type ViewState struct {
	Kind    ViewKind
	Profile *ProfileRecord
	Err     error
}

// RoutedFor picks the routed view for a loaded record: admin for the admin
// role, member for anything else.
func RoutedFor(p *ProfileRecord) ViewState {
	if p.Role.IsAdmin() {
		return ViewState{Kind: ViewRoutedAdmin, Profile: p}
	}
	return ViewState{Kind: ViewRoutedMember, Profile: p}
}
