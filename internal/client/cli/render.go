package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/client/session"
)

func renderState(v models.ViewState) string {
	switch v.Kind {
	case models.ViewUnauthenticated:
		return "Signed out. Use 'signin' or 'link <url>'."
	case models.ViewPasswordRecovery:
		return "Password recovery in progress. Sign in again once your password is reset."
	case models.ViewProfileLoading:
		return "Loading profile..."
	case models.ViewProfileLoadError:
		return fmt.Sprintf("Could not load profile: %s. Type 'retry' to try again.", describe(v.Err))
	case models.ViewRoutedAdmin:
		return fmt.Sprintf("Welcome, %s. Admin dashboard.", nameOf(v.Profile))
	case models.ViewRoutedMember:
		return fmt.Sprintf("Welcome, %s.", nameOf(v.Profile))
	default:
		return v.Kind.String()
	}
}

func nameOf(p *models.ProfileRecord) string {
	if p == nil {
		return ""
	}
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

// renderProfile lists the record, with unsaved edits marked by '*'.
func renderProfile(p *models.ProfileRecord, d session.Draft) string {
	var b strings.Builder

	row := func(name, value string, pending *string) {
		if pending != nil {
			fmt.Fprintf(&b, "%-14s %s -> %s *\n", name+":", value, *pending)
			return
		}
		fmt.Fprintf(&b, "%-14s %s\n", name+":", value)
	}

	row("Email", p.Email, nil)
	row("Role", string(p.Role), nil)
	row("Username", p.Username, d.Username)

	var gender *string
	if d.Gender != nil {
		g := string(*d.Gender)
		gender = &g
	}
	row("Gender", orDash(string(p.Gender)), gender)

	dob := "-"
	if p.DateOfBirth != nil {
		dob = p.DateOfBirth.Format(time.DateOnly)
	}
	var pendingDOB *string
	if d.DateOfBirth != nil {
		s := d.DateOfBirth.Format(time.DateOnly)
		pendingDOB = &s
	}
	row("Date of birth", dob, pendingDOB)

	avatar := "-"
	if p.AvatarURL != nil {
		avatar = *p.AvatarURL
	}
	row("Avatar", avatar, d.AvatarURL)

	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
