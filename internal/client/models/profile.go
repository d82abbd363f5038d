// Package models defines the client-side domain types: sessions and their
// events, the profile record, partial profile updates and view states.
package models

import (
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/common"
)

// Role is assigned by the server. The client only reads it.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

func (r Role) IsAdmin() bool { return r == RoleAdmin }

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ParseGender accepts the enum values case-insensitively.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", common.ErrInvalidGender
	}
	return g, nil
}

// Profile record columns.
const (
	FieldID          = "id"
	FieldEmail       = "email"
	FieldRole        = "role"
	FieldUsername    = "username"
	FieldGender      = "gender"
	FieldDateOfBirth = "date_of_birth"
	FieldAvatarURL   = "avatar_url"
)

// ProfileRecord is the single row describing a user. ID and Email never
// change after creation; Role is server-authoritative.
type ProfileRecord struct {
	ID          string
	Email       string
	Role        Role
	Username    string
	Gender      Gender     // empty until set
	DateOfBirth *time.Time // date only, UTC midnight
	AvatarURL   *string
}

// Clone returns a deep copy so snapshots handed out can't alias controller state.
func (p *ProfileRecord) Clone() *ProfileRecord {
	if p == nil {
		return nil
	}
	c := *p
	if p.DateOfBirth != nil {
		d := *p.DateOfBirth
		c.DateOfBirth = &d
	}
	if p.AvatarURL != nil {
		u := *p.AvatarURL
		c.AvatarURL = &u
	}
	return &c
}

// Apply copies the writable fields present in patch onto the record.
// Values of an unexpected type are skipped; the repository validates
// patches before they are sent.
func (p *ProfileRecord) Apply(patch ProfilePatch) {
	for field, v := range patch {
		switch field {
		case FieldUsername:
			if s, ok := v.(string); ok {
				p.Username = s
			}
		case FieldGender:
			if g, ok := v.(Gender); ok {
				p.Gender = g
			}
		case FieldDateOfBirth:
			if d, ok := v.(time.Time); ok {
				d = DateOf(d)
				p.DateOfBirth = &d
			}
		case FieldAvatarURL:
			if s, ok := v.(string); ok {
				if s == "" {
					p.AvatarURL = nil
				} else {
					p.AvatarURL = &s
				}
			}
		}
	}
}

// ProfilePatch is a partial update keyed by column name.
//
// Value types: username string, gender Gender, date_of_birth time.Time,
// avatar_url string ("" clears it).
type ProfilePatch map[string]any

// Fields returns the patch keys in a stable order.
func (p ProfilePatch) Fields() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DateOf truncates t to a calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
