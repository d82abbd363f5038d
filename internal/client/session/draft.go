package session

import (
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
)

// Draft buffers edits made since the last save. Values are kept as entered,
// including invalid ones, so SaveProfile can report them. AvatarURL is set
// only when an uploaded avatar could not be written to the profile.
type Draft struct {
	Username    *string
	Gender      *models.Gender
	DateOfBirth *time.Time
	AvatarURL   *string
}

func (d Draft) Empty() bool {
	return d.Username == nil && d.Gender == nil && d.DateOfBirth == nil && d.AvatarURL == nil
}

func (d Draft) clone() Draft {
	var c Draft
	if d.Username != nil {
		v := *d.Username
		c.Username = &v
	}
	if d.Gender != nil {
		v := *d.Gender
		c.Gender = &v
	}
	if d.DateOfBirth != nil {
		v := *d.DateOfBirth
		c.DateOfBirth = &v
	}
	if d.AvatarURL != nil {
		v := *d.AvatarURL
		c.AvatarURL = &v
	}
	return c
}

// validate returns the first failing field check, in form order.
func (d Draft) validate(today time.Time) error {
	if d.Username != nil {
		if err := ValidateUsername(*d.Username); err != nil {
			return err
		}
	}
	if d.Gender != nil {
		if err := ValidateGender(*d.Gender); err != nil {
			return err
		}
	}
	if d.DateOfBirth != nil {
		if err := ValidateDateOfBirth(*d.DateOfBirth, today); err != nil {
			return err
		}
	}
	return nil
}

// patch holds only the fields that differ from p.
func (d Draft) patch(p *models.ProfileRecord) models.ProfilePatch {
	patch := models.ProfilePatch{}

	if d.Username != nil && *d.Username != p.Username {
		patch[models.FieldUsername] = *d.Username
	}
	if d.Gender != nil && *d.Gender != p.Gender {
		patch[models.FieldGender] = *d.Gender
	}
	if d.DateOfBirth != nil && (p.DateOfBirth == nil || !d.DateOfBirth.Equal(*p.DateOfBirth)) {
		patch[models.FieldDateOfBirth] = *d.DateOfBirth
	}
	if d.AvatarURL != nil && (p.AvatarURL == nil || *d.AvatarURL != *p.AvatarURL) {
		patch[models.FieldAvatarURL] = *d.AvatarURL
	}

	return patch
}

// forget drops fields whose buffered value is still the one that was saved.
// Edits made while the save was in flight survive.
func (d *Draft) forget(saved Draft) {
	if d.Username != nil && saved.Username != nil && *d.Username == *saved.Username {
		d.Username = nil
	}
	if d.Gender != nil && saved.Gender != nil && *d.Gender == *saved.Gender {
		d.Gender = nil
	}
	if d.DateOfBirth != nil && saved.DateOfBirth != nil && d.DateOfBirth.Equal(*saved.DateOfBirth) {
		d.DateOfBirth = nil
	}
	if d.AvatarURL != nil && saved.AvatarURL != nil && *d.AvatarURL == *saved.AvatarURL {
		d.AvatarURL = nil
	}
}
