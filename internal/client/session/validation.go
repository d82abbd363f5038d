package session

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/common"
)

const (
	MinAge = 1
	MaxAge = 100
)

// Age is the number of whole years between dob and today. A birthday not yet
// reached this year does not count; someone born on Feb 29 turns a year
// older on Mar 1 in common years.
func Age(dob, today time.Time) int {
	dob, today = models.DateOf(dob), models.DateOf(today)

	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// IsValidDateOfBirth holds when dob is not after today and Age is within
// [MinAge, MaxAge].
func IsValidDateOfBirth(dob, today time.Time) bool {
	d, t := models.DateOf(dob), models.DateOf(today)
	if d.After(t) {
		return false
	}
	age := Age(d, t)
	return age >= MinAge && age <= MaxAge
}

func ValidateDateOfBirth(dob, today time.Time) error {
	if !IsValidDateOfBirth(dob, today) {
		return common.ErrInvalidDateOfBirth
	}
	return nil
}

func ValidateUsername(v string) error {
	if strings.TrimSpace(v) == "" {
		return common.ErrEmptyUsername
	}
	return nil
}

func ValidateGender(g models.Gender) error {
	if !g.Valid() {
		return common.ErrInvalidGender
	}
	return nil
}
