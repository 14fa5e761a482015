package ivr

import (
	"fmt"
	"regexp"
	"time"
)

// Birth dates arrive as an 8-digit DTMF string, YYYYMMDD.
const birthdateDigitLength = 8

var birthdateRe = regexp.MustCompile(`^[0-9]{8}$`)

// parseBirthdate validates the digit string and returns the calendar date.
// Impossible dates (month 13, April 31) are rejected, never wrapped.
func parseBirthdate(digits string) (time.Time, error) {
	if !birthdateRe.MatchString(digits) {
		return time.Time{}, fmt.Errorf("%w: birth date must be %d digits (YYYYMMDD), got %q",
			ErrInvalidInput, birthdateDigitLength, digits)
	}
	t, err := time.Parse("20060102", digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid calendar date", ErrInvalidInput, digits)
	}
	return t, nil
}

// spokenDate renders a date the way the prompts speak it, e.g. "January 2, 1990".
func spokenDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

func confirmationText(t time.Time) string {
	return fmt.Sprintf("You entered %s as your birth date. Press 1 to confirm, or press 2 to re-enter your birth date.",
		spokenDate(t))
}

func confirmedText(t time.Time) string {
	return fmt.Sprintf("Thank you. We have recorded your birth date as %s. Goodbye!", spokenDate(t))
}
