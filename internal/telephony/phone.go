package telephony

import (
	"errors"
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhoneNumber reports a number that could not be parsed or is not
// a valid number for its region. Formatting fails closed: a malformed
// operator number must never reach a <Dial> verb.
var ErrInvalidPhoneNumber = errors.New("telephony: invalid phone number")

// FormatE164 parses raw (with region as the hint for national-format input)
// and renders it as E.164.
func FormatE164(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPhoneNumber, raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
