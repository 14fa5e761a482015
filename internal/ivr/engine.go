// Package ivr encodes the call-flow state machine as pure transitions.
//
// The flow is stateless: everything a transition needs arrives with the
// request (route parameter, DTMF digits, carried-forward fields) or from the
// parameter store (URLs, operator number). Transitions decide which template
// to render and with which values; they never render and never perform I/O.
package ivr

import (
	"errors"
	"fmt"

	"voice-webhook/internal/telephony"
	"voice-webhook/internal/twiml"
)

// DTMF menu choices. Comparisons are exact full-string equality on the digit
// payload; "10" is not "1".
const (
	DigitVoiceAssistant   = "1"
	DigitOperatorTransfer = "2"
	DigitConfirm          = "1"
	DigitReenter          = "2"
)

// TargetBirthdate is the only digit-collection target currently wired.
const TargetBirthdate = "birthdate"

var (
	// ErrUnknownTemplate reports a stem no incoming-call flow can serve.
	ErrUnknownTemplate = errors.New("ivr: unknown template")

	// ErrInvalidInput reports caller input that failed validation.
	ErrInvalidInput = errors.New("ivr: invalid input")
)

// Environment carries the resolved parameter values a transition may need.
// Values are resolved once per request; transitions only read them.
type Environment struct {
	// MediaURL is the media-stream endpoint for the voice assistant.
	MediaURL string
	// OperatorNumber is the configured operator line, formatted on use.
	OperatorNumber string
	// Region is the hint for parsing non-international operator numbers.
	Region string

	Endpoints Endpoints
}

// Transition is the immutable outcome of one state-machine step: the
// template stem to render and its substitution values.
type Transition struct {
	Stem   string
	Values map[string]string
}

// IncomingCall answers the first webhook of a call. The stem selects the
// opening prompt; stems whose placeholders depend on flow state (the
// confirmation family) cannot be entered here and report ErrUnknownTemplate.
func IncomingCall(env Environment, stem, caller string) (Transition, error) {
	switch stem {
	case twiml.StemConnect:
		return connectTransition(env, caller)
	case twiml.StemGather:
		return Transition{
			Stem: twiml.StemGather,
			Values: map[string]string{
				twiml.PlaceholderTransferURL: env.Endpoints.TransferCall(),
			},
		}, nil
	case twiml.StemBirthdate:
		return birthdateEntryTransition(env), nil
	case twiml.StemDial:
		return dialTransition(env)
	case twiml.StemHangup:
		return Transition{Stem: twiml.StemHangup, Values: map[string]string{}}, nil
	case twiml.StemBirthdateRetry:
		return Transition{
			Stem: twiml.StemBirthdateRetry,
			Values: map[string]string{
				twiml.PlaceholderRetryURL: env.Endpoints.IncomingCall(twiml.StemBirthdate),
			},
		}, nil
	default:
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, stem)
	}
}

// TransferCall routes the caller's menu choice from the gather prompt.
// Anything but the two wired digits falls back to hangup.
func TransferCall(env Environment, digits, caller string) (Transition, error) {
	switch digits {
	case DigitVoiceAssistant:
		return connectTransition(env, caller)
	case DigitOperatorTransfer:
		return dialTransition(env)
	default:
		return Transition{Stem: twiml.StemHangup, Values: map[string]string{}}, nil
	}
}

// ProcessDigits handles the collected birth date. Valid input yields the
// confirmation prompt carrying the raw digit string forward; anything else
// is ErrInvalidInput.
func ProcessDigits(env Environment, target, digits string) (Transition, error) {
	if target != TargetBirthdate {
		return Transition{}, fmt.Errorf("%w: unsupported target %q", ErrInvalidInput, target)
	}
	date, err := parseBirthdate(digits)
	if err != nil {
		return Transition{}, err
	}
	return Transition{
		Stem: twiml.StemBirthdateConfirmation,
		Values: map[string]string{
			twiml.PlaceholderConfirmationText: confirmationText(date),
			twiml.PlaceholderConfirmURL:       env.Endpoints.ConfirmDigits(TargetBirthdate, digits),
			twiml.PlaceholderRetryURL:         env.Endpoints.IncomingCall(twiml.StemBirthdate),
		},
	}, nil
}

// ConfirmDigits handles the confirmation menu for a carried-forward birth
// date. "1" confirms (terminal), "2" re-enters, anything else re-prompts.
func ConfirmDigits(env Environment, target, digits, birthdate string) (Transition, error) {
	if target != TargetBirthdate {
		return Transition{}, fmt.Errorf("%w: unsupported target %q", ErrInvalidInput, target)
	}
	// The carried value round-tripped through the caller; revalidate it.
	date, err := parseBirthdate(birthdate)
	if err != nil {
		return Transition{}, err
	}

	switch digits {
	case DigitConfirm:
		return Transition{
			Stem: twiml.StemBirthdateConfirmed,
			Values: map[string]string{
				twiml.PlaceholderConfirmedText: confirmedText(date),
			},
		}, nil
	case DigitReenter:
		return Transition{
			Stem: twiml.StemBirthdateRetry,
			Values: map[string]string{
				twiml.PlaceholderRetryURL: env.Endpoints.IncomingCall(twiml.StemBirthdate),
			},
		}, nil
	default:
		return Transition{
			Stem: twiml.StemBirthdateInvalidInput,
			Values: map[string]string{
				twiml.PlaceholderConfirmURL: env.Endpoints.ConfirmDigits(TargetBirthdate, birthdate),
				twiml.PlaceholderRetryURL:   env.Endpoints.IncomingCall(twiml.StemBirthdate),
			},
		}, nil
	}
}

func connectTransition(env Environment, caller string) (Transition, error) {
	if caller == "" {
		return Transition{}, fmt.Errorf("%w: caller number not found in request", ErrInvalidInput)
	}
	return Transition{
		Stem: twiml.StemConnect,
		Values: map[string]string{
			twiml.PlaceholderMediaURL:     env.MediaURL,
			twiml.PlaceholderCallerNumber: caller,
		},
	}, nil
}

func dialTransition(env Environment) (Transition, error) {
	number, err := telephony.FormatE164(env.OperatorNumber, env.Region)
	if err != nil {
		return Transition{}, err
	}
	return Transition{
		Stem: twiml.StemDial,
		Values: map[string]string{
			twiml.PlaceholderOperatorNumber: number,
		},
	}, nil
}

func birthdateEntryTransition(env Environment) Transition {
	return Transition{
		Stem: twiml.StemBirthdate,
		Values: map[string]string{
			twiml.PlaceholderProcessURL: env.Endpoints.ProcessDigits(TargetBirthdate),
			twiml.PlaceholderRetryURL:   env.Endpoints.IncomingCall(twiml.StemBirthdate),
		},
	}
}
