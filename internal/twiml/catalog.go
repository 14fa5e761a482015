// Package twiml renders TwiML response documents from a closed catalog of
// embedded XML templates.
//
// Templates carry {name} placeholders in attribute or text positions.
// Rendering is literal find/replace over XML-escaped values; there are no
// conditionals or loops, which keeps the injection surface closed.
package twiml

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
)

//go:embed templates/*.twiml.xml
var templateFS embed.FS

// Template stems. The catalog is closed; an unknown stem is rejected before
// any substitution happens.
const (
	StemConnect               = "connect"
	StemGather                = "gather"
	StemDial                  = "dial"
	StemHangup                = "hangup"
	StemBirthdate             = "birthdate"
	StemBirthdateConfirmation = "birthdate-confirmation"
	StemBirthdateConfirmed    = "birthdate-confirmed"
	StemBirthdateRetry        = "birthdate-retry"
	StemBirthdateInvalidInput = "birthdate-invalid-input"
)

// Placeholder names used across the catalog.
const (
	PlaceholderMediaURL         = "media_url"
	PlaceholderCallerNumber     = "caller_number"
	PlaceholderTransferURL      = "transfer_url"
	PlaceholderProcessURL       = "process_url"
	PlaceholderConfirmURL       = "confirm_url"
	PlaceholderRetryURL         = "retry_url"
	PlaceholderOperatorNumber   = "operator_number"
	PlaceholderConfirmationText = "confirmation_text"
	PlaceholderConfirmedText    = "confirmed_text"
)

// catalog maps each stem to the placeholders its document requires.
// verified against the embedded files at init.
var catalog = map[string][]string{
	StemConnect:               {PlaceholderMediaURL, PlaceholderCallerNumber},
	StemGather:                {PlaceholderTransferURL},
	StemDial:                  {PlaceholderOperatorNumber},
	StemHangup:                nil,
	StemBirthdate:             {PlaceholderProcessURL, PlaceholderRetryURL},
	StemBirthdateConfirmation: {PlaceholderConfirmationText, PlaceholderConfirmURL, PlaceholderRetryURL},
	StemBirthdateConfirmed:    {PlaceholderConfirmedText},
	StemBirthdateRetry:        {PlaceholderRetryURL},
	StemBirthdateInvalidInput: {PlaceholderConfirmURL, PlaceholderRetryURL},
}

var placeholderRe = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Stems returns the catalog stems in sorted order.
func Stems() []string {
	out := make([]string, 0, len(catalog))
	for stem := range catalog {
		out = append(out, stem)
	}
	sort.Strings(out)
	return out
}

// Known reports whether stem is in the catalog.
func Known(stem string) bool {
	_, ok := catalog[stem]
	return ok
}

// RequiredPlaceholders returns the placeholder names stem needs, or an error
// for a stem outside the catalog.
func RequiredPlaceholders(stem string) ([]string, error) {
	req, ok := catalog[stem]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, stem)
	}
	out := make([]string, len(req))
	copy(out, req)
	return out, nil
}

func init() {
	// A stem whose embedded document disagrees with the catalog is a build
	// defect; fail fast rather than serving broken TwiML.
	for stem := range catalog {
		if err := verifyTemplate(stem); err != nil {
			panic(fmt.Sprintf("twiml: template %q: %v", stem, err))
		}
	}
}

func verifyTemplate(stem string) error {
	raw, err := load(stem)
	if err != nil {
		return err
	}
	if err := checkDocument(raw); err != nil {
		return err
	}

	found := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(string(raw), -1) {
		found[m[1]] = true
	}
	for _, name := range catalog[stem] {
		if !found[name] {
			return fmt.Errorf("catalog requires {%s} but document lacks it", name)
		}
		delete(found, name)
	}
	if len(found) > 0 {
		for name := range found {
			return fmt.Errorf("document has {%s} not declared in catalog", name)
		}
	}
	return nil
}

func load(stem string) ([]byte, error) {
	raw, err := templateFS.ReadFile("templates/" + stem + ".twiml.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, stem)
	}
	return raw, nil
}
