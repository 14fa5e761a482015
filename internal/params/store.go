// Package params resolves named runtime parameters (secrets, phone numbers,
// service URLs) from an external key-value store.
//
// The set of parameter names is closed and known at compile time. Values are
// opaque strings owned by the external store; this package only fetches and
// caches them.
package params

import (
	"context"
	"errors"
	"fmt"
)

// Parameter names recognized by the service.
const (
	TwilioAuthToken     = "twilio-auth-token"
	TwilioAccountSID    = "twilio-account-sid"
	OperatorPhoneNumber = "operator-phone-number"
	MediaAPIURL         = "media-api-url"
	WebhookAPIURL       = "webhook-api-url"
)

// ErrConfigUnavailable reports that the store was unreachable or a requested
// name had no value. Callers map it to a 500 (or 401 when the missing value
// is the webhook auth secret).
var ErrConfigUnavailable = errors.New("params: config unavailable")

// Store is a single batched lookup against the external parameter store.
// Implementations must treat the lookup as read-only and idempotent.
//
// Fetch returns a value for every requested name or an error; a partial
// result is reported as an error naming the missing parameters.
type Store interface {
	Fetch(ctx context.Context, names []string) (map[string]string, error)
}

// Namespace renders the store-side key for a parameter name,
// e.g. /twh/dev/twilio-auth-token.
type Namespace struct {
	SystemName string
	EnvType    string
}

func (n Namespace) Key(name string) string {
	return fmt.Sprintf("/%s/%s/%s", n.SystemName, n.EnvType, name)
}

// MissingError reports which requested names had no value. It unwraps to
// ErrConfigUnavailable; callers needing the names use errors.As.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("params: config unavailable: missing parameters %v", e.Names)
}

func (e *MissingError) Unwrap() error { return ErrConfigUnavailable }

// Missing reports whether name is one of the missing parameters.
func (e *MissingError) Missing(name string) bool {
	for _, n := range e.Names {
		if n == name {
			return true
		}
	}
	return false
}

func missingError(names []string) error {
	return &MissingError{Names: names}
}
