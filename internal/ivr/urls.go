package ivr

import (
	"errors"
	"fmt"
	"net/url"
)

// Endpoints builds the callback URLs embedded in rendered TwiML. The host
// comes from the configured public webhook URL; the scheme is always https
// because Twilio signs against the public address, regardless of what sits
// in front of this process.
type Endpoints struct {
	host string
}

func NewEndpoints(webhookAPIURL string) (Endpoints, error) {
	u, err := url.Parse(webhookAPIURL)
	if err != nil {
		return Endpoints{}, fmt.Errorf("ivr: webhook api url: %w", err)
	}
	if u.Host == "" {
		return Endpoints{}, errors.New("ivr: webhook api url has no host")
	}
	return Endpoints{host: u.Host}, nil
}

// Host returns the public webhook host.
func (e Endpoints) Host() string { return e.host }

func (e Endpoints) IncomingCall(stem string) string {
	return fmt.Sprintf("https://%s/incoming-call/%s", e.host, url.PathEscape(stem))
}

func (e Endpoints) TransferCall() string {
	return fmt.Sprintf("https://%s/transfer-call", e.host)
}

func (e Endpoints) ProcessDigits(target string) string {
	return fmt.Sprintf("https://%s/process-digits/%s", e.host, url.PathEscape(target))
}

// ConfirmDigits carries the entered digit string forward in the query so the
// confirmation step stays stateless.
func (e Endpoints) ConfirmDigits(target, digits string) string {
	return fmt.Sprintf("https://%s/confirm-digits/%s?birthdate=%s",
		e.host, url.PathEscape(target), url.QueryEscape(digits))
}
