package telephony

import (
	"fmt"
	"net/url"
	"strings"
)

// Twilio voice webhooks are application/x-www-form-urlencoded. Signature
// verification needs the parameters in wire order, which net/url's map-based
// parsing discards, so the raw body is split by hand here.

// ParseFormOrdered decodes a urlencoded body preserving parameter order.
// Blank values are kept; they participate in the signature.
func ParseFormOrdered(body string) ([]FormPair, error) {
	if body == "" {
		return nil, nil
	}
	var pairs []FormPair
	for _, kv := range strings.Split(body, "&") {
		if kv == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(kv, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("telephony: bad form key %q: %w", rawKey, err)
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, fmt.Errorf("telephony: bad form value for %q: %w", key, err)
		}
		pairs = append(pairs, FormPair{Key: key, Value: val})
	}
	return pairs, nil
}

// InboundForm captures the subset of voice webhook fields the IVR flow needs.
type InboundForm struct {
	CallSid string
	From    string
	To      string
	Digits  string
}

// FormValue returns the first value for key, or "".
func FormValue(pairs []FormPair, key string) string {
	for _, p := range pairs {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// ParseInboundForm extracts the typed fields from ordered form pairs.
func ParseInboundForm(pairs []FormPair) InboundForm {
	return InboundForm{
		CallSid: FormValue(pairs, "CallSid"),
		From:    strings.TrimSpace(FormValue(pairs, "From")),
		To:      strings.TrimSpace(FormValue(pairs, "To")),
		Digits:  FormValue(pairs, "Digits"),
	}
}
