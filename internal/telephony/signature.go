package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
)

// Twilio signs each webhook by concatenating the full callback URL with every
// POST parameter's key and value, HMAC-SHA1 over that string with the account
// auth token, base64-encoded, delivered in X-Twilio-Signature.
//
// Parameters are appended in the order they appear on the wire. Do not sort;
// the canonicalization must match Twilio's exactly or every request fails.

const SignatureHeader = "X-Twilio-Signature"

// FormPair is one form parameter in wire order.
type FormPair struct {
	Key   string
	Value string
}

// ValidateSignature recomputes the expected signature and compares it to the
// provided one in constant time. It returns false for any mismatch or
// malformed input and never panics past this boundary.
func ValidateSignature(fullURL string, form []FormPair, provided, authToken string) bool {
	if fullURL == "" || provided == "" || authToken == "" {
		return false
	}
	expected := ComputeSignature(fullURL, form, authToken)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

// ComputeSignature builds the Twilio webhook signature for the given URL,
// ordered form parameters, and auth token.
func ComputeSignature(fullURL string, form []FormPair, authToken string) string {
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(fullURL))
	for _, p := range form {
		mac.Write([]byte(p.Key))
		mac.Write([]byte(p.Value))
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
