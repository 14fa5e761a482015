package telephony

import (
	"errors"
	"testing"
)

func TestFormatE164(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   string
	}{
		{"already e164", "+15552370123", "US", "+15552370123"},
		{"national us", " (555) 237-0123", "US", "+15552370123"},
		{"national gb", "020 7946 0958", "GB", "+442079460958"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatE164(tc.raw, tc.region)
			if err != nil {
				t.Fatalf("format: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatE164_FailsClosed(t *testing.T) {
	for _, raw := range []string{"", "not-a-number", "+1", "123"} {
		if _, err := FormatE164(raw, "US"); !errors.Is(err, ErrInvalidPhoneNumber) {
			t.Fatalf("expected ErrInvalidPhoneNumber for %q, got %v", raw, err)
		}
	}
}
