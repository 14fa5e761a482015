package calls

import "time"

// Event is one handled webhook for a call, recorded append-only.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording is best-effort: a failed insert must never fail the webhook
//   response that triggered it.
type Event struct {
	ID      string `json:"id" db:"id"`
	CallSid string `json:"call_sid" db:"call_sid"`

	// Caller is the From number as received; E.164 where Twilio provides it.
	Caller string `json:"caller,omitempty" db:"caller"`

	// Endpoint is the webhook route that handled the request,
	// e.g. "incoming-call/gather".
	Endpoint string `json:"endpoint" db:"endpoint"`

	// TemplateStem is the TwiML template the flow answered with.
	TemplateStem string `json:"template_stem" db:"template_stem"`

	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

// ListQuery is a validated, date-windowed history query.
type ListQuery struct {
	Start time.Time
	End   time.Time

	// Caller optionally filters by the From number.
	Caller string

	Limit  int
	Offset int
}

// Page is one page of history results with an opaque continuation token.
type Page struct {
	Events        []Event `json:"events"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}
