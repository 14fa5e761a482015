package calls

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

var ErrInvalidQuery = errors.New("calls: invalid query")

// Service records handled webhooks and serves the call-history API.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Record appends a call event. Callers treat this as best-effort; the caller
// decides whether a failure is worth more than a log line.
func (s *Service) Record(ctx context.Context, callSid, caller, endpoint, templateStem string) error {
	if s.repo == nil {
		return errors.New("calls: repository not configured")
	}
	if callSid == "" || endpoint == "" || templateStem == "" {
		return fmt.Errorf("%w: call_sid, endpoint and template_stem required", ErrInvalidQuery)
	}
	return s.repo.Append(ctx, Event{
		ID:           uuid.NewString(),
		CallSid:      callSid,
		Caller:       caller,
		Endpoint:     endpoint,
		TemplateStem: templateStem,
		OccurredAt:   s.clock().UTC(),
	})
}

// Get returns the latest event for a call SID.
func (s *Service) Get(ctx context.Context, callSid string) (Event, error) {
	if callSid == "" {
		return Event{}, fmt.Errorf("%w: call_sid required", ErrInvalidQuery)
	}
	return s.repo.Latest(ctx, callSid)
}

// ListParams are the raw, unvalidated history query parameters.
type ListParams struct {
	StartDate string // inclusive, YYYY-MM-DD
	EndDate   string // inclusive, YYYY-MM-DD
	Caller    string
	Limit     string
	PageToken string
}

// List validates params and returns one page of events.
func (s *Service) List(ctx context.Context, p ListParams) (Page, error) {
	q, err := parseListParams(p)
	if err != nil {
		return Page{}, err
	}

	// Fetch one extra row to learn whether a next page exists.
	probe := q
	probe.Limit = q.Limit + 1
	events, err := s.repo.List(ctx, probe)
	if err != nil {
		return Page{}, err
	}

	page := Page{Events: events}
	if len(events) > q.Limit {
		page.Events = events[:q.Limit]
		page.NextPageToken = encodePageToken(q.Offset + q.Limit)
	}
	return page, nil
}

func parseListParams(p ListParams) (ListQuery, error) {
	if p.StartDate == "" || p.EndDate == "" {
		return ListQuery{}, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidQuery)
	}
	start, err := time.Parse("2006-01-02", p.StartDate)
	if err != nil {
		return ListQuery{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD, got %q", ErrInvalidQuery, p.StartDate)
	}
	end, err := time.Parse("2006-01-02", p.EndDate)
	if err != nil {
		return ListQuery{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD, got %q", ErrInvalidQuery, p.EndDate)
	}
	if end.Before(start) {
		return ListQuery{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidQuery)
	}

	limit := defaultListLimit
	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		if err != nil || n < 1 || n > maxListLimit {
			return ListQuery{}, fmt.Errorf("%w: limit must be 1..%d, got %q", ErrInvalidQuery, maxListLimit, p.Limit)
		}
		limit = n
	}

	offset := 0
	if p.PageToken != "" {
		offset, err = decodePageToken(p.PageToken)
		if err != nil {
			return ListQuery{}, err
		}
	}

	return ListQuery{
		Start:  start,
		End:    end.AddDate(0, 0, 1), // inclusive end date
		Caller: p.Caller,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Page tokens are opaque to clients: base64 of the numeric offset.
func encodePageToken(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodePageToken(token string) (int, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: bad page_token", ErrInvalidQuery)
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad page_token", ErrInvalidQuery)
	}
	return n, nil
}
