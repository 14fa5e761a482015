package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"voice-webhook/internal/calls"
	"voice-webhook/internal/params"
	"voice-webhook/internal/telephony"

	"github.com/gin-gonic/gin"
)

const (
	testAuthToken   = "12345678901234567890123456789012"
	testWebhookHost = "hooks.example.com"
)

func testParamValues() map[string]string {
	return map[string]string{
		params.TwilioAuthToken:     testAuthToken,
		params.WebhookAPIURL:       "https://" + testWebhookHost,
		params.MediaAPIURL:         "wss://media.example.com/audio",
		params.OperatorPhoneNumber: "+15552370123",
	}
}

func newWebhookRouter(values map[string]string, history *calls.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := WebhookHandlers{
		Params:  params.NewResolver(params.NewStaticStore(values)),
		History: history,
		Region:  "US",
	}
	r.POST("/incoming-call/:stem", h.IncomingCall)
	r.POST("/transfer-call", h.TransferCall)
	r.POST("/process-digits/:target", h.ProcessDigits)
	r.POST("/confirm-digits/:target", h.ConfirmDigits)
	return r
}

func encodeForm(pairs []telephony.FormPair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// signedPost builds a webhook POST whose signature is computed the way the
// upstream provider computes it: over the public URL plus the form pairs in
// wire order.
func signedPost(t *testing.T, target string, pairs []telephony.FormPair) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(encodeForm(pairs)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	fullURL := "https://" + testWebhookHost + target
	req.Header.Set(telephony.SignatureHeader, telephony.ComputeSignature(fullURL, pairs, testAuthToken))
	return req
}

func basePairs() []telephony.FormPair {
	return []telephony.FormPair{
		{Key: "CallSid", Value: "CA1234567890abcdef"},
		{Key: "From", Value: "+15551234567"},
		{Key: "To", Value: "+15559876543"},
	}
}

func doRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIncomingCallGather(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	w := doRequest(r, signedPost(t, "/incoming-call/gather", basePairs()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `action="https://hooks.example.com/transfer-call"`) {
		t.Fatalf("gather action missing: %s", body)
	}
}

func TestIncomingCallConnect(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	w := doRequest(r, signedPost(t, "/incoming-call/connect", basePairs()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `url="wss://media.example.com/audio"`) {
		t.Fatalf("media stream url missing: %s", body)
	}
	if !strings.Contains(body, "+15551234567") {
		t.Fatalf("caller number missing: %s", body)
	}
}

func TestIncomingCallUnknownStem(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	for _, stem := range []string{"no-such-template", "birthdate-confirmation"} {
		w := doRequest(r, signedPost(t, "/incoming-call/"+stem, basePairs()))
		if w.Code != http.StatusNotFound {
			t.Fatalf("stem %q: status = %d, want 404", stem, w.Code)
		}
	}
}

func TestRejectsTamperedSignature(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	req := signedPost(t, "/incoming-call/gather", basePairs())
	req.Header.Set(telephony.SignatureHeader, "AAAA"+req.Header.Get(telephony.SignatureHeader)[4:])
	if w := doRequest(r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRejectsTamperedBody(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	pairs := basePairs()
	req := signedPost(t, "/incoming-call/gather", pairs)

	pairs[1].Value = "+15550000000"
	tampered := httptest.NewRequest(http.MethodPost, "/incoming-call/gather", strings.NewReader(encodeForm(pairs)))
	tampered.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tampered.Header.Set(telephony.SignatureHeader, req.Header.Get(telephony.SignatureHeader))
	if w := doRequest(r, tampered); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRejectsMissingSignatureHeader(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	req := signedPost(t, "/incoming-call/gather", basePairs())
	req.Header.Del(telephony.SignatureHeader)
	if w := doRequest(r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMissingAuthTokenIsUnauthorized(t *testing.T) {
	values := testParamValues()
	delete(values, params.TwilioAuthToken)
	r := newWebhookRouter(values, nil)
	w := doRequest(r, signedPost(t, "/incoming-call/gather", basePairs()))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if strings.Contains(w.Body.String(), params.TwilioAuthToken) {
		t.Fatalf("response leaks parameter name: %s", w.Body.String())
	}
}

func TestMissingMediaURLIsServerError(t *testing.T) {
	values := testParamValues()
	delete(values, params.MediaAPIURL)
	r := newWebhookRouter(values, nil)
	w := doRequest(r, signedPost(t, "/incoming-call/connect", basePairs()))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestTransferCallRouting(t *testing.T) {
	cases := []struct {
		digits string
		want   string
	}{
		{"1", "wss://media.example.com/audio"},
		{"2", "<Dial>+15552370123</Dial>"},
		{"9", "<Hangup/>"},
		{"12", "<Hangup/>"},
		{"", "<Hangup/>"},
	}
	r := newWebhookRouter(testParamValues(), nil)
	for _, tc := range cases {
		pairs := append(basePairs(), telephony.FormPair{Key: "Digits", Value: tc.digits})
		w := doRequest(r, signedPost(t, "/transfer-call", pairs))
		if w.Code != http.StatusOK {
			t.Fatalf("digits %q: status = %d, body %s", tc.digits, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), tc.want) {
			t.Fatalf("digits %q: want %q in %s", tc.digits, tc.want, w.Body.String())
		}
	}
}

func TestProcessDigitsValidBirthdate(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	pairs := append(basePairs(), telephony.FormPair{Key: "Digits", Value: "20000229"})
	w := doRequest(r, signedPost(t, "/process-digits/birthdate", pairs))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "February 29, 2000") {
		t.Fatalf("spoken date missing: %s", body)
	}
	if !strings.Contains(body, "/confirm-digits/birthdate?birthdate=20000229") {
		t.Fatalf("confirm action missing: %s", body)
	}
}

func TestProcessDigitsInvalidInput(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	for _, digits := range []string{"", "1990", "19900229", "abcdefgh"} {
		pairs := append(basePairs(), telephony.FormPair{Key: "Digits", Value: digits})
		w := doRequest(r, signedPost(t, "/process-digits/birthdate", pairs))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("digits %q: status = %d, want 400", digits, w.Code)
		}
	}
}

func TestProcessDigitsUnknownTarget(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	pairs := append(basePairs(), telephony.FormPair{Key: "Digits", Value: "19900115"})
	w := doRequest(r, signedPost(t, "/process-digits/ssn", pairs))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestConfirmDigits(t *testing.T) {
	cases := []struct {
		digits string
		want   string
	}{
		{"1", "recorded your birth date as January 15, 1990"},
		{"2", "https://hooks.example.com/incoming-call/birthdate"},
		{"9", "/confirm-digits/birthdate?birthdate=19900115"},
	}
	r := newWebhookRouter(testParamValues(), nil)
	for _, tc := range cases {
		pairs := append(basePairs(), telephony.FormPair{Key: "Digits", Value: tc.digits})
		target := "/confirm-digits/birthdate?birthdate=19900115"
		w := doRequest(r, signedPost(t, target, pairs))
		if w.Code != http.StatusOK {
			t.Fatalf("digits %q: status = %d, body %s", tc.digits, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), tc.want) {
			t.Fatalf("digits %q: want %q in %s", tc.digits, tc.want, w.Body.String())
		}
	}
}

func TestConfirmDigitsRejectsBadCarriedDate(t *testing.T) {
	r := newWebhookRouter(testParamValues(), nil)
	pairs := append(basePairs(), telephony.FormPair{Key: "Digits", Value: "1"})
	w := doRequest(r, signedPost(t, "/confirm-digits/birthdate?birthdate=not-a-date", pairs))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestWebhookRecordsCallEvent(t *testing.T) {
	history := calls.NewService(calls.NewMemoryRepo())
	r := newWebhookRouter(testParamValues(), history)
	w := doRequest(r, signedPost(t, "/incoming-call/gather", basePairs()))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	ev, err := history.Get(context.Background(), "CA1234567890abcdef")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ev.Endpoint != "incoming-call/gather" || ev.TemplateStem != "gather" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Caller != "+15551234567" {
		t.Fatalf("caller = %q", ev.Caller)
	}
}
