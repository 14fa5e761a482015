package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-webhook/internal/auth"
	"voice-webhook/internal/calls"
	"voice-webhook/internal/config"

	"github.com/gin-gonic/gin"
)

func newAPIRouter(t *testing.T, history *calls.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mgr, err := auth.NewManager(config.AuthConfig{
		JWTSecret:      "test-secret-test-secret-test-secret",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	h := Handlers{Auth: mgr, History: history}
	r := gin.New()
	r.POST("/v1/auth/login", h.Login)
	r.GET("/v1/calls", h.ListCalls)
	r.GET("/v1/calls/:call_sid", h.GetCall)
	return r
}

func seededHistory(t *testing.T) *calls.Service {
	t.Helper()
	s := calls.NewService(calls.NewMemoryRepo())
	if err := s.Record(context.Background(), "CAabc", "+15551234567", "incoming-call/gather", "gather"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	return s
}

func TestLoginIssuesToken(t *testing.T) {
	r := newAPIRouter(t, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"user_id":"u1","role":"operator"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["access_token"] == "" {
		t.Fatal("access_token missing")
	}
}

func TestLoginRejectsIncompleteBody(t *testing.T) {
	r := newAPIRouter(t, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"user_id":"u1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetCall(t *testing.T) {
	r := newAPIRouter(t, seededHistory(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls/CAabc", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var ev calls.Event
	if err := json.Unmarshal(w.Body.Bytes(), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.CallSid != "CAabc" || ev.TemplateStem != "gather" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestGetCallNotFound(t *testing.T) {
	r := newAPIRouter(t, seededHistory(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls/CA404", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListCalls(t *testing.T) {
	r := newAPIRouter(t, seededHistory(t))
	today := time.Now().UTC().Format("2006-01-02")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls?start_date="+today+"&end_date="+today, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var page calls.Page
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(page.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(page.Events))
	}
}

func TestListCallsRejectsBadWindow(t *testing.T) {
	r := newAPIRouter(t, seededHistory(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls?start_date=2026-08-30", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
