package httpapi

import (
	"errors"
	"io"
	"net/http"

	"voice-webhook/internal/calls"
	"voice-webhook/internal/ivr"
	"voice-webhook/internal/params"
	"voice-webhook/internal/telephony"
	"voice-webhook/internal/twiml"
	"voice-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
)

const contentTypeXML = "application/xml"

// WebhookHandlers dispatches Twilio voice callbacks: parse form, resolve
// parameters, verify the signature, run the IVR transition, render TwiML.
// All branching on call-flow state lives in internal/ivr; these handlers
// only translate between HTTP and the engine.
type WebhookHandlers struct {
	Params *params.Resolver

	// History is optional; recording is best-effort and never fails a response.
	History *calls.Service

	// Region is the hint for parsing the configured operator number.
	Region string
}

// webhookRequest is one authenticated, parsed webhook invocation.
type webhookRequest struct {
	form      telephony.InboundForm
	values    map[string]string
	endpoints ivr.Endpoints
}

func (h WebhookHandlers) env(req webhookRequest) ivr.Environment {
	return ivr.Environment{
		MediaURL:       req.values[params.MediaAPIURL],
		OperatorNumber: req.values[params.OperatorPhoneNumber],
		Region:         h.Region,
		Endpoints:      req.endpoints,
	}
}

// authenticate resolves the needed parameters and verifies the request
// signature. On failure it writes the response and returns ok=false.
//
// The auth token and webhook URL are always resolved; extra names ride the
// same batched lookup so each invocation costs one store round trip.
func (h WebhookHandlers) authenticate(c *gin.Context, extra ...string) (webhookRequest, bool) {
	log := logger.FromGin(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return webhookRequest{}, false
	}
	pairs, err := telephony.ParseFormOrdered(string(body))
	if err != nil {
		log.Warn("webhook form parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return webhookRequest{}, false
	}

	names := append([]string{params.TwilioAuthToken, params.WebhookAPIURL}, extra...)
	values, err := h.Params.Resolve(c.Request.Context(), names...)
	if err != nil {
		// A secret we cannot resolve is a verification failure, not a server
		// error: without the token no request can be authenticated.
		var missing *params.MissingError
		if errors.As(err, &missing) && !missing.Missing(params.TwilioAuthToken) {
			log.Error("parameter resolution failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return webhookRequest{}, false
		}
		log.Error("webhook auth token unavailable", "err", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return webhookRequest{}, false
	}

	endpoints, err := ivr.NewEndpoints(values[params.WebhookAPIURL])
	if err != nil {
		log.Error("webhook api url invalid", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return webhookRequest{}, false
	}

	// Twilio signs against the public URL, not whatever host header reached
	// this process.
	fullURL := "https://" + endpoints.Host() + c.Request.URL.RequestURI()
	provided := c.GetHeader(telephony.SignatureHeader)
	if provided == "" {
		log.Warn("webhook signature header missing")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return webhookRequest{}, false
	}
	if !telephony.ValidateSignature(fullURL, pairs, provided, values[params.TwilioAuthToken]) {
		log.Warn("webhook signature invalid", "url", fullURL)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return webhookRequest{}, false
	}

	return webhookRequest{
		form:      telephony.ParseInboundForm(pairs),
		values:    values,
		endpoints: endpoints,
	}, true
}

// IncomingCall answers POST /incoming-call/:stem.
func (h WebhookHandlers) IncomingCall(c *gin.Context) {
	stem := c.Param("stem")
	req, ok := h.authenticate(c, params.MediaAPIURL, params.OperatorPhoneNumber)
	if !ok {
		return
	}
	tr, err := ivr.IncomingCall(h.env(req), stem, req.form.From)
	h.respond(c, req, "incoming-call/"+stem, tr, err)
}

// TransferCall answers POST /transfer-call.
func (h WebhookHandlers) TransferCall(c *gin.Context) {
	req, ok := h.authenticate(c, params.MediaAPIURL, params.OperatorPhoneNumber)
	if !ok {
		return
	}
	tr, err := ivr.TransferCall(h.env(req), h.digits(c, req), req.form.From)
	h.respond(c, req, "transfer-call", tr, err)
}

// ProcessDigits answers POST /process-digits/:target.
func (h WebhookHandlers) ProcessDigits(c *gin.Context) {
	target := c.Param("target")
	req, ok := h.authenticate(c)
	if !ok {
		return
	}
	tr, err := ivr.ProcessDigits(h.env(req), target, h.digits(c, req))
	h.respond(c, req, "process-digits/"+target, tr, err)
}

// ConfirmDigits answers POST /confirm-digits/:target. The previously entered
// birth date rides the action URL's query string.
func (h WebhookHandlers) ConfirmDigits(c *gin.Context) {
	target := c.Param("target")
	req, ok := h.authenticate(c)
	if !ok {
		return
	}
	tr, err := ivr.ConfirmDigits(h.env(req), target, h.digits(c, req), c.Query("birthdate"))
	h.respond(c, req, "confirm-digits/"+target, tr, err)
}

// digits prefers the form's Digits field; gather actions generated by older
// deployments carried digits in the query instead.
func (h WebhookHandlers) digits(c *gin.Context, req webhookRequest) string {
	if req.form.Digits != "" {
		return req.form.Digits
	}
	return c.Query("digits")
}

func (h WebhookHandlers) respond(c *gin.Context, req webhookRequest, endpoint string, tr ivr.Transition, err error) {
	log := logger.FromGin(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	xml, err := twiml.Render(tr.Stem, tr.Values)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.History != nil && req.form.CallSid != "" {
		if err := h.History.Record(c.Request.Context(), req.form.CallSid, req.form.From, endpoint, tr.Stem); err != nil {
			log.Warn("call event record failed", "call_sid", req.form.CallSid, "err", err)
		}
	}

	c.Header("Content-Type", contentTypeXML)
	c.String(http.StatusOK, xml)
}

func (h WebhookHandlers) respondError(c *gin.Context, err error) {
	log := logger.FromGin(c)
	switch {
	case errors.Is(err, ivr.ErrUnknownTemplate) || errors.Is(err, twiml.ErrTemplateNotFound):
		log.Warn("unknown template requested", "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown template"})
	case errors.Is(err, ivr.ErrInvalidInput) || errors.Is(err, telephony.ErrInvalidPhoneNumber):
		log.Warn("webhook input invalid", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, twiml.ErrMalformedTemplate) || errors.Is(err, twiml.ErrPlaceholderUnresolved):
		// A template defect means a broken release; make it loud.
		log.Error("template rendering defect", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	case errors.Is(err, params.ErrConfigUnavailable):
		log.Error("parameter resolution failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		log.Error("webhook handling failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
