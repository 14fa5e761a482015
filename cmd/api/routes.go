package main

import (
	"net/http"

	"voice-webhook/internal/auth"
	"voice-webhook/internal/calls"
	"voice-webhook/internal/config"
	"voice-webhook/internal/httpapi"
	"voice-webhook/internal/params"
	"voice-webhook/internal/rbac"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	cfg      config.Config
	auth     *auth.Manager
	resolver *params.Resolver
	history  *calls.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks. Public routes, but every request is authenticated
	// inside the handlers by its X-Twilio-Signature header.
	{
		h := httpapi.WebhookHandlers{
			Params:  deps.resolver,
			History: deps.history,
			Region:  deps.cfg.App.DefaultRegion,
		}
		r.POST("/incoming-call/:stem", h.IncomingCall)
		r.POST("/transfer-call", h.TransferCall)
		r.POST("/process-digits/:target", h.ProcessDigits)
		r.POST("/confirm-digits/:target", h.ConfirmDigits)
	}

	h := httpapi.Handlers{Auth: deps.auth, History: deps.history}

	// protected API group
	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", h.Login)

		callsGroup := v1.Group("/calls")
		callsGroup.Use(auth.RequireAccessToken(deps.auth))
		callsGroup.Use(rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator))
		{
			callsGroup.GET("", h.ListCalls)
			callsGroup.GET("/:call_sid", h.GetCall)
		}
	}
}
