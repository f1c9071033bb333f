package api

import (
	"net/http"
	"strconv"
	"time"

	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	headerAccountID = "X-Account-ID"
	headerTestMode  = "X-Test-Mode"

	contextScopeKey = "ledger_scope"
)

// tenantMiddleware resolves the request scope from headers. Every data
// route requires an account; single-tenant deployments set a default
// account id instead of sending the header.
func tenantMiddleware(defaultAccountID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(headerAccountID)
		if tenantID == "" {
			tenantID = defaultAccountID
		}
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing " + headerAccountID + " header",
			})
			return
		}

		testMode := false
		switch c.GetHeader(headerTestMode) {
		case "true", "1":
			testMode = true
		}

		c.Set(contextScopeKey, store.Scope{TenantID: tenantID, TestMode: testMode})
		c.Next()
	}
}

// scopeFrom returns the request scope set by tenantMiddleware.
func scopeFrom(c *gin.Context) store.Scope {
	return c.MustGet(contextScopeKey).(store.Scope)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
