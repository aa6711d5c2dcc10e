package middleware

import (
	"net/http"

	"backsync/internal/referral"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReferralCapture watches every storefront GET for the referral query
// parameter. A remotely validated sponsor is stored server-side and
// mirrored into two session cookies for the storefront scripts.
func ReferralCapture(svc *referral.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			if raw := c.Query(referral.QueryParam); raw != "" {
				sessionID := ensureSessionID(c)
				if username, ok := svc.Capture(c.Request.Context(), sessionID, raw); ok {
					setSessionCookie(c, referral.CookieSponsor, username)
					setSessionCookie(c, referral.CookieReferralUsername, username)
				}
			}
		}
		c.Next()
	}
}

func ensureSessionID(c *gin.Context) string {
	if sessionID, err := c.Cookie(referral.CookieSessionID); err == nil && sessionID != "" {
		return sessionID
	}
	sessionID := uuid.New().String()
	c.SetCookie(referral.CookieSessionID, sessionID, 0, "/", "", false, true)
	return sessionID
}

// setSessionCookie sets a browser-session cookie readable by storefront
// scripts, the cookie analog of sessionStorage.
func setSessionCookie(c *gin.Context, name, value string) {
	c.SetCookie(name, value, 0, "/", "", false, false)
}
