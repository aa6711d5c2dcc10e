package handlers

import (
	"net/http"

	"backsync/internal/auth"
	"backsync/internal/logger"
	"backsync/internal/referral"

	"github.com/gin-gonic/gin"
)

// ReferralHandler exposes the captured sponsor to checkout forms and
// builds shareable referral links for logged-in users.
type ReferralHandler struct {
	svc         *referral.Service
	sessions    *auth.SessionManager
	frontendURL string
	logger      *logger.Logger
}

func NewReferralHandler(svc *referral.Service, sessions *auth.SessionManager, frontendURL string, logger *logger.Logger) *ReferralHandler {
	return &ReferralHandler{
		svc:         svc,
		sessions:    sessions,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Current returns the sponsor captured for this session, server slot
// first, session cookies as fallback.
func (h *ReferralHandler) Current(c *gin.Context) {
	if sessionID, err := c.Cookie(referral.CookieSessionID); err == nil && sessionID != "" {
		if sponsor, found := h.svc.Current(c.Request.Context(), sessionID); found {
			c.JSON(http.StatusOK, gin.H{"sponsor": sponsor})
			return
		}
	}

	for _, name := range []string{referral.CookieSponsor, referral.CookieReferralUsername} {
		if sponsor, err := c.Cookie(name); err == nil && sponsor != "" {
			c.JSON(http.StatusOK, gin.H{"sponsor": sponsor})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"sponsor": ""})
}

// Link builds pageURL?u=username for the logged-in user.
func (h *ReferralHandler) Link(c *gin.Context) {
	sessionToken, err := c.Cookie(auth.SessionCookie)
	if err != nil || sessionToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please login to get your referral link."})
		return
	}

	claims, err := h.sessions.Verify(sessionToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please login to get your referral link."})
		return
	}

	pageURL := c.Query("url")
	if pageURL == "" {
		pageURL = h.frontendURL
	}

	link, err := referral.BuildLink(pageURL, claims.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": link})
}

// Logout drops the local session and every trace of the captured sponsor,
// server- and client-side.
func (h *ReferralHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(referral.CookieSessionID); err == nil && sessionID != "" {
		if err := h.svc.Clear(c.Request.Context(), sessionID); err != nil {
			h.logger.Error("Failed to clear referral slot: %v", err)
		}
	}

	for _, name := range []string{referral.CookieSponsor, referral.CookieReferralUsername, auth.SessionCookie} {
		c.SetCookie(name, "", -1, "/", "", false, false)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
