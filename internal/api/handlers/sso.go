package handlers

import (
	"net/http"
	"strings"

	"backsync/internal/auth"
	"backsync/internal/backoffice"
	"backsync/internal/logger"
	"backsync/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const tokenVerifyPath = "/api/wp/token-verify"

// SSOHandler exchanges an opaque back office token for a local session.
// The token is the sole bearer of trust on this route.
type SSOHandler struct {
	db          *gorm.DB
	client      *backoffice.Client
	sessions    *auth.SessionManager
	frontendURL string
	logger      *logger.Logger
}

func NewSSOHandler(db *gorm.DB, client *backoffice.Client, sessions *auth.SessionManager, frontendURL string, logger *logger.Logger) *SSOHandler {
	return &SSOHandler{
		db:          db,
		client:      client,
		sessions:    sessions,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

func (h *SSOHandler) Login(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.errorPage(c, http.StatusUnauthorized, "SSO verification failed.")
		return
	}

	resp, err := h.client.Get(tokenVerifyPath, token)
	if err != nil {
		h.logger.Error("Token verification failed: %v", err)
		h.errorPage(c, http.StatusBadGateway, "SSO verification failed.")
		return
	}

	wpUserID := resp.String("wp_user_id")
	if wpUserID == "" {
		h.errorPage(c, http.StatusUnauthorized, "SSO verification failed.")
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", wpUserID).Error; err != nil {
		h.errorPage(c, http.StatusNotFound, "User not found.")
		return
	}

	sessionToken, err := h.sessions.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.Error("Failed to issue session for user %s: %v", user.ID, err)
		h.errorPage(c, http.StatusInternalServerError, "SSO verification failed.")
		return
	}

	c.SetCookie(auth.SessionCookie, sessionToken, h.sessions.MaxAge(), "/", "", false, true)

	target := strings.TrimRight(h.frontendURL, "/")
	if sponsor := resp.String("sponsor"); sponsor != "" {
		// Client-side anchor, not a server route.
		target = target + "/#" + sponsor
	}
	c.Redirect(http.StatusFound, target)
}

// BackOfficeLogin is the reverse handoff: a logged-in storefront user
// jumps into the back office with a one-time token fetched on their
// behalf.
func (h *SSOHandler) BackOfficeLogin(c *gin.Context) {
	sessionToken, err := c.Cookie(auth.SessionCookie)
	if err != nil || sessionToken == "" {
		h.errorPage(c, http.StatusUnauthorized, "Please login first.")
		return
	}

	claims, err := h.sessions.Verify(sessionToken)
	if err != nil {
		h.errorPage(c, http.StatusUnauthorized, "Please login first.")
		return
	}

	token, err := h.client.LoginToken(claims.Subject)
	if err != nil {
		h.logger.Error("Back office token fetch failed for user %s: %v", claims.Subject, err)
		h.errorPage(c, http.StatusBadGateway, "Back office login failed.")
		return
	}

	c.Redirect(http.StatusFound, h.client.LoginURL(token))
}

func (h *SSOHandler) errorPage(c *gin.Context, status int, message string) {
	c.Data(status, "text/html; charset=utf-8", []byte("<!DOCTYPE html><html><body><h1>"+message+"</h1></body></html>"))
}
