package handlers

import (
	"net/http"

	"backsync/internal/events"
	"backsync/internal/logger"
	"backsync/internal/models"
	"backsync/internal/referral"
	"backsync/internal/register"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterHandler drives both registration surfaces: the standalone form
// and the checkout form. Both pre-validate against the back office before
// any local account exists.
type RegisterHandler struct {
	db        *gorm.DB
	validator *register.Validator
	referrals *referral.Service
	publisher events.EventPublisher
	logger    *logger.Logger
}

func NewRegisterHandler(db *gorm.DB, validator *register.Validator, referrals *referral.Service, publisher events.EventPublisher, logger *logger.Logger) *RegisterHandler {
	return &RegisterHandler{
		db:        db,
		validator: validator,
		referrals: referrals,
		publisher: publisher,
		logger:    logger,
	}
}

// Register handles the standalone registration form.
func (h *RegisterHandler) Register(c *gin.Context) {
	var candidate register.Candidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.process(c, candidate)
}

// CheckoutRegister handles account creation embedded in checkout, where
// the surrounding form uses billing field names.
func (h *RegisterHandler) CheckoutRegister(c *gin.Context) {
	var payload struct {
		BillingEmail     string `json:"billing_email"`
		BillingFirstName string `json:"billing_first_name"`
		BillingLastName  string `json:"billing_last_name"`
		BillingPhone     string `json:"billing_phone"`
		Username         string `json:"account_username"`
		Password         string `json:"account_password"`
		Referral         string `json:"referral"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.process(c, register.Candidate{
		Username:  payload.Username,
		Email:     payload.BillingEmail,
		Password:  payload.Password,
		Referral:  payload.Referral,
		FirstName: payload.BillingFirstName,
		LastName:  payload.BillingLastName,
		Phone:     payload.BillingPhone,
	})
}

func (h *RegisterHandler) process(c *gin.Context, candidate register.Candidate) {
	// A referral submitted with the form wins; otherwise fall back to
	// the sponsor captured earlier in this browsing session.
	if candidate.Referral == "" {
		candidate.Referral = h.capturedSponsor(c)
	}

	result := h.validator.Validate(c.Request.Context(), candidate)
	if !result.OK() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": result.Errors})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(candidate.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password for %s: %v", candidate.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := models.User{
		Username:     result.Username,
		Email:        candidate.Email,
		Name:         fullName(candidate.FirstName, candidate.LastName),
		PasswordHash: string(hash),
	}
	if candidate.Referral != "" {
		user.Referral = &candidate.Referral
	}

	if err := h.db.Create(&user).Error; err != nil {
		h.logger.Error("Failed to create user %s: %v", candidate.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	// The registration sync picks up the pending password from here.
	err = h.publisher.Publish(c.Request.Context(), events.Event{
		Type:     events.TypeUserRegistered,
		EntityID: user.ID,
	})
	if err != nil {
		h.logger.Error("Failed to publish registration event for %s: %v", user.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"user_id":  user.ID,
		"username": user.Username,
	}})
}

func (h *RegisterHandler) capturedSponsor(c *gin.Context) string {
	if sessionID, err := c.Cookie(referral.CookieSessionID); err == nil && sessionID != "" {
		if sponsor, found := h.referrals.Current(c.Request.Context(), sessionID); found {
			return sponsor
		}
	}
	if sponsor, err := c.Cookie(referral.CookieSponsor); err == nil && sponsor != "" {
		return sponsor
	}
	if sponsor, err := c.Cookie(referral.CookieReferralUsername); err == nil && sponsor != "" {
		return sponsor
	}
	return ""
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
