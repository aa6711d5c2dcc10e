package register

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"backsync/internal/backoffice"
	"backsync/internal/logger"
	"backsync/internal/models"
	"backsync/internal/store"

	"gorm.io/gorm"
)

const validateUserPath = "/api/wp/validate-user"

// Candidate is a registration attempt before any local account exists.
// Username may be blank; it is then derived from the email local part.
type Candidate struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Referral  string `json:"referral"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	// Username is the resolved (possibly derived) username. Only
	// meaningful when Errors is empty.
	Username string
	Errors   []FieldError
}

func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Validator pre-validates a registration against the back office before
// any local account is created, and stashes the plaintext password for
// the registration sync that runs after creation.
type Validator struct {
	db      *gorm.DB
	client  *backoffice.Client
	pending store.PendingStore
	logger  *logger.Logger
}

func NewValidator(db *gorm.DB, client *backoffice.Client, pending store.PendingStore, logger *logger.Logger) *Validator {
	return &Validator{
		db:      db,
		client:  client,
		pending: pending,
		logger:  logger,
	}
}

// Validate runs local checks, then the remote pre-validation. Any error in
// the result blocks local account creation. On success a pending
// registration entry exists for the candidate's email.
func (v *Validator) Validate(ctx context.Context, candidate Candidate) Result {
	var result Result

	if candidate.Email == "" {
		result.addError("email", "Email address is required.")
	}
	if candidate.Password == "" {
		result.addError("password", "Password is required.")
	}
	if !result.OK() {
		// Remote validation is skipped entirely on local failures.
		return result
	}

	if !v.client.Configured() {
		result.addError("", "Registration service is not configured.")
		return result
	}

	username := candidate.Username
	if username == "" {
		username = v.deriveUsername(candidate.Email)
	}

	payload := map[string]interface{}{
		"username": username,
		"email":    candidate.Email,
		"password": candidate.Password,
	}
	if candidate.Referral != "" {
		payload["referral"] = candidate.Referral
	}
	if candidate.FirstName != "" {
		payload["first_name"] = candidate.FirstName
	}
	if candidate.LastName != "" {
		payload["last_name"] = candidate.LastName
	}
	if candidate.Phone != "" {
		payload["phone"] = candidate.Phone
	}

	resp, err := v.client.Post(validateUserPath, payload)
	if err != nil {
		v.logger.Error("Registration pre-validation failed for %s: %v", candidate.Email, err)
		result.addError("", "Failed to connect to the registration service.")
		return result
	}

	if resp.StatusCode == http.StatusOK && resp.StatusTruthy() {
		err := v.pending.Put(ctx, store.EmailKey(candidate.Email), candidate.Password, store.PendingTTL)
		if err != nil {
			v.logger.Error("Failed to stash pending registration for %s: %v", candidate.Email, err)
			result.addError("", "Registration could not be completed. Please try again.")
			return result
		}
		result.Username = username
		return result
	}

	if fieldErrors := resp.FieldErrors(); len(fieldErrors) > 0 {
		fields := make([]string, 0, len(fieldErrors))
		for field := range fieldErrors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			for _, message := range fieldErrors[field] {
				result.addError(field, message)
			}
		}
		return result
	}

	result.addError("", resp.Message())
	return result
}

// deriveUsername builds a username from the email local part and appends a
// numeric suffix until it does not collide with an existing account.
func (v *Validator) deriveUsername(email string) string {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, base)
	if base == "" {
		base = "user"
	}

	candidate := base
	for suffix := 1; v.usernameTaken(candidate); suffix++ {
		candidate = base + strconv.Itoa(suffix)
	}
	return candidate
}

func (v *Validator) usernameTaken(username string) bool {
	var count int64
	v.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	return count > 0
}
