package referral

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"backsync/internal/backoffice"
	"backsync/internal/logger"
	"backsync/internal/store"
)

const (
	// QueryParam is the referral parameter checked on every storefront
	// page view.
	QueryParam = "u"

	// The captured sponsor is mirrored into two session cookies so the
	// storefront can pre-fill referral fields even when the server slot
	// is gone.
	CookieSponsor          = "sponsor"
	CookieReferralUsername = "referral_username"

	// CookieSessionID keys the server-side referral slot.
	CookieSessionID = "backsync_sid"
)

// Service validates and remembers sponsor usernames captured from
// referral links.
type Service struct {
	client *backoffice.Client
	store  store.ReferralStore
	logger *logger.Logger
}

func NewService(client *backoffice.Client, store store.ReferralStore, logger *logger.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Capture sanitizes and remotely validates a raw referral parameter. On
// success the username is stored in the server-side session slot and
// returned for cookie mirroring. Failures are silent: a bad referral
// never breaks a page view.
func (s *Service) Capture(ctx context.Context, sessionID, raw string) (string, bool) {
	username := Sanitize(raw)
	if username == "" {
		return "", false
	}

	valid, err := s.client.ValidateSponsor(username)
	if err != nil {
		s.logger.Debug("Sponsor validation failed for %q: %v", username, err)
		return "", false
	}
	if !valid {
		s.logger.Debug("Sponsor %q rejected by back office", username)
		return "", false
	}

	if err := s.store.Set(ctx, sessionID, username); err != nil {
		// The cookies still carry the value; the server slot is a
		// fallback, not the source of truth.
		s.logger.Error("Failed to store referral slot: %v", err)
	}

	return username, true
}

// Current returns the sponsor captured for this session, if any.
func (s *Service) Current(ctx context.Context, sessionID string) (string, bool) {
	username, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to read referral slot: %v", err)
		return "", false
	}
	return username, found
}

// Clear drops the server-side slot on logout.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}

// Sanitize strips everything that cannot appear in a back office username.
func Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-', r == '@':
			return r
		default:
			return -1
		}
	}, raw)
}

// BuildLink appends the referral parameter to a page URL, producing the
// shareable link for a logged-in user.
func BuildLink(pageURL, username string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid page URL: %s", pageURL)
	}

	query := parsed.Query()
	query.Set(QueryParam, username)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
