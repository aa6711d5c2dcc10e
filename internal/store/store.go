package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// PendingTTL is how long a pre-validated registration password survives.
// If local account creation takes longer than this, the registration sync
// will not find the password and fails.
const PendingTTL = 300 * time.Second

// PendingStore holds plaintext passwords between remote pre-validation and
// the registration sync that forwards them. Entries are read-once: Take
// removes the entry whether or not the caller's sync succeeds afterwards.
type PendingStore interface {
	Put(ctx context.Context, key, password string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, bool, error)
}

// ReferralStore is the server-side session slot for captured sponsor
// usernames. The browser keeps its own copy in session cookies; this is
// the fallback the checkout pre-fill consults first.
type ReferralStore interface {
	Set(ctx context.Context, sessionID, username string) error
	Get(ctx context.Context, sessionID string) (string, bool, error)
	Clear(ctx context.Context, sessionID string) error
}

// EmailKey derives the stable pending-store key for an email address.
func EmailKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}
