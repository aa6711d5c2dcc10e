package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailKeyStable(t *testing.T) {
	key := EmailKey("alice@example.com")

	assert.Len(t, key, 64)
	assert.Equal(t, key, EmailKey("alice@example.com"))
	assert.Equal(t, key, EmailKey("  Alice@Example.COM "))
	assert.NotEqual(t, key, EmailKey("bob@example.com"))
}
