package sync

import (
	"encoding/json"
	"net/http"
	"testing"

	"backsync/internal/store"

	"github.com/stretchr/testify/require"
)

func decodeJSONBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(v))
}

func emailKeyFor(email string) string {
	return store.EmailKey(email)
}
