package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backsync/internal/auth"
	"backsync/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSSORouter(t *testing.T, db *gorm.DB, backofficeURL, frontendURL string) (*gin.Engine, *auth.SessionManager) {
	t.Helper()
	sessions := auth.NewSessionManager("test-secret")
	handler := NewSSOHandler(db, newBackofficeClient(backofficeURL), sessions, frontendURL, testLogger())

	router := gin.New()
	router.GET("/sso/login", handler.Login)
	router.GET("/sso/backoffice", handler.BackOfficeLogin)
	return router, sessions
}

func sessionCookie(recorder *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == auth.SessionCookie {
			return cookie
		}
	}
	return nil
}

func TestSSOLoginIssuesSessionAndRedirects(t *testing.T) {
	db := newTestDB(t)
	user := models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&user).Error)

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wp/token-verify", r.URL.Path)
		assert.Equal(t, "Bearer handoff-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{"wp_user_id": user.ID})
	}))
	defer remote.Close()

	router, sessions := newSSORouter(t, db, remote.URL, "https://shop.example.com/")

	recorder := performJSON(router, "GET", "/sso/login?token=handoff-token", nil)

	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "https://shop.example.com", recorder.Header().Get("Location"))

	cookie := sessionCookie(recorder)
	require.NotNil(t, cookie)
	claims, err := sessions.Verify(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "alice", claims.Username)
}

func TestSSOLoginRedirectsToSponsorAnchor(t *testing.T) {
	db := newTestDB(t)
	user := models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&user).Error)

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"wp_user_id": user.ID,
			"sponsor":    "carol",
		})
	}))
	defer remote.Close()

	router, _ := newSSORouter(t, db, remote.URL, "https://shop.example.com")

	recorder := performJSON(router, "GET", "/sso/login?token=handoff-token", nil)

	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "https://shop.example.com/#carol", recorder.Header().Get("Location"))
}

func TestSSOLoginMissingToken(t *testing.T) {
	router, _ := newSSORouter(t, newTestDB(t), "http://127.0.0.1:1", "https://shop.example.com")

	recorder := performJSON(router, "GET", "/sso/login", nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "SSO verification failed.")
	assert.Nil(t, sessionCookie(recorder))
}

func TestSSOLoginMissingUserIDHalts(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": true})
	}))
	defer remote.Close()

	router, _ := newSSORouter(t, newTestDB(t), remote.URL, "https://shop.example.com")

	recorder := performJSON(router, "GET", "/sso/login?token=handoff-token", nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "SSO verification failed.")
	assert.Nil(t, sessionCookie(recorder))
}

func TestSSOLoginUnknownLocalUser(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"wp_user_id": "no-such-user"})
	}))
	defer remote.Close()

	router, _ := newSSORouter(t, newTestDB(t), remote.URL, "https://shop.example.com")

	recorder := performJSON(router, "GET", "/sso/login?token=handoff-token", nil)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "User not found.")
	assert.Nil(t, sessionCookie(recorder))
}

func TestBackOfficeLoginRedirectsWithToken(t *testing.T) {
	db := newTestDB(t)
	user := models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&user).Error)

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wp/get-token/"+user.ID, r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{"token": "one-time-token"})
	}))
	defer remote.Close()

	router, sessions := newSSORouter(t, db, remote.URL, "https://shop.example.com")

	token, err := sessions.Issue(user.ID, user.Username)
	require.NoError(t, err)

	recorder := performJSON(router, "GET", "/sso/backoffice", nil,
		&http.Cookie{Name: auth.SessionCookie, Value: token})

	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, remote.URL+"/login?token=one-time-token", recorder.Header().Get("Location"))
}

func TestBackOfficeLoginRequiresSession(t *testing.T) {
	router, _ := newSSORouter(t, newTestDB(t), "http://127.0.0.1:1", "https://shop.example.com")

	recorder := performJSON(router, "GET", "/sso/backoffice", nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Please login first.")
}

func TestBackOfficeLoginMissingTokenHalts(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": true})
	}))
	defer remote.Close()

	router, sessions := newSSORouter(t, newTestDB(t), remote.URL, "https://shop.example.com")

	token, err := sessions.Issue("user-1", "alice")
	require.NoError(t, err)

	recorder := performJSON(router, "GET", "/sso/backoffice", nil,
		&http.Cookie{Name: auth.SessionCookie, Value: token})

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Back office login failed.")
}

func TestSSOLoginBackOfficeUnreachable(t *testing.T) {
	router, _ := newSSORouter(t, newTestDB(t), "http://127.0.0.1:1", "https://shop.example.com")

	recorder := performJSON(router, "GET", "/sso/login?token=handoff-token", nil)

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.Nil(t, sessionCookie(recorder))
}
