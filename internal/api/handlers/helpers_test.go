package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"backsync/internal/backoffice"
	"backsync/internal/config"
	"backsync/internal/database"
	"backsync/internal/events"
	"backsync/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testLogger() *logger.Logger {
	return logger.New("error")
}

func newBackofficeClient(baseURL string) *backoffice.Client {
	return backoffice.NewClient(&config.Config{APIBaseURL: baseURL, APIKey: "test-key"}, testLogger())
}

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePublisher struct {
	published []events.Event
}

func (f *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

type fakePending struct {
	entries map[string]string
}

func newFakePending() *fakePending {
	return &fakePending{entries: map[string]string{}}
}

func (f *fakePending) Put(ctx context.Context, key, password string, ttl time.Duration) error {
	f.entries[key] = password
	return nil
}

func (f *fakePending) Take(ctx context.Context, key string) (string, bool, error) {
	password, ok := f.entries[key]
	delete(f.entries, key)
	return password, ok, nil
}

type fakeReferralStore struct {
	slots map[string]string
}

func newFakeReferralStore() *fakeReferralStore {
	return &fakeReferralStore{slots: map[string]string{}}
}

func (f *fakeReferralStore) Set(ctx context.Context, sessionID, username string) error {
	f.slots[sessionID] = username
	return nil
}

func (f *fakeReferralStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	username, ok := f.slots[sessionID]
	return username, ok, nil
}

func (f *fakeReferralStore) Clear(ctx context.Context, sessionID string) error {
	delete(f.slots, sessionID)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db.DB
}

func performJSON(router *gin.Engine, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func responseBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}
