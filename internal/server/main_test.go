package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testServer struct {
	*Server
	app   *fiber.App
	store *storage.MemoryStore
}

// newTestServer wires the full API over in-memory sqlite, an in-memory
// object store and no Redis.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := &config.Config{
		Port:                 "0",
		JWTSecret:            "test-secret-with-at-least-32-characters!",
		SessionTTLHours:      1,
		AllowedOrigins:       "http://localhost:5173",
		FeedPageSize:         6,
		ImageMaxUploadSizeMB: 1,
	}
	store := storage.NewMemoryStore("blog-images", "")
	s, err := NewServerWithDeps(cfg, db, nil, store)
	require.NoError(t, err)

	app := s.App()
	s.StartBackground()
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return &testServer{Server: s, app: app, store: store}
}

// do sends a JSON request and decodes the JSON answer into a map.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// signUp registers and signs in a user, returning the bearer token and id.
func (ts *testServer) signUp(t *testing.T, username string) (token, id string) {
	t.Helper()
	email := username + "@example.com"
	status, body := ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":            email,
		"username":         username,
		"password":         "secret123",
		"confirm_password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, status, body)

	status, body = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, status, body)
	session := body["session"].(map[string]interface{})
	user := session["user"].(map[string]interface{})
	return session["token"].(string), user["id"].(string)
}

// createPost submits the editor form and returns the created post id.
func (ts *testServer) createPost(t *testing.T, token, title string, publish bool) float64 {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/api/posts", map[string]interface{}{
		"title":    title,
		"content":  "A body long enough to pass validation for " + title,
		"category": "React",
		"publish":  publish,
	}, token)
	require.Equal(t, http.StatusCreated, status, body)
	return body["blog"].(map[string]interface{})["id"].(float64)
}
