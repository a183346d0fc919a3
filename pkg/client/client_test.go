package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSessions returns a session store seeded with a token for role.
func newTestSessions(t *testing.T, role string, id int64, token string) *SessionStore {
	t.Helper()

	sessions, err := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, sessions.Set(role, Profile{ID: id, Name: "tester", Token: token}))
	return sessions
}

func newTestClient(t *testing.T, baseURL, role string, sessions *SessionStore, onUnauthorized func(string)) *Client {
	t.Helper()

	api, err := New(Config{
		BaseURL:        baseURL,
		Role:           role,
		Sessions:       sessions,
		Logger:         nopLogger(),
		OnUnauthorized: onUnauthorized,
	})
	require.NoError(t, err)
	return api
}

func TestNew_Validation(t *testing.T) {
	sessions := newTestSessions(t, SessionKeyUser, 1, "tok")

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing base URL", cfg: Config{Role: SessionKeyUser, Sessions: sessions}},
		{name: "invalid role", cfg: Config{BaseURL: "http://x", Role: "admin", Sessions: sessions}},
		{name: "missing sessions", cfg: Config{BaseURL: "http://x", Role: SessionKeyUser}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	router := gin.New()
	router.GET("/api/v1/instant_jobs/:job_id", func(c *gin.Context) {
		gotAuth = c.GetHeader("Authorization")
		c.JSON(http.StatusOK, gin.H{"id": 42, "status": "open"})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	sessions := newTestSessions(t, SessionKeyEmployee, 7, "employee-token")
	api := newTestClient(t, srv.URL, SessionKeyEmployee, sessions, nil)

	job, err := api.GetJob(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), job.ID)
	assert.Equal(t, "Bearer employee-token", gotAuth)
}

func TestClient_NoSessionFailsBeforeNetwork(t *testing.T) {
	called := false
	router := gin.New()
	router.NoRoute(func(c *gin.Context) { called = true })
	srv := httptest.NewServer(router)
	defer srv.Close()

	sessions, err := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	api := newTestClient(t, srv.URL, SessionKeyEmployee, sessions, nil)

	_, err = api.GetJob(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, called)
}

func TestClient_UnauthorizedClearsSessionOnce(t *testing.T) {
	router := gin.New()
	router.GET("/api/v1/instant_jobs/:job_id", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{"unauthorized"}})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	callbacks := 0
	var callbackRole string
	sessions := newTestSessions(t, SessionKeyEmployee, 7, "stale-token")
	api := newTestClient(t, srv.URL, SessionKeyEmployee, sessions, func(role string) {
		callbacks++
		callbackRole = role
	})

	_, err := api.GetJob(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Exactly one logout and one navigation event for the 401.
	assert.Equal(t, 1, callbacks)
	assert.Equal(t, SessionKeyEmployee, callbackRole)
	_, err = sessions.Token(SessionKeyEmployee)
	assert.ErrorIs(t, err, ErrNoSession)

	// The next call finds no session and never reaches the server.
	_, err = api.GetJob(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 1, callbacks)
}

func TestClient_ValidationErrorsSurfacedVerbatim(t *testing.T) {
	router := gin.New()
	router.PUT("/api/v1/instant_jobs/:job_id/instant_job_applications/:application_id/update_status", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": []string{"application already accepted"},
		})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	sessions := newTestSessions(t, SessionKeyUser, 1, "user-token")
	api := newTestClient(t, srv.URL, SessionKeyUser, sessions, nil)

	_, err := api.UpdateApplicationStatus(context.Background(), 42, 101, ActionAccept)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, []string{"application already accepted"}, apiErr.Messages)
	assert.Contains(t, apiErr.Error(), "application already accepted")
}

func TestClient_ServerErrorShape(t *testing.T) {
	router := gin.New()
	router.GET("/api/v1/instant_jobs/:job_id", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	sessions := newTestSessions(t, SessionKeyUser, 1, "user-token")
	api := newTestClient(t, srv.URL, SessionKeyUser, sessions, nil)

	_, err := api.GetJob(context.Background(), 42)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, []string{"something went wrong"}, apiErr.Messages)
}

func TestClient_ServerErrorKeepsSession(t *testing.T) {
	router := gin.New()
	router.GET("/api/v1/instant_jobs/:job_id", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	callbacks := 0
	sessions := newTestSessions(t, SessionKeyEmployee, 7, "employee-token")
	api := newTestClient(t, srv.URL, SessionKeyEmployee, sessions, func(string) {
		callbacks++
	})

	_, err := api.GetJob(context.Background(), 42)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)

	// Only a 401 logs the client out; a backend failure must not.
	assert.Equal(t, 0, callbacks)
	token, err := sessions.Token(SessionKeyEmployee)
	require.NoError(t, err)
	assert.Equal(t, "employee-token", token)
}

func TestClient_UpdateStatusWireCodes(t *testing.T) {
	var gotStatus int
	router := gin.New()
	router.PUT("/api/v1/instant_jobs/:job_id/instant_job_applications/:application_id/update_status", func(c *gin.Context) {
		var body struct {
			Status int `json:"status"`
		}
		require.NoError(t, c.ShouldBindJSON(&body))
		gotStatus = body.Status
		c.JSON(http.StatusOK, []gin.H{})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	sessions := newTestSessions(t, SessionKeyUser, 1, "user-token")
	api := newTestClient(t, srv.URL, SessionKeyUser, sessions, nil)

	_, err := api.UpdateApplicationStatus(context.Background(), 42, 101, ActionRevoke)
	require.NoError(t, err)
	assert.Equal(t, 1, gotStatus)

	_, err = api.UpdateApplicationStatus(context.Background(), 42, 101, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, 2, gotStatus)

	_, err = api.UpdateApplicationStatus(context.Background(), 42, 101, Action(9))
	assert.Error(t, err)
}

func TestClient_ContextCancellation(t *testing.T) {
	router := gin.New()
	router.GET("/api/v1/instant_jobs/:job_id", func(c *gin.Context) {
		time.Sleep(200 * time.Millisecond)
		c.JSON(http.StatusOK, gin.H{"id": 42})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	sessions := newTestSessions(t, SessionKeyUser, 1, "user-token")
	api := newTestClient(t, srv.URL, SessionKeyUser, sessions, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := api.GetJob(ctx, 42)
	assert.Error(t, err)
}
