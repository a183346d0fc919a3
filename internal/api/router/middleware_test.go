package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigwork/instantjob/internal/api/domain"
	"github.com/gigwork/instantjob/internal/api/handler"
	"github.com/gigwork/instantjob/internal/api/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubAccounts struct {
	account *model.Account
	err     error
}

func (s *stubAccounts) GetAccountByToken(_ context.Context, _ string) (*model.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func newAuthTestRouter(accounts AccountResolver) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(accounts, nopLogger()))
	r.GET("/protected", func(c *gin.Context) {
		account := c.MustGet(handler.AccountContextKey).(*model.Account)
		c.JSON(http.StatusOK, gin.H{"id": account.ID})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		accounts   *stubAccounts
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing header",
			accounts:   &stubAccounts{},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"unauthorized"`,
		},
		{
			name:       "empty bearer token",
			authHeader: "Bearer ",
			accounts:   &stubAccounts{},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"unauthorized"`,
		},
		{
			name:       "unknown token",
			authHeader: "Bearer stale-token",
			accounts:   &stubAccounts{err: domain.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"unauthorized"`,
		},
		{
			name:       "wrapped invalid token",
			authHeader: "Bearer stale-token",
			accounts:   &stubAccounts{err: fmt.Errorf("failed to get account: %w", domain.ErrInvalidToken)},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"unauthorized"`,
		},
		{
			name:       "database failure is not a logout",
			authHeader: "Bearer good-token",
			accounts:   &stubAccounts{err: fmt.Errorf("failed to get account: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"something went wrong"`,
		},
		{
			name:       "valid token",
			authHeader: "Bearer good-token",
			accounts:   &stubAccounts{account: &model.Account{ID: 7, Role: "employee"}},
			wantStatus: http.StatusOK,
			wantBody:   `"id":7`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthTestRouter(tt.accounts)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
