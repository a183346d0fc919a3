package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigwork/instantjob/internal/api/handler"
)

type stubDB struct {
	err error
}

func (s stubDB) HealthCheck(_ context.Context) error {
	return s.err
}

type stubBroker struct {
	up bool
}

func (s stubBroker) IsConnected() bool {
	return s.up
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		db         handler.DatabaseChecker
		broker     handler.BrokerChecker
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "all dependencies healthy",
			db:         stubDB{},
			broker:     stubBroker{up: true},
			wantStatus: http.StatusOK,
			wantBody:   []string{`"status":"healthy"`, `"database":"up"`, `"rabbitmq":"up"`},
		},
		{
			name:       "database down",
			db:         stubDB{err: fmt.Errorf("connection refused")},
			broker:     stubBroker{up: true},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   []string{`"status":"unhealthy"`, `"database":"down"`},
		},
		{
			name:       "broker down",
			db:         stubDB{},
			broker:     stubBroker{up: false},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   []string{`"status":"unhealthy"`, `"rabbitmq":"down"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SetupRouter(&handler.Dependencies{
				Logger: nopLogger(),
				DB:     tt.db,
				Broker: tt.broker,
			})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			for _, fragment := range tt.wantBody {
				assert.Contains(t, w.Body.String(), fragment)
			}
		})
	}
}
