package client

import (
	"context"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		checkFunc func(t *testing.T, n Notification)
	}{
		{
			name: "title and job id",
			body: `{"title":"New application received","job_id":42,"status":"applied"}`,
			checkFunc: func(t *testing.T, n Notification) {
				assert.Equal(t, "New application received", n.Title)
				assert.Equal(t, int64(42), n.JobID)
				assert.Equal(t, "applied", n.Fields["status"])
			},
		},
		{
			name: "no job id",
			body: `{"title":"Welcome"}`,
			checkFunc: func(t *testing.T, n Notification) {
				assert.Equal(t, "Welcome", n.Title)
				assert.Zero(t, n.JobID)
			},
		},
		{
			name: "empty object",
			body: `{}`,
			checkFunc: func(t *testing.T, n Notification) {
				assert.Empty(t, n.Title)
				assert.Zero(t, n.JobID)
			},
		},
		{
			name:    "malformed json",
			body:    `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseNotification([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, n)
		})
	}
}

func TestListener_DeliversNotifications(t *testing.T) {
	var mu sync.Mutex
	var received []Notification
	listener := NewListener(nopLogger(), func(_ context.Context, n Notification) {
		mu.Lock()
		received = append(received, n)
		mu.Unlock()
	})

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Body: []byte(`{"title":"Accepted","job_id":42}`)}
	deliveries <- amqp.Delivery{Body: []byte(`{"title":"Revoked","job_id":42}`)}
	close(deliveries)

	listener.Run(context.Background(), deliveries)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, "Accepted", received[0].Title)
	assert.Equal(t, "Revoked", received[1].Title)
}

func TestListener_SkipsMalformedPayloads(t *testing.T) {
	var received []Notification
	listener := NewListener(nopLogger(), func(_ context.Context, n Notification) {
		received = append(received, n)
	})

	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Body: []byte(`{not json`)}
	deliveries <- amqp.Delivery{Body: []byte(`null`)}
	deliveries <- amqp.Delivery{Body: []byte(`{"title":"Survivor","job_id":1}`)}
	close(deliveries)

	listener.Run(context.Background(), deliveries)

	require.Len(t, received, 2)
	assert.Equal(t, "Survivor", received[1].Title)
}

func TestListener_StopsOnContextCancel(t *testing.T) {
	listener := NewListener(nopLogger(), func(context.Context, Notification) {})

	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)

	done := make(chan struct{})
	go func() {
		listener.Run(ctx, deliveries)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after context cancellation")
	}
}

// Duplicate deliveries must converge: the refresh handler reloads the
// whole view, so receiving the same message twice ends in the same
// state as receiving it once.
func TestListener_DuplicateDeliveryIsIdempotent(t *testing.T) {
	store := NewStore()
	store.finishJob(&Job{ID: 42, Status: "open"})

	refreshes := 0
	handler := func(_ context.Context, n Notification) {
		snap := store.Snapshot()
		if snap.Job == nil || snap.Job.ID != n.JobID {
			return
		}
		refreshes++
		store.finishJob(&Job{ID: 42, Status: "in_progress"})
	}
	listener := NewListener(nopLogger(), handler)

	payload := []byte(`{"title":"Application accepted","job_id":42}`)
	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Body: payload}
	deliveries <- amqp.Delivery{Body: payload}
	close(deliveries)

	listener.Run(context.Background(), deliveries)

	assert.Equal(t, 2, refreshes)
	assert.Equal(t, "in_progress", store.Snapshot().Job.Status)
}
