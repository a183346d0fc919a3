package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_FinishApplicationsReplacesWholesale(t *testing.T) {
	store := NewStore()
	store.finishApplications(OpLoadApplications, []Application{
		{ID: 1, JobID: 42, Status: StatusApplied},
		{ID: 2, JobID: 42, Status: StatusApplied},
		{ID: 3, JobID: 42, Status: StatusApplied},
	})

	// A shorter authoritative list drops the entries it omits.
	store.finishApplications(OpUpdateStatus, []Application{
		{ID: 1, JobID: 42, Status: StatusAccepted},
		{ID: 3, JobID: 42, Status: StatusApplied},
	})

	snap := store.Snapshot()
	require.Len(t, snap.Applications, 2)
	assert.Equal(t, int64(1), snap.Applications[0].ID)
	assert.Equal(t, StatusAccepted, snap.Applications[0].Status)
	assert.Equal(t, int64(3), snap.Applications[1].ID)
}

func TestStore_FailLeavesDataUntouched(t *testing.T) {
	store := NewStore()
	store.finishJob(&Job{ID: 42, Title: "Lawn mowing"})
	store.finishApplications(OpLoadApplications, []Application{{ID: 1, JobID: 42}})

	store.begin(OpUpdateStatus)
	opErr := errors.New("boom")
	store.fail(OpUpdateStatus, opErr)

	snap := store.Snapshot()
	require.NotNil(t, snap.Job)
	assert.Equal(t, int64(42), snap.Job.ID)
	assert.Len(t, snap.Applications, 1)

	state := store.Op(OpUpdateStatus)
	assert.False(t, state.Loading)
	assert.Equal(t, opErr, state.Err)
}

func TestStore_BeginClearsPreviousError(t *testing.T) {
	store := NewStore()
	store.fail(OpApply, errors.New("boom"))

	store.begin(OpApply)

	state := store.Op(OpApply)
	assert.True(t, state.Loading)
	assert.NoError(t, state.Err)
}

func TestStore_OpStatesAreIndependent(t *testing.T) {
	store := NewStore()
	store.begin(OpLoadJob)
	store.fail(OpApply, errors.New("boom"))

	assert.True(t, store.Op(OpLoadJob).Loading)
	assert.False(t, store.Op(OpApply).Loading)
	assert.Error(t, store.Op(OpApply).Err)
	assert.NoError(t, store.Op(OpLoadApplications).Err)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := NewStore()
	store.finishJob(&Job{ID: 42, Application: &Application{ID: 7, JobID: 42}})
	store.finishApplications(OpLoadApplications, []Application{{ID: 7, JobID: 42}})

	snap := store.Snapshot()
	snap.Job.ID = 99
	snap.Job.Application.ID = 99
	snap.Applications[0].ID = 99

	fresh := store.Snapshot()
	assert.Equal(t, int64(42), fresh.Job.ID)
	assert.Equal(t, int64(7), fresh.Job.Application.ID)
	assert.Equal(t, int64(7), fresh.Applications[0].ID)
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	store := NewStore()

	notified := 0
	unsubscribe := store.Subscribe(func() { notified++ })

	store.finishJob(&Job{ID: 1})
	store.begin(OpLoadApplications)
	assert.Equal(t, 2, notified)

	unsubscribe()
	store.finishJob(&Job{ID: 2})
	assert.Equal(t, 2, notified)
}

func TestStore_FinishOwnApplicationRequiresMatchingJob(t *testing.T) {
	store := NewStore()
	store.finishJob(&Job{ID: 42})

	// Response for a job other than the current one is a no-op.
	store.finishOwnApplication(&Application{ID: 7, JobID: 99})
	assert.Nil(t, store.Snapshot().Job.Application)

	store.finishOwnApplication(&Application{ID: 7, JobID: 42})
	require.NotNil(t, store.Snapshot().Job.Application)
	assert.Equal(t, int64(7), store.Snapshot().Job.Application.ID)
}

func TestStore_Reset(t *testing.T) {
	store := NewStore()
	store.finishJob(&Job{ID: 42})
	store.finishApplications(OpLoadApplications, []Application{{ID: 1}})
	store.fail(OpApply, errors.New("boom"))

	store.Reset()

	snap := store.Snapshot()
	assert.Nil(t, snap.Job)
	assert.Nil(t, snap.Applications)
	assert.NoError(t, store.Op(OpApply).Err)
}
