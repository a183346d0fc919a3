package client

import (
	"context"
	"log/slog"
	"time"
)

// Lifecycle drives the instant-job application state machine: each
// operation performs its API call and reconciles the store with the
// server's response. User-triggered mutations pass through a
// per-operation leading-edge throttle; a dropped call is a silent no-op
// and never reaches the network.
//
// Operations provide no cross-call ordering guarantee beyond
// last-response-wins per store slice. In-flight calls run to completion
// even if the triggering view is gone; reconciling state for an
// invisible view is a no-op, not an error.
type Lifecycle struct {
	api    *Client
	store  *Store
	logger *slog.Logger

	applyThrottle  *Throttle
	cancelThrottle *Throttle
	updateThrottle *Throttle
	revokeThrottle *Throttle
}

// NewLifecycle wires the transition operations to an API client and a
// store. window gates each mutating operation; non-positive means
// DefaultThrottleWindow.
func NewLifecycle(api *Client, store *Store, logger *slog.Logger, window time.Duration) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		api:            api,
		store:          store,
		logger:         logger,
		applyThrottle:  NewThrottle(window),
		cancelThrottle: NewThrottle(window),
		updateThrottle: NewThrottle(window),
		revokeThrottle: NewThrottle(window),
	}
}

// Store returns the store this lifecycle reconciles.
func (l *Lifecycle) Store() *Store {
	return l.store
}

// LoadJob fetches a job's detail and replaces the current job. On
// failure the prior job, if any, is left untouched.
func (l *Lifecycle) LoadJob(ctx context.Context, jobID int64) error {
	l.store.begin(OpLoadJob)

	job, err := l.api.GetJob(ctx, jobID)
	if err != nil {
		l.store.fail(OpLoadJob, err)
		return err
	}

	l.store.finishJob(job)
	return nil
}

// LoadApplications fetches a job's application list and replaces the
// stored list wholesale.
func (l *Lifecycle) LoadApplications(ctx context.Context, jobID int64) error {
	l.store.begin(OpLoadApplications)

	apps, err := l.api.ListApplications(ctx, jobID)
	if err != nil {
		l.store.fail(OpLoadApplications, err)
		return err
	}

	l.store.finishApplications(OpLoadApplications, apps)
	return nil
}

// ApplyToJob creates the employee's application and attaches the
// returned application to the current job view. Throttled.
func (l *Lifecycle) ApplyToJob(ctx context.Context, jobID int64, params ApplyParams) error {
	if !l.applyThrottle.Allow() {
		l.logger.Debug("Apply dropped by throttle", slog.Int64("job_id", jobID))
		return nil
	}

	l.store.begin(OpApply)

	app, err := l.api.Apply(ctx, jobID, params)
	if err != nil {
		l.store.fail(OpApply, err)
		return err
	}

	l.store.finishOwnApplication(app)
	return nil
}

// CancelApplication withdraws the employee's own application and clears
// it from the current job view. Throttled.
func (l *Lifecycle) CancelApplication(ctx context.Context, jobID, applicationID int64) error {
	if !l.cancelThrottle.Allow() {
		l.logger.Debug("Cancel dropped by throttle", slog.Int64("application_id", applicationID))
		return nil
	}

	l.store.begin(OpCancel)

	if _, err := l.api.CancelApplication(ctx, jobID, applicationID); err != nil {
		l.store.fail(OpCancel, err)
		return err
	}

	l.store.finishCancel()
	return nil
}

// UpdateApplicationStatus performs a poster-side accept or revoke and
// replaces the applications list with the server's authoritative
// post-transition list. The server recomputes the recommendation and
// competing state; nothing is patched locally. Throttled.
func (l *Lifecycle) UpdateApplicationStatus(ctx context.Context, jobID, applicationID int64, action Action) error {
	if !l.updateThrottle.Allow() {
		l.logger.Debug("Status update dropped by throttle",
			slog.Int64("application_id", applicationID),
		)
		return nil
	}

	l.store.begin(OpUpdateStatus)

	apps, err := l.api.UpdateApplicationStatus(ctx, jobID, applicationID, action)
	if err != nil {
		l.store.fail(OpUpdateStatus, err)
		return err
	}

	l.store.finishApplications(OpUpdateStatus, apps)
	return nil
}

// RevokeAllApplications withdraws acceptance entirely and replaces the
// applications list with the server's response. Throttled.
func (l *Lifecycle) RevokeAllApplications(ctx context.Context, jobID int64) error {
	if !l.revokeThrottle.Allow() {
		l.logger.Debug("Revoke-all dropped by throttle", slog.Int64("job_id", jobID))
		return nil
	}

	l.store.begin(OpRevokeAll)

	apps, err := l.api.RevokeAllApplications(ctx, jobID)
	if err != nil {
		l.store.fail(OpRevokeAll, err)
		return err
	}

	l.store.finishApplications(OpRevokeAll, apps)
	return nil
}

// RefreshOnNotification reconciles the store after a push message. The
// refresh is a full reload of whatever the notification concerns, so
// receiving the same message twice converges to the same state, and a
// missed message is healed by the next one. Notifications for a job
// other than the current one are ignored.
func (l *Lifecycle) RefreshOnNotification(ctx context.Context, n Notification) error {
	snap := l.store.Snapshot()
	if n.JobID == 0 || snap.Job == nil || snap.Job.ID != n.JobID {
		l.logger.Debug("Notification does not concern current job, skipping refresh",
			slog.Int64("job_id", n.JobID),
			slog.String("title", n.Title),
		)
		return nil
	}

	if err := l.LoadJob(ctx, n.JobID); err != nil {
		return err
	}

	if l.api.Role() == SessionKeyUser {
		return l.LoadApplications(ctx, n.JobID)
	}
	return nil
}
