package domain

import "errors"

var (
	// ErrInvalidToken is returned when a bearer token matches no account
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrJobNotFound is returned when a job cannot be found
	ErrJobNotFound = errors.New("job not found")

	// ErrApplicationNotFound is returned when an application cannot be found
	ErrApplicationNotFound = errors.New("application not found")

	// ErrAlreadyApplied is returned when an employee already holds a live
	// application on the job
	ErrAlreadyApplied = errors.New("employee has already applied to this job")

	// ErrAlreadyAccepted is returned when another application on the job
	// already holds acceptance
	ErrAlreadyAccepted = errors.New("another application is already accepted")

	// ErrInvalidTransition is returned when the requested status change is
	// not legal from the application's current status
	ErrInvalidTransition = errors.New("invalid application status transition")

	// ErrNotOwner is returned when a caller operates on a resource another
	// account owns
	ErrNotOwner = errors.New("caller does not own this resource")
)
