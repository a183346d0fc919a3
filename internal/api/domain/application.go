package domain

// Status is an application's lifecycle status. Declined, revoked and
// cancelled are terminal.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusRevoked   Status = "revoked"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusDeclined, StatusRevoked, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusAccepted, StatusDeclined, StatusRevoked, StatusCancelled:
		return true
	}
	return false
}

// Action is a poster-side status transition on a single application.
type Action int

const (
	ActionRevoke Action = iota + 1
	ActionAccept
)

// Bid is the slice of an application the transition rules need.
type Bid struct {
	ID     int64
	Status Status
	Price  float64
}

// CanAccept checks that target may move to accepted: it must currently
// be applied, and no competing application on the same job may already
// hold acceptance.
func CanAccept(target Bid, siblings []Bid) error {
	if target.Status != StatusApplied {
		return ErrInvalidTransition
	}
	for _, s := range siblings {
		if s.ID == target.ID {
			continue
		}
		if s.Status == StatusAccepted {
			return ErrAlreadyAccepted
		}
	}
	return nil
}

// CanRevoke checks that target may have its acceptance withdrawn. Only
// an accepted application can be revoked back to applied.
func CanRevoke(target Bid) error {
	if target.Status != StatusAccepted {
		return ErrInvalidTransition
	}
	return nil
}

// CanCancel checks that the employee may cancel their own application.
func CanCancel(target Bid) error {
	if target.Status.Terminal() {
		return ErrInvalidTransition
	}
	return nil
}

// RecommendedID returns the id of the cheapest live bid, the server's
// ranking signal surfaced to the poster. Returns 0 when no bid
// qualifies. Ties resolve to the earliest id so the result is stable
// across recomputation.
func RecommendedID(bids []Bid) int64 {
	var best Bid
	found := false
	for _, b := range bids {
		if b.Status != StatusApplied && b.Status != StatusAccepted {
			continue
		}
		if !found || b.Price < best.Price || (b.Price == best.Price && b.ID < best.ID) {
			best = b
			found = true
		}
	}
	if !found {
		return 0
	}
	return best.ID
}
