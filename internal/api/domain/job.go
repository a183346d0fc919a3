package domain

// Job lifecycle status values
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusClosed     = "closed"
	JobStatusHold       = "hold"
)

// Rate type values for a job's price
const (
	RateTypePerHour = 0
	RateTypePerDay  = 1
	RateTypePerJob  = 2
)

// ValidRateType reports whether the given rate type is known.
func ValidRateType(rateType int) bool {
	switch rateType {
	case RateTypePerHour, RateTypePerDay, RateTypePerJob:
		return true
	}
	return false
}
