// Package client is the instant-job client SDK: an authenticated API
// client, an observable job/application store, the transition
// operations that drive the application lifecycle, a leading-edge
// throttle guarding user-triggered mutations, and a realtime push
// listener. A UI layer renders from the store and triggers
// transitions; everything here is UI-agnostic.
package client

import (
	"encoding/json"
	"fmt"
)

// ApplicationStatus is an application's lifecycle status as the server
// reports it.
type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "applied"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusDeclined  ApplicationStatus = "declined"
	StatusRevoked   ApplicationStatus = "revoked"
	StatusCancelled ApplicationStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case StatusDeclined, StatusRevoked, StatusCancelled:
		return true
	}
	return false
}

// Action is a poster-side transition on one application. The wire
// protocol encodes it as a small integer; the translation happens in
// exactly one place (wireCode) so nothing else branches on magic
// numbers.
type Action int

const (
	ActionRevoke Action = iota + 1
	ActionAccept
)

func (a Action) wireCode() (int, error) {
	switch a {
	case ActionRevoke:
		return 1, nil
	case ActionAccept:
		return 2, nil
	default:
		return 0, fmt.Errorf("unknown action %d", int(a))
	}
}

// Application is one employee's bid on a job. Recommended is
// server-computed and never guessed locally.
type Application struct {
	ID          int64             `json:"id"`
	JobID       int64             `json:"job_id"`
	EmployeeID  int64             `json:"employee_id"`
	FinalPrice  float64           `json:"final_price"`
	SlotTime    string            `json:"slot_time"`
	Status      ApplicationStatus `json:"status"`
	Recommended bool              `json:"recommended"`
	CreatedAt   string            `json:"created_at"`
}

// Job is an instant job as the detail endpoint returns it. Application
// is the caller's own live application, when one exists.
type Job struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	CategoryID   int64        `json:"job_category_id"`
	RateType     int          `json:"rate_type"`
	Price        float64      `json:"price"`
	SlotDate     string       `json:"slot_date"`
	SlotTime     string       `json:"slot_time"`
	AddressLine1 string       `json:"address_line_1"`
	AddressLine2 string       `json:"address_line_2"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	ZipCode      string       `json:"zip_code"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	ImageURLs    []string     `json:"image_urls"`
	Status       string       `json:"status"`
	CreatedAt    string       `json:"created_at"`
	Application  *Application `json:"application,omitempty"`
}

// Notification is a push-channel message: a title, optionally the job
// it concerns, plus whatever else the server attached.
type Notification struct {
	Title  string
	JobID  int64
	Fields map[string]any
}

// ParseNotification decodes a push payload. Unknown fields are kept in
// Fields so handlers can inspect them; a payload without a title is
// still valid.
func ParseNotification(body []byte) (Notification, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Notification{}, fmt.Errorf("failed to parse notification: %w", err)
	}
	if raw == nil {
		return Notification{}, fmt.Errorf("notification payload is not an object")
	}

	n := Notification{Fields: raw}
	if title, ok := raw["title"].(string); ok {
		n.Title = title
		delete(raw, "title")
	}
	if jobID, ok := raw["job_id"].(float64); ok {
		n.JobID = int64(jobID)
		delete(raw, "job_id")
	}
	return n, nil
}
