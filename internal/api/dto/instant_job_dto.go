package dto

import (
	"fmt"
	"time"

	"github.com/gigwork/instantjob/internal/api/domain"
	"github.com/gigwork/instantjob/internal/api/model"
)

// CreateJobRequest is the poster's job-post submission.
type CreateJobRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	CategoryID   int64    `json:"job_category_id" binding:"required"`
	RateType     int      `json:"rate_type"`
	Price        float64  `json:"price" binding:"required"`
	SlotDate     string   `json:"slot_date" binding:"required"`
	SlotTime     string   `json:"slot_time" binding:"required"`
	AddressLine1 string   `json:"address_line_1" binding:"required"`
	AddressLine2 string   `json:"address_line_2"`
	City         string   `json:"city" binding:"required"`
	State        string   `json:"state" binding:"required"`
	ZipCode      string   `json:"zip_code" binding:"required"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	ImageURLs    []string `json:"image_urls"`
}

// JobsByCoordsRequest selects jobs near a point.
type JobsByCoordsRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Distance  float64 `json:"distance"`
}

// ApplyRequest creates an application on a job.
type ApplyRequest struct {
	EmployeeID int64   `json:"employee_id" binding:"required"`
	FinalPrice float64 `json:"final_price" binding:"required"`
	SlotTime   string  `json:"slot_time" binding:"required"`
}

// UpdateStatusRequest carries the poster-side transition code.
type UpdateStatusRequest struct {
	Status int `json:"status" binding:"required"`
}

// Wire transition codes. These integers cross the API boundary; nothing
// else in the codebase branches on them.
const (
	wireActionRevoke = 1
	wireActionAccept = 2
)

// ActionFromWire translates a wire transition code into a domain action.
func ActionFromWire(code int) (domain.Action, error) {
	switch code {
	case wireActionRevoke:
		return domain.ActionRevoke, nil
	case wireActionAccept:
		return domain.ActionAccept, nil
	default:
		return 0, fmt.Errorf("unknown status code %d (want %d=revoke or %d=accept)", code, wireActionRevoke, wireActionAccept)
	}
}

// ApplicationDTO is the canonical application response shape.
type ApplicationDTO struct {
	ID          int64   `json:"id"`
	JobID       int64   `json:"job_id"`
	EmployeeID  int64   `json:"employee_id"`
	FinalPrice  float64 `json:"final_price"`
	SlotTime    string  `json:"slot_time"`
	Status      string  `json:"status"`
	Recommended bool    `json:"recommended"`
	CreatedAt   string  `json:"created_at"`
}

// JobDTO is the canonical job response shape. Application carries the
// caller's own application on the detail endpoint, when one exists.
type JobDTO struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	CategoryID   int64           `json:"job_category_id"`
	RateType     int             `json:"rate_type"`
	Price        float64         `json:"price"`
	SlotDate     string          `json:"slot_date"`
	SlotTime     string          `json:"slot_time"`
	AddressLine1 string          `json:"address_line_1"`
	AddressLine2 string          `json:"address_line_2"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	ZipCode      string          `json:"zip_code"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	ImageURLs    []string        `json:"image_urls"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
	Application  *ApplicationDTO `json:"application,omitempty"`
}

// FromJob maps a job row to its response shape.
func FromJob(job *model.Job) JobDTO {
	return JobDTO{
		ID:           job.ID,
		UserID:       job.UserID,
		Title:        job.Title,
		Description:  job.Description,
		CategoryID:   job.CategoryID,
		RateType:     job.RateType,
		Price:        job.Price,
		SlotDate:     job.SlotDate,
		SlotTime:     job.SlotTime,
		AddressLine1: job.AddressLine1,
		AddressLine2: job.AddressLine2,
		City:         job.City,
		State:        job.State,
		ZipCode:      job.ZipCode,
		Latitude:     job.Latitude,
		Longitude:    job.Longitude,
		ImageURLs:    []string(job.ImageURLs),
		Status:       job.Status,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
	}
}

// FromApplication maps an application row to its response shape.
func FromApplication(app *model.Application, recommendedID int64) ApplicationDTO {
	return ApplicationDTO{
		ID:          app.ID,
		JobID:       app.JobID,
		EmployeeID:  app.EmployeeID,
		FinalPrice:  app.FinalPrice,
		SlotTime:    app.SlotTime,
		Status:      app.Status,
		Recommended: app.ID == recommendedID,
		CreatedAt:   app.CreatedAt.Format(time.RFC3339),
	}
}

// FromApplications maps an application list, recomputing the
// recommendation flag against the fresh list.
func FromApplications(apps []model.Application) []ApplicationDTO {
	bids := make([]domain.Bid, len(apps))
	for i, app := range apps {
		bids[i] = domain.Bid{ID: app.ID, Status: domain.Status(app.Status), Price: app.FinalPrice}
	}
	recommendedID := domain.RecommendedID(bids)

	out := make([]ApplicationDTO, len(apps))
	for i := range apps {
		out[i] = FromApplication(&apps[i], recommendedID)
	}
	return out
}
