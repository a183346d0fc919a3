package model

import (
	"time"

	"github.com/lib/pq"
)

// Account is an authenticated caller: a "user" posts jobs, an
// "employee" applies to them.
type Account struct {
	ID        int64     `db:"id"`
	Role      string    `db:"role"`
	Name      string    `db:"name"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
}

// Job is an instant job row.
type Job struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	CategoryID   int64          `db:"job_category_id"`
	RateType     int            `db:"rate_type"`
	Price        float64        `db:"price"`
	SlotDate     string         `db:"slot_date"`
	SlotTime     string         `db:"slot_time"`
	AddressLine1 string         `db:"address_line_1"`
	AddressLine2 string         `db:"address_line_2"`
	City         string         `db:"city"`
	State        string         `db:"state"`
	ZipCode      string         `db:"zip_code"`
	Latitude     float64        `db:"latitude"`
	Longitude    float64        `db:"longitude"`
	ImageURLs    pq.StringArray `db:"image_urls"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Application is an employee's bid on a job.
type Application struct {
	ID         int64     `db:"id"`
	JobID      int64     `db:"job_id"`
	EmployeeID int64     `db:"employee_id"`
	FinalPrice float64   `db:"final_price"`
	SlotTime   string    `db:"slot_time"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
