package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gigwork/instantjob/internal/api/domain"
	"github.com/gigwork/instantjob/internal/api/model"
	"github.com/gigwork/instantjob/shared/postgresql"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

const jobColumns = `
	id, user_id, title, description, job_category_id, rate_type, price,
	slot_date, slot_time, address_line_1, address_line_2, city, state,
	zip_code, latitude, longitude, image_urls, status, created_at, updated_at
`

const applicationColumns = `
	id, job_id, employee_id, final_price, slot_time, status, created_at, updated_at
`

// GetAccountByToken resolves a bearer token to its account.
func (s *Storage) GetAccountByToken(ctx context.Context, token string) (*model.Account, error) {
	var account model.Account
	query := `
		SELECT id, role, name, token, created_at
		FROM accounts
		WHERE token = $1
	`

	err := s.db.GetContext(ctx, &account, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

func (s *Storage) CreateJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO instant_jobs (
			user_id, title, description, job_category_id, rate_type, price,
			slot_date, slot_time, address_line_1, address_line_2, city, state,
			zip_code, latitude, longitude, image_urls, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19
		)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		job.UserID,
		job.Title,
		job.Description,
		job.CategoryID,
		job.RateType,
		job.Price,
		job.SlotDate,
		job.SlotTime,
		job.AddressLine1,
		job.AddressLine2,
		job.City,
		job.State,
		job.ZipCode,
		job.Latitude,
		job.Longitude,
		job.ImageURLs,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Storage) GetJobByID(ctx context.Context, jobID int64) (*model.Job, error) {
	var job model.Job
	query := `SELECT ` + jobColumns + ` FROM instant_jobs WHERE id = $1`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListActiveJobs returns the poster's jobs that are not closed.
func (s *Storage) ListActiveJobs(ctx context.Context, userID int64) ([]model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM instant_jobs
		WHERE user_id = $1 AND status <> $2
		ORDER BY created_at DESC, id DESC
	`

	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs, query, userID, domain.JobStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}

	return jobs, nil
}

// ListJobsNear returns open jobs within distanceKm of the given point,
// nearest first. Haversine on a spherical earth is close enough for a
// radius measured in kilometres.
func (s *Storage) ListJobsNear(ctx context.Context, lat, lng, distanceKm float64) ([]model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM instant_jobs
		WHERE status = $1
		  AND 6371 * 2 * asin(sqrt(
				power(sin(radians(latitude - $2) / 2), 2) +
				cos(radians($2)) * cos(radians(latitude)) *
				power(sin(radians(longitude - $3) / 2), 2)
			)) <= $4
		ORDER BY 6371 * 2 * asin(sqrt(
				power(sin(radians(latitude - $2) / 2), 2) +
				cos(radians($2)) * cos(radians(latitude)) *
				power(sin(radians(longitude - $3) / 2), 2)
			)) ASC
	`

	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs, query, domain.JobStatusOpen, lat, lng, distanceKm)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by coordinates: %w", err)
	}

	return jobs, nil
}

func (s *Storage) GetApplicationByID(ctx context.Context, jobID, applicationID int64) (*model.Application, error) {
	var app model.Application
	query := `
		SELECT ` + applicationColumns + `
		FROM instant_job_applications
		WHERE id = $1 AND job_id = $2
	`

	err := s.db.GetContext(ctx, &app, query, applicationID, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return &app, nil
}

// GetOwnApplication returns the employee's live application on a job,
// or nil when none exists. Terminal applications do not count: the
// employee may apply again after cancelling.
func (s *Storage) GetOwnApplication(ctx context.Context, jobID, employeeID int64) (*model.Application, error) {
	var app model.Application
	query := `
		SELECT ` + applicationColumns + `
		FROM instant_job_applications
		WHERE job_id = $1 AND employee_id = $2 AND status IN ($3, $4)
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := s.db.GetContext(ctx, &app, query, jobID, employeeID, string(domain.StatusApplied), string(domain.StatusAccepted))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get own application: %w", err)
	}

	return &app, nil
}

func (s *Storage) ListApplications(ctx context.Context, jobID int64) ([]model.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM instant_job_applications
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var apps []model.Application
	err := s.db.SelectContext(ctx, &apps, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

func (s *Storage) CreateApplication(ctx context.Context, app *model.Application) error {
	query := `
		INSERT INTO instant_job_applications (
			job_id, employee_id, final_price, slot_time, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		app.JobID,
		app.EmployeeID,
		app.FinalPrice,
		app.SlotTime,
		app.Status,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ID)

	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// UpdateApplicationStatus sets a single application's status.
func (s *Storage) UpdateApplicationStatus(ctx context.Context, applicationID int64, status domain.Status) error {
	query := `
		UPDATE instant_job_applications
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, string(status), time.Now(), applicationID)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrApplicationNotFound
	}

	return nil
}

// CancelApplication marks the employee's application cancelled. If the
// application held acceptance the job is reopened in the same
// transaction.
func (s *Storage) CancelApplication(ctx context.Context, jobID, applicationID int64, wasAccepted bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE instant_job_applications
		SET status = $1, updated_at = $2
		WHERE id = $3 AND job_id = $4
	`, string(domain.StatusCancelled), time.Now(), applicationID, jobID)
	if err != nil {
		return fmt.Errorf("failed to cancel application: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrApplicationNotFound
	}

	if wasAccepted {
		_, err = tx.ExecContext(ctx, `
			UPDATE instant_jobs SET status = $1, updated_at = $2 WHERE id = $3
		`, domain.JobStatusOpen, time.Now(), jobID)
		if err != nil {
			return fmt.Errorf("failed to update job status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AcceptApplication marks one application accepted and moves the job to
// in-progress in a single transaction. The guard on the UPDATE keeps two
// racing accepts from both succeeding.
func (s *Storage) AcceptApplication(ctx context.Context, jobID, applicationID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE instant_job_applications
		SET status = $1, updated_at = $2
		WHERE id = $3 AND job_id = $4 AND status = $5
		  AND NOT EXISTS (
			SELECT 1 FROM instant_job_applications
			WHERE job_id = $4 AND status = $1 AND id <> $3
		  )
	`, string(domain.StatusAccepted), time.Now(), applicationID, jobID, string(domain.StatusApplied))
	if err != nil {
		return fmt.Errorf("failed to accept application: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrAlreadyAccepted
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE instant_jobs SET status = $1, updated_at = $2 WHERE id = $3
	`, domain.JobStatusInProgress, time.Now(), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RevokeAcceptance returns an accepted application to applied and
// reopens the job.
func (s *Storage) RevokeAcceptance(ctx context.Context, jobID, applicationID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE instant_job_applications
		SET status = $1, updated_at = $2
		WHERE id = $3 AND job_id = $4 AND status = $5
	`, string(domain.StatusApplied), time.Now(), applicationID, jobID, string(domain.StatusAccepted))
	if err != nil {
		return fmt.Errorf("failed to revoke acceptance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE instant_jobs SET status = $1, updated_at = $2 WHERE id = $3
	`, domain.JobStatusOpen, time.Now(), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RevokeAllAcceptances withdraws every acceptance on the job and reopens
// it. Returns the ids of the employees whose applications changed so the
// handler can notify them.
func (s *Storage) RevokeAllAcceptances(ctx context.Context, jobID int64) ([]int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var employeeIDs []int64
	rows, err := tx.QueryContext(ctx, `
		UPDATE instant_job_applications
		SET status = $1, updated_at = $2
		WHERE job_id = $3 AND status = $4
		RETURNING employee_id
	`, string(domain.StatusApplied), time.Now(), jobID, string(domain.StatusAccepted))
	if err != nil {
		return nil, fmt.Errorf("failed to revoke acceptances: %w", err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		employeeIDs = append(employeeIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read revoked rows: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE instant_jobs SET status = $1, updated_at = $2 WHERE id = $3
	`, domain.JobStatusOpen, time.Now(), jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return employeeIDs, nil
}
