package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/gigwork/instantjob/internal/api/domain"
	"github.com/gigwork/instantjob/internal/api/dto"
	"github.com/gigwork/instantjob/internal/api/model"
)

// CreateJob handles POST /api/v1/instant_jobs
// Posts a new instant job owned by the calling user.
func (h *InstantJobHandler) CreateJob(c *gin.Context) {
	account := currentAccount(c)
	if account.Role != "user" {
		c.JSON(http.StatusForbidden, gin.H{"errors": []string{"only users can post jobs"}})
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"invalid request body"}})
		return
	}

	if !domain.ValidRateType(req.RateType) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"rate_type must be 0 (per hour), 1 (per day) or 2 (per job)"}})
		return
	}

	now := time.Now()
	job := model.Job{
		UserID:       account.ID,
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		RateType:     req.RateType,
		Price:        req.Price,
		SlotDate:     req.SlotDate,
		SlotTime:     req.SlotTime,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		ImageURLs:    pq.StringArray(req.ImageURLs),
		Status:       domain.JobStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.storage.CreateJob(c.Request.Context(), &job); err != nil {
		h.respondDomainError(c, err)
		return
	}

	h.logger.Info("Job created",
		slog.Int64("job_id", job.ID),
		slog.Int64("user_id", account.ID),
	)

	c.JSON(http.StatusCreated, dto.FromJob(&job))
}

// GetActiveJobs handles GET /api/v1/instant_jobs/get_active_jobs
// Lists the calling user's jobs that are not closed.
func (h *InstantJobHandler) GetActiveJobs(c *gin.Context) {
	account := currentAccount(c)
	if account.Role != "user" {
		c.JSON(http.StatusForbidden, gin.H{"errors": []string{"only users have active jobs"}})
		return
	}

	jobs, err := h.storage.ListActiveJobs(c.Request.Context(), account.ID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	out := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		out[i] = dto.FromJob(&jobs[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetJobsByCoords handles POST /api/v1/instant_jobs/get_jobs_by_cords
// Lists open jobs near the given point, nearest first.
func (h *InstantJobHandler) GetJobsByCoords(c *gin.Context) {
	var req dto.JobsByCoordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"invalid request body"}})
		return
	}

	if req.Distance <= 0 {
		req.Distance = 10
	}

	jobs, err := h.storage.ListJobsNear(c.Request.Context(), req.Latitude, req.Longitude, req.Distance)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	out := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		out[i] = dto.FromJob(&jobs[i])
	}
	c.JSON(http.StatusOK, out)
}

// GetJob handles GET /api/v1/instant_jobs/:job_id
// Returns the job detail. When an employee calls, their own live
// application is embedded.
func (h *InstantJobHandler) GetJob(c *gin.Context) {
	jobID, err := parseID(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"job_id must be a number"}})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	out := dto.FromJob(job)

	account := currentAccount(c)
	if account.Role == "employee" {
		own, err := h.storage.GetOwnApplication(c.Request.Context(), jobID, account.ID)
		if err != nil {
			h.respondDomainError(c, err)
			return
		}
		if own != nil {
			appDTO := dto.FromApplication(own, 0)
			out.Application = &appDTO
		}
	}

	c.JSON(http.StatusOK, out)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
