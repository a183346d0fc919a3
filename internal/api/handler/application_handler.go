package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/instantjob/internal/api/domain"
	"github.com/gigwork/instantjob/internal/api/dto"
	"github.com/gigwork/instantjob/internal/api/model"
	"github.com/gigwork/instantjob/internal/api/notifier"
)

// competingApplicants returns the employee ids of still-applied
// applications other than the accepted one.
func competingApplicants(apps []model.Application, acceptedID int64) []int64 {
	var ids []int64
	for _, app := range apps {
		if app.ID == acceptedID {
			continue
		}
		if domain.Status(app.Status) == domain.StatusApplied {
			ids = append(ids, app.EmployeeID)
		}
	}
	return ids
}

// ListApplications handles GET /api/v1/instant_jobs/:job_id/instant_job_applications
// Returns the poster's view of all inbound applications with the
// recommendation flag recomputed.
func (h *InstantJobHandler) ListApplications(c *gin.Context) {
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

	account := currentAccount(c)
	if account.Role != "user" || job.UserID != account.ID {
		h.respondDomainError(c, domain.ErrNotOwner)
		return
	}

	apps, err := h.storage.ListApplications(c.Request.Context(), jobID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromApplications(apps))
}

// Apply handles POST /api/v1/instant_jobs/:job_id/instant_job_applications
// Creates the calling employee's application on an open job. One live
// application per employee per job.
func (h *InstantJobHandler) Apply(c *gin.Context) {
	jobID, err := parseID(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"job_id must be a number"}})
		return
	}

	account := currentAccount(c)
	if account.Role != "employee" {
		c.JSON(http.StatusForbidden, gin.H{"errors": []string{"only employees can apply"}})
		return
	}

	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"invalid request body"}})
		return
	}

	if req.EmployeeID != account.ID {
		h.respondDomainError(c, domain.ErrNotOwner)
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	if job.Status != domain.JobStatusOpen {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"job is not open for applications"}})
		return
	}

	existing, err := h.storage.GetOwnApplication(c.Request.Context(), jobID, account.ID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}
	if existing != nil {
		h.respondDomainError(c, domain.ErrAlreadyApplied)
		return
	}

	now := time.Now()
	app := model.Application{
		JobID:      jobID,
		EmployeeID: account.ID,
		FinalPrice: req.FinalPrice,
		SlotTime:   req.SlotTime,
		Status:     string(domain.StatusApplied),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.storage.CreateApplication(c.Request.Context(), &app); err != nil {
		h.respondDomainError(c, err)
		return
	}

	h.logger.Info("Application created",
		slog.Int64("job_id", jobID),
		slog.Int64("application_id", app.ID),
		slog.Int64("employee_id", account.ID),
	)

	h.notifier.NotifyUser(c.Request.Context(), job.UserID, notifier.Notification{
		Title: "New application received",
		JobID: jobID,
	})

	c.JSON(http.StatusCreated, dto.FromApplication(&app, 0))
}

// UpdateStatus handles PUT /api/v1/instant_jobs/:job_id/instant_job_applications/:application_id/update_status
// Poster-side transition: body {status} with 1=revoke, 2=accept. Returns
// the authoritative post-transition application list.
func (h *InstantJobHandler) UpdateStatus(c *gin.Context) {
	jobID, err := parseID(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"job_id must be a number"}})
		return
	}
	applicationID, err := parseID(c.Param("application_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"application_id must be a number"}})
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"invalid request body"}})
		return
	}

	action, err := dto.ActionFromWire(req.Status)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{err.Error()}})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	account := currentAccount(c)
	if account.Role != "user" || job.UserID != account.ID {
		h.respondDomainError(c, domain.ErrNotOwner)
		return
	}

	target, err := h.storage.GetApplicationByID(c.Request.Context(), jobID, applicationID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	switch action {
	case domain.ActionAccept:
		apps, err := h.storage.ListApplications(c.Request.Context(), jobID)
		if err != nil {
			h.respondDomainError(c, err)
			return
		}
		siblings := make([]domain.Bid, len(apps))
		for i, a := range apps {
			siblings[i] = domain.Bid{ID: a.ID, Status: domain.Status(a.Status), Price: a.FinalPrice}
		}

		targetBid := domain.Bid{ID: target.ID, Status: domain.Status(target.Status), Price: target.FinalPrice}
		if err := domain.CanAccept(targetBid, siblings); err != nil {
			h.respondDomainError(c, err)
			return
		}

		if err := h.storage.AcceptApplication(c.Request.Context(), jobID, applicationID); err != nil {
			h.respondDomainError(c, err)
			return
		}

		h.notifier.NotifyEmployee(c.Request.Context(), target.EmployeeID, notifier.Notification{
			Title:  "Your application was accepted",
			JobID:  jobID,
			Status: string(domain.StatusAccepted),
		})

		// The other live applicants learn the job was filled.
		for _, employeeID := range competingApplicants(apps, target.ID) {
			h.notifier.NotifyEmployee(c.Request.Context(), employeeID, notifier.Notification{
				Title: "The job was filled by another applicant",
				JobID: jobID,
			})
		}

	case domain.ActionRevoke:
		targetBid := domain.Bid{ID: target.ID, Status: domain.Status(target.Status), Price: target.FinalPrice}
		if err := domain.CanRevoke(targetBid); err != nil {
			h.respondDomainError(c, err)
			return
		}

		if err := h.storage.RevokeAcceptance(c.Request.Context(), jobID, applicationID); err != nil {
			h.respondDomainError(c, err)
			return
		}

		h.notifier.NotifyEmployee(c.Request.Context(), target.EmployeeID, notifier.Notification{
			Title:  "Acceptance was withdrawn",
			JobID:  jobID,
			Status: string(domain.StatusApplied),
		})
	}

	h.logger.Info("Application status updated",
		slog.Int64("job_id", jobID),
		slog.Int64("application_id", applicationID),
		slog.Int("wire_status", req.Status),
	)

	apps, err := h.storage.ListApplications(c.Request.Context(), jobID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromApplications(apps))
}

// CancelApplication handles DELETE /api/v1/instant_jobs/:job_id/instant_job_applications/:application_id/cancel_application
// The calling employee withdraws their own application.
func (h *InstantJobHandler) CancelApplication(c *gin.Context) {
	jobID, err := parseID(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"job_id must be a number"}})
		return
	}
	applicationID, err := parseID(c.Param("application_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"application_id must be a number"}})
		return
	}

	target, err := h.storage.GetApplicationByID(c.Request.Context(), jobID, applicationID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	account := currentAccount(c)
	if account.Role != "employee" || target.EmployeeID != account.ID {
		h.respondDomainError(c, domain.ErrNotOwner)
		return
	}

	if err := domain.CanCancel(domain.Bid{ID: target.ID, Status: domain.Status(target.Status)}); err != nil {
		h.respondDomainError(c, err)
		return
	}

	wasAccepted := domain.Status(target.Status) == domain.StatusAccepted
	if err := h.storage.CancelApplication(c.Request.Context(), jobID, applicationID, wasAccepted); err != nil {
		h.respondDomainError(c, err)
		return
	}

	h.logger.Info("Application cancelled",
		slog.Int64("job_id", jobID),
		slog.Int64("application_id", applicationID),
	)

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err == nil {
		h.notifier.NotifyUser(c.Request.Context(), job.UserID, notifier.Notification{
			Title: "An application was withdrawn",
			JobID: jobID,
		})
	}

	target.Status = string(domain.StatusCancelled)
	c.JSON(http.StatusOK, gin.H{"application": dto.FromApplication(target, 0)})
}

// RevokeAll handles POST /api/v1/instant_jobs/:job_id/instant_job_applications/revoke_application
// The poster withdraws acceptance entirely: every accepted application
// returns to applied and the job reopens. Returns the authoritative
// list.
func (h *InstantJobHandler) RevokeAll(c *gin.Context) {
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

	account := currentAccount(c)
	if account.Role != "user" || job.UserID != account.ID {
		h.respondDomainError(c, domain.ErrNotOwner)
		return
	}

	employeeIDs, err := h.storage.RevokeAllAcceptances(c.Request.Context(), jobID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	for _, employeeID := range employeeIDs {
		h.notifier.NotifyEmployee(c.Request.Context(), employeeID, notifier.Notification{
			Title:  "Acceptance was withdrawn",
			JobID:  jobID,
			Status: string(domain.StatusApplied),
		})
	}

	h.logger.Info("All acceptances revoked",
		slog.Int64("job_id", jobID),
		slog.Int("employees_notified", len(employeeIDs)),
	)

	apps, err := h.storage.ListApplications(c.Request.Context(), jobID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromApplications(apps))
}
