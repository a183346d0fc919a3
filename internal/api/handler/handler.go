package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/instantjob/internal/api/domain"
	"github.com/gigwork/instantjob/internal/api/model"
	"github.com/gigwork/instantjob/internal/api/notifier"
	"github.com/gigwork/instantjob/internal/api/storage"
)

// AccountContextKey is where the auth middleware stores the resolved
// account on the gin context.
const AccountContextKey = "account"

// DatabaseChecker reports whether the backing database is reachable.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// BrokerChecker reports whether the realtime broker connection is up.
type BrokerChecker interface {
	IsConnected() bool
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Storage  *storage.Storage
	Notifier *notifier.Notifier
	DB       DatabaseChecker
	Broker   BrokerChecker
}

// InstantJobHandler handles instant-job and application HTTP requests
type InstantJobHandler struct {
	logger   *slog.Logger
	storage  *storage.Storage
	notifier *notifier.Notifier
}

// NewInstantJobHandler creates a new InstantJobHandler instance
func NewInstantJobHandler(deps *Dependencies) *InstantJobHandler {
	return &InstantJobHandler{
		logger:   deps.Logger,
		storage:  deps.Storage,
		notifier: deps.Notifier,
	}
}

// currentAccount returns the account the auth middleware attached.
func currentAccount(c *gin.Context) *model.Account {
	value, ok := c.Get(AccountContextKey)
	if !ok {
		return nil
	}
	account, _ := value.(*model.Account)
	return account
}

// respondDomainError maps a domain error to its HTTP shape. Business
// rule violations come back as an errors list the client surfaces
// verbatim.
func (h *InstantJobHandler) respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrApplicationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"errors": []string{err.Error()}})
	case errors.Is(err, domain.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"errors": []string{err.Error()}})
	case errors.Is(err, domain.ErrAlreadyApplied),
		errors.Is(err, domain.ErrAlreadyAccepted),
		errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{err.Error()}})
	default:
		h.logger.Error("Request failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}
