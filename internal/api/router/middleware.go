package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gigwork/instantjob/internal/api/domain"
	"github.com/gigwork/instantjob/internal/api/handler"
	"github.com/gigwork/instantjob/internal/api/model"
)

// LoggerMiddleware logs HTTP requests with slog
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP Request",
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", latency),
			slog.Int("body_size", c.Writer.Size()),
		)

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				logger.Error("Request error",
					slog.String("error", e.Error()),
				)
			}
		}
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AccountResolver resolves bearer tokens to accounts.
type AccountResolver interface {
	GetAccountByToken(ctx context.Context, token string) (*model.Account, error)
}

// AuthMiddleware resolves the bearer token to an account and attaches
// it to the context. A 401 goes out only when the token itself is bad;
// the client reacts to a 401 by clearing its session, so an
// infrastructure failure while resolving the token must be a 500, not
// a logout.
func AuthMiddleware(accounts AccountResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"unauthorized"}})
			return
		}

		account, err := accounts.GetAccountByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidToken) {
				logger.Warn("Token rejected",
					slog.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": []string{"unauthorized"}})
				return
			}

			logger.Error("Failed to resolve token",
				slog.Any("error", err),
				slog.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
			return
		}

		c.Set(handler.AccountContextKey, account)
		c.Next()
	}
}
