package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/railseat/internal/common/ratelimiter"
	"github.com/railseat/internal/railway/booking"
	"github.com/railseat/internal/railway/ledger"
	"github.com/railseat/internal/railway/lock"
	"github.com/railseat/internal/railway/route"
	"github.com/railseat/internal/railway/service"
	"github.com/railseat/internal/railway/store"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrTrainNotFound),
		errors.Is(err, store.ErrPassengerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidStations),
		errors.Is(err, route.ErrStationNotOnRoute),
		errors.Is(err, route.ErrInvalidRoute),
		errors.Is(err, service.ErrInvalidTrain),
		errors.Is(err, service.ErrInvalidPassenger),
		errors.Is(err, booking.ErrNoPassengers):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrInsufficientSeats):
		return http.StatusConflict
	case errors.Is(err, lock.ErrLockTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, ratelimiter.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
