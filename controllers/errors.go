package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

var ErrNoPermission = &CustomError{"You do not have permission"}
var ErrInvalidID = &CustomError{"Invalid id"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

// statusFor maps service and store errors to HTTP status codes.
func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidInitialStatus),
		errors.Is(err, services.ErrNotTerminal):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, services.ErrMenuItemNotFound),
		errors.Is(err, services.ErrCartItemNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrOrderArchived),
		errors.Is(err, services.ErrMenuItemUnavailable),
		errors.Is(err, store.ErrStale),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, services.ErrSessionCodeExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondServiceError writes err with its mapped status. Validation errors
// carry their per-field messages as data.
func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		utils.ErrorLogger.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.RespondErrorData(c, code, err, gin.H{"fields": verr.Fields})
		return
	}
	utils.RespondError(c, code, err)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidID)
		return 0, false
	}
	return uint(id), true
}
