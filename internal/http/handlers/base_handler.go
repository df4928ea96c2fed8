// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fixnow/internal/modules/booking"
	"fixnow/internal/modules/matching"
	"fixnow/internal/modules/payment"
	"fixnow/internal/modules/technician"
	"fixnow/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// callerID returns the authenticated user set by the auth middleware.
func callerID(c *gin.Context) types.ID {
	return types.ID(c.GetString("user_id"))
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation), errors.Is(err, booking.ErrNoLocation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrNotFound), errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrIllegalTransition):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, "payment provider unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeMatchingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, matching.ErrUnknownCategory):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeTechnicianError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, technician.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
