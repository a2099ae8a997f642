package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
)

// StatusFor maps a service error onto an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, pkgerrors.ErrConversationClosed):
		return http.StatusConflict, "conversation_closed"
	case errors.Is(err, pkgerrors.ErrConversationBusy):
		return http.StatusConflict, "conversation_busy"
	case errors.Is(err, pkgerrors.ErrNothingSelected):
		return http.StatusConflict, "nothing_selected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request_cancelled"
	}
	return http.StatusInternalServerError, "internal"
}

// RespondServiceError writes err using StatusFor. fallbackCode replaces the
// generic "internal" code for unexpected failures.
func RespondServiceError(c *gin.Context, err error, fallbackCode string) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError && fallbackCode != "" {
		code = fallbackCode
	}
	RespondError(c, status, code, err)
}
