package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/apperror"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindNotFound:     http.StatusNotFound,
	apperror.KindForbidden:    http.StatusForbidden,
	apperror.KindUnauthorized: http.StatusUnauthorized,
	apperror.KindConflict:     http.StatusConflict,
	apperror.KindBadRequest:   http.StatusBadRequest,
	apperror.KindValidation:   http.StatusUnprocessableEntity,
}

// ErrorDetail is the body of every error response
type ErrorDetail struct {
	Kind    apperror.Kind     `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func errorBody(kind apperror.Kind, message string, fields map[string]string) gin.H {
	return gin.H{"error": ErrorDetail{Kind: kind, Message: message, Fields: fields}}
}

// respondError writes err as a JSON error response. Internal errors are
// logged and their details withheld from the client.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || statusByKind[appErr.Kind] == 0 {
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, errorBody(apperror.KindInternal, "internal server error", nil))
		return
	}

	c.JSON(statusByKind[appErr.Kind], errorBody(appErr.Kind, appErr.Message, appErr.Fields))
}

// respondBadBody reports a request body that could not be decoded
func respondBadBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody(apperror.KindBadRequest, "invalid request body: "+err.Error(), nil))
}
