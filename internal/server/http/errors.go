package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filerelay/internal/common"
)

// errorBody is the JSON shape every failed request carries.
type errorBody struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

var errorStatus = []struct {
	sentinel error
	status   int
	code     string
}{
	{common.ErrIllegalArgument, http.StatusBadRequest, "ILLEGAL_ARGUMENT"},
	{common.ErrUnsupportedOperation, http.StatusBadRequest, "UNSUPPORTED_OPERATION"},
	{common.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{common.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
	{common.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{common.ErrFileNotAvailable, http.StatusNotFound, "FILE_NOT_AVAILABLE"},
	{common.ErrPreconditionFailed, http.StatusConflict, "PRECONDITION_FAILED"},
	{common.ErrNotTransferred, http.StatusConflict, "NOT_TRANSFERRED"},
	{common.ErrFileTooBig, http.StatusRequestEntityTooLarge, "FILE_TOO_BIG"},
	{common.ErrUpstreamFailure, http.StatusBadGateway, "UPSTREAM_FAILURE"},
	{common.ErrSanityCheck, http.StatusInternalServerError, "SANITY_CHECK"},
}

// abortWithError converts a service error into its HTTP response.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.sentinel) {
			c.AbortWithStatusJSON(m.status, errorBody{ErrorCode: m.code, Message: err.Error()})
			return
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, errorBody{ErrorCode: "UPSTREAM_TIMEOUT", Message: err.Error()})
		return
	}
	h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{ErrorCode: "INTERNAL_ERROR", Message: "internal error"})
}
