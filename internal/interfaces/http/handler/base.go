package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bazargo/backend/internal/domain/shared"
	"github.com/bazargo/backend/internal/interfaces/http/dto"
	"github.com/bazargo/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides the shared response and error-translation helpers.
// Every concrete handler embeds it.
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a new BaseHandler
func NewBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// Success writes a 200 response with the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created writes a 201 response with the standard envelope
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent writes a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest writes a 400 with the given code and message
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// HandleError translates a service error into an HTTP response. Domain errors
// carry their own code; provider errors surface as 502 except when the
// provider rejected the request for a reason the caller can fix (insufficient
// balance). Everything else is a 500 and gets logged with the request id.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	var pe *shared.ProviderError
	if errors.As(err, &pe) {
		code := dto.ErrCodeProviderUnavailable
		status := http.StatusBadGateway
		if pe.Reason == shared.ReasonInsufficientBalance {
			code = dto.ErrCodeInsufficientBalance
			status = http.StatusUnprocessableEntity
		}
		h.logger.Warn("provider error",
			zap.String("request_id", requestID),
			zap.String("provider", pe.Provider),
			zap.String("reason", string(pe.Reason)),
		)
		c.JSON(status, dto.NewErrorResponseWithRequestID(code, pe.Message, requestID))
		return
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		status := dto.GetHTTPStatusForDomainCode(de.Code)
		c.JSON(status, dto.NewErrorResponseWithRequestID(dto.NormalizeErrorCode(de.Code), de.Message, requestID))
		return
	}

	h.logger.Error("unhandled error",
		zap.String("request_id", requestID),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Internal server error", requestID))
}
