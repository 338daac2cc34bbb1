// Package controllers общие ответы HTTP-контроллеров
package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

const (
	CodeQuotaExceeded         = "quota_exceeded"
	CodeChartUnavailable      = "chart_unavailable"
	CodeGenerationUnavailable = "generation_unavailable"
	CodeInternalInconsistency = "internal_inconsistency"
	CodeInvalidRequest        = "invalid_request"
	CodeProfileRequired       = "profile_required"
	CodeNotFound              = "not_found"
	CodeUnauthorized          = "unauthorized"
	CodeRateLimited           = "rate_limited"
	CodeInternal              = "internal_error"
	CodeRequestCancelled      = "request_cancelled"
	statusClientClosedRequest = 499
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	ErrorCode string              `json:"error_code"`
	Message   string              `json:"message"`
	Usage     *domain.UsageStatus `json:"usage,omitempty"`
}

// WriteError переводит ошибку сценария в HTTP-ответ
func WriteError(ctx *gin.Context, log *slog.Logger, err error) {
	status, body := MapError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"path", ctx.FullPath(),
			"status", status,
			"error", err,
		)
	}
	ctx.AbortWithStatusJSON(status, body)
}

// MapError статус и тело ответа для ошибки
func MapError(err error) (int, ErrorResponse) {
	if denied, ok := domain.AsDenied(err); ok {
		usage := denied.Usage
		message := domain.LimitMessage(denied.Window, limitOf(usage, denied.Window))
		if usage.LimitMessage != nil {
			message = *usage.LimitMessage
		}
		return http.StatusTooManyRequests, ErrorResponse{
			ErrorCode: CodeQuotaExceeded,
			Message:   message,
			Usage:     &usage,
		}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, ErrorResponse{ErrorCode: CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, domain.ErrProfileRequired):
		return http.StatusConflict, ErrorResponse{ErrorCode: CodeProfileRequired, Message: "complete your profile to receive guidance"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{ErrorCode: CodeNotFound, Message: "not found"}
	case errors.Is(err, domain.ErrChartUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{ErrorCode: CodeChartUnavailable, Message: "your chart is temporarily unavailable, please try again"}
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{ErrorCode: CodeGenerationUnavailable, Message: "guidance is temporarily unavailable, please try again"}
	case errors.Is(err, domain.ErrInternalInconsistency):
		return http.StatusInternalServerError, ErrorResponse{ErrorCode: CodeInternalInconsistency, Message: "something went wrong, your question was not charged"}
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, ErrorResponse{ErrorCode: CodeRequestCancelled, Message: "request cancelled"}
	}
	return http.StatusInternalServerError, ErrorResponse{ErrorCode: CodeInternal, Message: "internal server error"}
}

func limitOf(usage domain.UsageStatus, w domain.Window) int {
	switch w {
	case domain.WindowDaily:
		return usage.DailyLimit
	case domain.WindowMonthly:
		return usage.MonthlyLimit
	case domain.WindowLifetime:
		if usage.LifetimeLimit != nil {
			return *usage.LifetimeLimit
		}
	}
	return 0
}

// Abort короткий ответ с ошибкой без обращения к сценарию
func Abort(ctx *gin.Context, status int, code, message string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{ErrorCode: code, Message: message})
}
