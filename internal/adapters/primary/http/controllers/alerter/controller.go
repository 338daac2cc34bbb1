package alerter

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
)

// Controller пересылает алерты внешних систем (деплой, мониторинг) в канал дежурных
type Controller struct {
	AlerterService service.IAlerterService
	Log            *slog.Logger

	guard gin.HandlerFunc
}

func New(alerterService service.IAlerterService, guard gin.HandlerFunc, log *slog.Logger) *Controller {
	return &Controller{
		AlerterService: alerterService,
		Log:            log,
		guard:          guard,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhooks/alert", c.guard, c.handleGenericAlert)
}

// GenericAlertPayload алерт в свободной форме
type GenericAlertPayload struct {
	Message string `json:"message"`
	Source  string `json:"source"`
}

func (c *Controller) handleGenericAlert(ctx *gin.Context) {
	var payload GenericAlertPayload

	if err := ctx.ShouldBindJSON(&payload); err != nil {
		c.Log.Warn("failed to bind generic alert request",
			"error", err,
		)
		controllers.Abort(ctx, http.StatusBadRequest, controllers.CodeInvalidRequest, "invalid request body")
		return
	}

	if payload.Message == "" {
		controllers.Abort(ctx, http.StatusBadRequest, controllers.CodeInvalidRequest, "message is required")
		return
	}

	if c.AlerterService == nil {
		c.Log.Info("alerter service not configured, skipping alert",
			"source", payload.Source,
		)
		ctx.JSON(http.StatusOK, gin.H{"ok": true, "message": "alerter not configured"})
		return
	}

	message := payload.Message
	if payload.Source != "" {
		message = fmt.Sprintf("source: %s\n\n%s", payload.Source, payload.Message)
	}

	if err := c.AlerterService.SendAlert(ctx.Request.Context(), message); err != nil {
		c.Log.Warn("failed to send alert",
			"error", err,
			"source", payload.Source,
		)
		// 200, чтобы отправитель не повторял запрос
		ctx.JSON(http.StatusOK, gin.H{"ok": false, "error": "failed to send alert"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
