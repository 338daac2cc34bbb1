package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/usecase"
)

// ReservationReleaser ручной запуск возврата просроченных резерваций
type ReservationReleaser interface {
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}

// Controller служебные операции: ручное применение событий биллинга и уборка резерваций
type Controller struct {
	SubscriptionService usecase.ISubscriptionUseCase
	Reservations        ReservationReleaser
	Log                 *slog.Logger

	guard gin.HandlerFunc
}

func New(
	subscriptionService usecase.ISubscriptionUseCase,
	reservations ReservationReleaser,
	guard gin.HandlerFunc,
	log *slog.Logger,
) *Controller {
	return &Controller{
		SubscriptionService: subscriptionService,
		Reservations:        reservations,
		Log:                 log,
		guard:               guard,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/admin", c.guard)
	{
		admin.POST("/subscriptions/events", c.applySubscriptionEvent)
		admin.POST("/reservations/release-expired", c.releaseExpired)
	}
}

// applySubscriptionEvent то же, что событие из Kafka; нужен, когда биллинг переотправляет вручную
func (c *Controller) applySubscriptionEvent(ctx *gin.Context) {
	var event domain.SubscriptionEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		c.Log.Warn("failed to bind subscription event", "error", err)
		controllers.Abort(ctx, http.StatusBadRequest, controllers.CodeInvalidRequest, "invalid request body")
		return
	}

	if err := c.SubscriptionService.ApplyEvent(ctx.Request.Context(), &event); err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	c.Log.Info("subscription event applied manually",
		"event_id", event.EventID,
		"user_id", event.UserID,
	)
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *Controller) releaseExpired(ctx *gin.Context) {
	released, err := c.Reservations.ReleaseExpired(ctx.Request.Context(), time.Now())
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"released": released})
}
