package subscriptionController

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/middlewares"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/usecase"
)

type Controller struct {
	SubscriptionService usecase.ISubscriptionUseCase
	Log                 *slog.Logger

	auth gin.HandlerFunc
}

func New(subscriptionService usecase.ISubscriptionUseCase, auth gin.HandlerFunc, log *slog.Logger) *Controller {
	return &Controller{
		SubscriptionService: subscriptionService,
		Log:                 log,
		auth:                auth,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/v1/subscription", c.auth, c.get)
}

func (c *Controller) get(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	sub, err := c.SubscriptionService.Get(ctx.Request.Context(), userID)
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, sub)
}
