package guidanceController

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/middlewares"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/usecase"
)

type Controller struct {
	GuidanceService usecase.IGuidanceUseCase
	Log             *slog.Logger

	auth      gin.HandlerFunc
	rateLimit gin.HandlerFunc
}

func New(guidanceService usecase.IGuidanceUseCase, auth, rateLimit gin.HandlerFunc, log *slog.Logger) *Controller {
	return &Controller{
		GuidanceService: guidanceService,
		Log:             log,
		auth:            auth,
		rateLimit:       rateLimit,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1", c.auth)
	{
		v1.POST("/guidance", c.rateLimit, c.ask)
		v1.GET("/usage-status", c.usageStatus)
		v1.GET("/charts", c.chartHistory)
		v1.GET("/charts/active", c.activeChart)
		v1.GET("/charts/:version", c.chartVersion)
	}
}

// AskRequest тело POST /guidance
type AskRequest struct {
	Question string               `json:"question"`
	Mode     *domain.GuidanceMode `json:"mode,omitempty"`
	Language *domain.Language     `json:"language,omitempty"`
}

func (c *Controller) ask(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.Log.Debug("failed to bind guidance request", "error", err)
		controllers.Abort(ctx, http.StatusBadRequest, controllers.CodeInvalidRequest, "invalid request body")
		return
	}

	resp, err := c.GuidanceService.Ask(ctx.Request.Context(), userID, domain.GuidanceRequest{
		Question: req.Question,
		Mode:     req.Mode,
		Language: req.Language,
	})
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) usageStatus(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	usage, err := c.GuidanceService.UsageStatus(ctx.Request.Context(), userID)
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, usage)
}

func (c *Controller) activeChart(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	view, err := c.GuidanceService.ActiveChart(ctx.Request.Context(), userID)
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

func (c *Controller) chartHistory(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	versions, err := c.GuidanceService.ChartHistory(ctx.Request.Context(), userID)
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"versions": versions})
}

// chartVersion версия карты, на которую ссылается snapshot_version ответа
func (c *Controller) chartVersion(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	version, err := strconv.Atoi(ctx.Param("version"))
	if err != nil || version < 1 {
		controllers.Abort(ctx, http.StatusBadRequest, controllers.CodeInvalidRequest, "version must be a positive integer")
		return
	}

	view, err := c.GuidanceService.ChartVersion(ctx.Request.Context(), userID, version)
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}
