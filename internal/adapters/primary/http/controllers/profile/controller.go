package profileController

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/middlewares"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/usecase"
)

const birthDateLayout = "2006-01-02"

type Controller struct {
	ProfileService usecase.IProfileUseCase
	Log            *slog.Logger

	auth gin.HandlerFunc
}

func New(profileService usecase.IProfileUseCase, auth gin.HandlerFunc, log *slog.Logger) *Controller {
	return &Controller{
		ProfileService: profileService,
		Log:            log,
		auth:           auth,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1", c.auth)
	{
		v1.GET("/profile", c.get)
		v1.PUT("/profile", c.update)
	}
}

// ProfileDTO профиль в API; дата рождения в формате YYYY-MM-DD
type ProfileDTO struct {
	FullName      string               `json:"full_name"`
	BirthDate     string               `json:"birth_date"`
	BirthTime     *string              `json:"birth_time,omitempty"`
	BirthPlace    *string              `json:"birth_place,omitempty"`
	GuidanceMode  domain.GuidanceMode  `json:"guidance_mode,omitempty"`
	Language      domain.Language      `json:"language,omitempty"`
	ResponseStyle domain.ResponseStyle `json:"response_style,omitempty"`
	UpdatedAt     *time.Time           `json:"updated_at,omitempty"`
}

func toDTO(p *domain.UserProfile) ProfileDTO {
	updated := p.UpdatedAt
	return ProfileDTO{
		FullName:      p.FullName,
		BirthDate:     p.BirthDate.Format(birthDateLayout),
		BirthTime:     p.BirthTime,
		BirthPlace:    p.BirthPlace,
		GuidanceMode:  p.GuidanceMode,
		Language:      p.Language,
		ResponseStyle: p.ResponseStyle,
		UpdatedAt:     &updated,
	}
}

func (c *Controller) get(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	profile, err := c.ProfileService.Get(ctx.Request.Context(), userID)
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, toDTO(profile))
}

func (c *Controller) update(ctx *gin.Context) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		controllers.Abort(ctx, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing user")
		return
	}

	var req ProfileDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controllers.Abort(ctx, http.StatusBadRequest, controllers.CodeInvalidRequest, "invalid request body")
		return
	}

	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		controllers.Abort(ctx, http.StatusBadRequest, controllers.CodeInvalidRequest, "birth_date must be YYYY-MM-DD")
		return
	}

	profile, err := c.ProfileService.Update(ctx.Request.Context(), &domain.UserProfile{
		UserID:        userID,
		FullName:      req.FullName,
		BirthDate:     birthDate,
		BirthTime:     req.BirthTime,
		BirthPlace:    req.BirthPlace,
		GuidanceMode:  req.GuidanceMode,
		Language:      req.Language,
		ResponseStyle: req.ResponseStyle,
	})
	if err != nil {
		controllers.WriteError(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, toDTO(profile))
}
