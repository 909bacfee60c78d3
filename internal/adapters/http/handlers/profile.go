package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/dto"
	"github.com/jsamuelsen/biblioteca/internal/app"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// ProfileHandler handles the reader profile and the dashboard.
type ProfileHandler struct {
	profiles  *app.ProfileService
	dashboard *app.DashboardService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles *app.ProfileService, dashboard *app.DashboardService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, dashboard: dashboard}
}

// ProfileRequest is the body of a profile update.
type ProfileRequest struct {
	Name        string            `json:"name"        validate:"required,notempty,max=200"`
	Location    string            `json:"location"    validate:"max=200"`
	Bio         string            `json:"bio"         validate:"max=2000"`
	AvatarURL   string            `json:"avatarUrl"   validate:"omitempty,url"`
	Joined      *time.Time        `json:"joined"`
	AnnualGoal  int               `json:"annualGoal"  validate:"gte=0,lte=1000"`
	SocialLinks map[string]string `json:"socialLinks" validate:"omitempty,dive,keys,notempty,endkeys,url"`
}

func (r ProfileRequest) toDomain() domain.Profile {
	p := domain.Profile{
		Name:        r.Name,
		Location:    r.Location,
		Bio:         r.Bio,
		AvatarURL:   r.AvatarURL,
		AnnualGoal:  r.AnnualGoal,
		SocialLinks: r.SocialLinks,
	}

	if r.Joined != nil {
		p.Joined = *r.Joined
	}

	return p
}

// Get handles GET /api/v1/profile. The response carries the derived stats.
func (h *ProfileHandler) Get(c *gin.Context) {
	view, err := h.profiles.View(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Update handles PUT /api/v1/profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req ProfileRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *ProfileHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.dashboard.Dashboard(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// RegisterProfileRoutes registers profile and dashboard routes.
func (h *ProfileHandler) RegisterProfileRoutes(public, protected *gin.RouterGroup) {
	public.GET("/profile", h.Get)
	public.GET("/dashboard", h.Dashboard)
	protected.PUT("/profile", h.Update)
}
