package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/dto"
	"github.com/jsamuelsen/biblioteca/internal/app"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	service *app.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service *app.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// ReviewRequest is the body of review create and update calls.
type ReviewRequest struct {
	Book           string     `json:"book"           validate:"required,notempty,max=300"`
	Author         string     `json:"author"         validate:"required,notempty,max=200"`
	Rating         int        `json:"rating"         validate:"required,gte=1,lte=5"`
	Takeaways      string     `json:"takeaways"      validate:"required,notempty"`
	WouldRecommend bool       `json:"wouldRecommend"`
	Tags           []string   `json:"tags"           validate:"omitempty,max=20,dive,max=50"`
	Notes          string     `json:"notes"          validate:"max=5000"`
	Date           *time.Time `json:"date"`
}

func (r ReviewRequest) toDomain() domain.Review {
	review := domain.Review{
		Book:           r.Book,
		Author:         r.Author,
		Rating:         r.Rating,
		Takeaways:      r.Takeaways,
		WouldRecommend: r.WouldRecommend,
		Tags:           r.Tags,
		Notes:          r.Notes,
	}

	if r.Date != nil {
		review.Date = *r.Date
	}

	return review
}

// ReviewListQuery holds the filter and paging parameters of the review list.
type ReviewListQuery struct {
	dto.PaginationRequest

	Search         string `form:"search"`
	Rating         int    `form:"rating"         validate:"gte=0,lte=5"`
	WouldRecommend *bool  `form:"wouldRecommend"`
}

func (q ReviewListQuery) filter() app.ReviewFilter {
	return app.ReviewFilter{
		Search:         q.Search,
		Rating:         q.Rating,
		WouldRecommend: q.WouldRecommend,
	}
}

// List handles GET /api/v1/reviews.
func (h *ReviewHandler) List(c *gin.Context) {
	var query ReviewListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	reviews, err := h.service.Search(c.Request.Context(), query.filter())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	respondPage(c, reviews, query.PaginationRequest, domain.Review.EntityID)
}

// Get handles GET /api/v1/reviews/:id.
func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	review, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// Create handles POST /api/v1/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	var req ReviewRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	review, err := h.service.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// Update handles PUT /api/v1/reviews/:id.
func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	review, err := h.service.Update(c.Request.Context(), id, req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// Delete handles DELETE /api/v1/reviews/:id.
func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stats handles GET /api/v1/reviews/stats.
func (h *ReviewHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Export handles GET /api/v1/reviews/export.
func (h *ReviewHandler) Export(c *gin.Context) {
	var query ReviewListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	sendCSV(c, "reviews.csv", func(w io.Writer) error {
		return h.service.ExportCSV(c.Request.Context(), w, query.filter())
	})
}

// RegisterReviewRoutes registers review routes.
func (h *ReviewHandler) RegisterReviewRoutes(public, protected *gin.RouterGroup) {
	reviews := public.Group("/reviews")
	reviews.GET("", h.List)
	reviews.GET("/stats", h.Stats)
	reviews.GET("/export", h.Export)
	reviews.GET("/:id", h.Get)

	write := protected.Group("/reviews")
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}
