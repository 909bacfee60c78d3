package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/dto"
	"github.com/jsamuelsen/biblioteca/internal/app"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// WishlistHandler handles wishlist endpoints.
type WishlistHandler struct {
	service *app.WishlistService
}

// NewWishlistHandler creates a new wishlist handler.
func NewWishlistHandler(service *app.WishlistService) *WishlistHandler {
	return &WishlistHandler{service: service}
}

// WishlistRequest is the body of wishlist create and update calls.
type WishlistRequest struct {
	Title               string                `json:"title"               validate:"required,notempty,max=300"`
	Authors             []string              `json:"authors"             validate:"omitempty,max=10,dive,max=200"`
	Genres              []string              `json:"genres"              validate:"omitempty,max=10,dive,max=100"`
	Price               float64               `json:"price"               validate:"gte=0"`
	TargetPrice         float64               `json:"targetPrice"         validate:"gte=0"`
	Priority            domain.Priority       `json:"priority"            validate:"omitempty,oneof=High Medium Low"`
	Status              domain.WishlistStatus `json:"status"              validate:"omitempty,oneof='Not Purchased' Purchased 'On Hold'"`
	IsGiftIdea          bool                  `json:"isGiftIdea"`
	PriceAlertThreshold float64               `json:"priceAlertThreshold" validate:"gte=0"`
	Notes               string                `json:"notes"               validate:"max=5000"`
}

func (r WishlistRequest) toDomain() domain.WishlistItem {
	return domain.WishlistItem{
		Title:               r.Title,
		Authors:             r.Authors,
		Genres:              r.Genres,
		Price:               r.Price,
		TargetPrice:         r.TargetPrice,
		Priority:            r.Priority,
		Status:              r.Status,
		IsGiftIdea:          r.IsGiftIdea,
		PriceAlertThreshold: r.PriceAlertThreshold,
		Notes:               r.Notes,
	}
}

// WishlistListQuery holds the filter and paging parameters of the wishlist.
type WishlistListQuery struct {
	dto.PaginationRequest

	Search    string   `form:"search"`
	Priority  []string `form:"priority"`
	MinPrice  *float64 `form:"minPrice"  validate:"omitempty,gte=0"`
	MaxPrice  *float64 `form:"maxPrice"  validate:"omitempty,gte=0"`
	Genres    []string `form:"genres"`
	Authors   []string `form:"authors"`
	GiftOnly  bool     `form:"giftOnly"`
	Status    []string `form:"status"`
	SortBy    string   `form:"sortBy"`
	SortOrder string   `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

func (q WishlistListQuery) filter() app.WishlistFilter {
	f := app.WishlistFilter{
		Search:    q.Search,
		MinPrice:  q.MinPrice,
		MaxPrice:  q.MaxPrice,
		Genres:    splitList(q.Genres),
		Authors:   splitList(q.Authors),
		GiftOnly:  q.GiftOnly,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}

	for _, p := range splitList(q.Priority) {
		f.Priorities = append(f.Priorities, domain.Priority(p))
	}

	for _, s := range splitList(q.Status) {
		f.Statuses = append(f.Statuses, domain.WishlistStatus(s))
	}

	return f
}

// PriorityRequest changes an item's priority.
type PriorityRequest struct {
	Priority domain.Priority `json:"priority" validate:"required,oneof=High Medium Low"`
}

// PriceAlertRequest sets an item's price alert threshold. Zero clears it.
type PriceAlertRequest struct {
	Threshold float64 `json:"threshold" validate:"gte=0"`
}

// MoveRequest chooses the status the moved book starts with in the library.
type MoveRequest struct {
	Status domain.ReadingStatus `json:"status" validate:"omitempty,oneof=want_to_read currently_reading read did_not_finish on_hold"`
}

// List handles GET /api/v1/wishlist.
func (h *WishlistHandler) List(c *gin.Context) {
	var query WishlistListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	items, err := h.service.Search(c.Request.Context(), query.filter())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	respondPage(c, items, query.PaginationRequest, domain.WishlistItem.EntityID)
}

// Get handles GET /api/v1/wishlist/:id.
func (h *WishlistHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Create handles POST /api/v1/wishlist.
func (h *WishlistHandler) Create(c *gin.Context) {
	var req WishlistRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	item, err := h.service.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// Update handles PUT /api/v1/wishlist/:id.
func (h *WishlistHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req WishlistRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	item, err := h.service.Update(c.Request.Context(), id, req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/v1/wishlist/:id.
func (h *WishlistHandler) Delete(c *gin.Context) {
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

// SetPriority handles PATCH /api/v1/wishlist/:id/priority.
func (h *WishlistHandler) SetPriority(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req PriorityRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	item, err := h.service.SetPriority(c.Request.Context(), id, req.Priority)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// ToggleGift handles POST /api/v1/wishlist/:id/gift.
func (h *WishlistHandler) ToggleGift(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	item, err := h.service.ToggleGift(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// SetPriceAlert handles PUT /api/v1/wishlist/:id/alert.
func (h *WishlistHandler) SetPriceAlert(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req PriceAlertRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	item, err := h.service.SetPriceAlert(c.Request.Context(), id, req.Threshold)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// PriceAlerts handles GET /api/v1/wishlist/alerts.
func (h *WishlistHandler) PriceAlerts(c *gin.Context) {
	items, err := h.service.PriceAlerts(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Stats handles GET /api/v1/wishlist/stats.
func (h *WishlistHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// MoveToLibrary handles POST /api/v1/wishlist/:id/move. The body is optional.
func (h *WishlistHandler) MoveToLibrary(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req MoveRequest
	if c.Request.ContentLength != 0 {
		if err := dto.BindAndValidate(c, &req); err != nil {
			dto.HandleBindError(c, err)
			return
		}
	}

	log, err := h.service.MoveToLibrary(c.Request.Context(), id, req.Status)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, log)
}

// Export handles GET /api/v1/wishlist/export.
func (h *WishlistHandler) Export(c *gin.Context) {
	var query WishlistListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	sendCSV(c, "wishlist.csv", func(w io.Writer) error {
		return h.service.ExportCSV(c.Request.Context(), w, query.filter())
	})
}

// RegisterWishlistRoutes registers wishlist routes.
func (h *WishlistHandler) RegisterWishlistRoutes(public, protected *gin.RouterGroup) {
	wishlist := public.Group("/wishlist")
	wishlist.GET("", h.List)
	wishlist.GET("/stats", h.Stats)
	wishlist.GET("/alerts", h.PriceAlerts)
	wishlist.GET("/export", h.Export)
	wishlist.GET("/:id", h.Get)

	write := protected.Group("/wishlist")
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
	write.PATCH("/:id/priority", h.SetPriority)
	write.POST("/:id/gift", h.ToggleGift)
	write.PUT("/:id/alert", h.SetPriceAlert)
	write.POST("/:id/move", h.MoveToLibrary)
}
