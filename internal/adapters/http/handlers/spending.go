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

// SpendingHandler handles purchase and budget endpoints.
type SpendingHandler struct {
	service *app.SpendingService
}

// NewSpendingHandler creates a new spending handler.
func NewSpendingHandler(service *app.SpendingService) *SpendingHandler {
	return &SpendingHandler{service: service}
}

// SpendingRequest is the body of spending create and update calls.
type SpendingRequest struct {
	Title       string     `json:"title"       validate:"required,notempty,max=300"`
	Category    string     `json:"category"    validate:"required,notempty,max=100"`
	Vendor      string     `json:"vendor"      validate:"max=100"`
	Amount      float64    `json:"amount"      validate:"gte=0"`
	PurchasedAt *time.Time `json:"purchasedAt"`
}

func (r SpendingRequest) toDomain() domain.Spending {
	sp := domain.Spending{
		Title:    r.Title,
		Category: r.Category,
		Vendor:   r.Vendor,
		Amount:   r.Amount,
	}

	if r.PurchasedAt != nil {
		sp.PurchasedAt = *r.PurchasedAt
	}

	return sp
}

// SpendingListQuery holds the filter and paging parameters of the spendings list.
type SpendingListQuery struct {
	dto.PaginationRequest

	Category string     `form:"category"`
	Vendor   string     `form:"vendor"`
	From     *time.Time `form:"from"     time_format:"2006-01-02" time_utc:"1"`
	To       *time.Time `form:"to"       time_format:"2006-01-02" time_utc:"1"`
}

func (q SpendingListQuery) filter() app.SpendingFilter {
	return app.SpendingFilter{
		Category: q.Category,
		Vendor:   q.Vendor,
		From:     q.From,
		To:       endOfDay(q.To),
	}
}

// SummaryQuery optionally overrides the configured monthly budget.
type SummaryQuery struct {
	Budget float64 `form:"budget" validate:"gte=0"`
}

// List handles GET /api/v1/spendings.
func (h *SpendingHandler) List(c *gin.Context) {
	var query SpendingListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	spendings, err := h.service.Search(c.Request.Context(), query.filter())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	respondPage(c, spendings, query.PaginationRequest, domain.Spending.EntityID)
}

// Get handles GET /api/v1/spendings/:id.
func (h *SpendingHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	sp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, sp)
}

// Create handles POST /api/v1/spendings.
func (h *SpendingHandler) Create(c *gin.Context) {
	var req SpendingRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	sp, err := h.service.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sp)
}

// Update handles PUT /api/v1/spendings/:id.
func (h *SpendingHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req SpendingRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	sp, err := h.service.Update(c.Request.Context(), id, req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, sp)
}

// Delete handles DELETE /api/v1/spendings/:id.
func (h *SpendingHandler) Delete(c *gin.Context) {
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

// Summary handles GET /api/v1/spendings/summary.
func (h *SpendingHandler) Summary(c *gin.Context) {
	summary, ok := h.summary(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, summary)
}

// BudgetAlert handles GET /api/v1/spendings/alert.
func (h *SpendingHandler) BudgetAlert(c *gin.Context) {
	summary, ok := h.summary(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, summary.Alert)
}

func (h *SpendingHandler) summary(c *gin.Context) (domain.SpendingSummary, bool) {
	var query SummaryQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return domain.SpendingSummary{}, false
	}

	summary, err := h.service.Summary(c.Request.Context(), query.Budget)
	if err != nil {
		dto.HandleError(c, err)
		return domain.SpendingSummary{}, false
	}

	return summary, true
}

// ExportCategories handles GET /api/v1/spendings/categories/export.
func (h *SpendingHandler) ExportCategories(c *gin.Context) {
	sendCSV(c, "spending-categories.csv", func(w io.Writer) error {
		return h.service.ExportCategoriesCSV(c.Request.Context(), w)
	})
}

// RegisterSpendingRoutes registers spending routes.
func (h *SpendingHandler) RegisterSpendingRoutes(public, protected *gin.RouterGroup) {
	spendings := public.Group("/spendings")
	spendings.GET("", h.List)
	spendings.GET("/summary", h.Summary)
	spendings.GET("/alert", h.BudgetAlert)
	spendings.GET("/categories/export", h.ExportCategories)
	spendings.GET("/:id", h.Get)

	write := protected.Group("/spendings")
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}
