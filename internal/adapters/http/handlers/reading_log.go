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

// ReadingLogHandler handles reading-log and reading-session endpoints.
type ReadingLogHandler struct {
	service *app.ReadingLogService
}

// NewReadingLogHandler creates a new reading-log handler.
func NewReadingLogHandler(service *app.ReadingLogService) *ReadingLogHandler {
	return &ReadingLogHandler{service: service}
}

// ReadingLogRequest is the body of reading-log create and update calls.
// Title and author may be omitted when a catalog book id is given.
type ReadingLogRequest struct {
	CatalogBookID  string               `json:"catalogBookId"        validate:"max=100"`
	Title          string               `json:"title"                validate:"required_without=CatalogBookID,max=300"`
	Author         string               `json:"author"               validate:"required_without=CatalogBookID,max=200"`
	Status         domain.ReadingStatus `json:"status"               validate:"omitempty,oneof=want_to_read currently_reading read did_not_finish on_hold"`
	Rating         int                  `json:"rating"               validate:"gte=0,lte=5"`
	CurrentPage    int                  `json:"currentPage"          validate:"gte=0"`
	TotalPages     int                  `json:"totalPages"           validate:"gte=0"`
	Progress       int                  `json:"progress"             validate:"gte=0,lte=100"`
	StartDate      *time.Time           `json:"startDate"`
	FinishDate     *time.Time           `json:"finishDate"`
	EstimatedHours float64              `json:"estimatedReadingTime" validate:"gte=0"`
	ActualHours    float64              `json:"actualReadingTime"    validate:"gte=0"`
	Favorite       bool                 `json:"favorite"`
	Format         domain.BookFormat    `json:"format"               validate:"omitempty,oneof=PHYSICAL DIGITAL"`
	Notes          string               `json:"notes"                validate:"max=5000"`
}

func (r ReadingLogRequest) toDomain() domain.ReadingLog {
	return domain.ReadingLog{
		CatalogBookID:  r.CatalogBookID,
		Title:          r.Title,
		Author:         r.Author,
		Status:         r.Status,
		Rating:         r.Rating,
		CurrentPage:    r.CurrentPage,
		TotalPages:     r.TotalPages,
		Progress:       r.Progress,
		StartDate:      r.StartDate,
		FinishDate:     r.FinishDate,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		Favorite:       r.Favorite,
		Format:         r.Format,
		Notes:          r.Notes,
	}
}

// ReadingLogListQuery holds the filter and paging parameters of the
// reading-log list. Dates are calendar days; the "to" day is inclusive.
type ReadingLogListQuery struct {
	dto.PaginationRequest

	Search      string     `form:"search"`
	Status      []string   `form:"status"`
	Authors     []string   `form:"authors"`
	MinRating   int        `form:"minRating"   validate:"gte=0,lte=5"`
	Format      string     `form:"format"      validate:"omitempty,oneof=PHYSICAL DIGITAL"`
	StartedFrom *time.Time `form:"startedFrom" time_format:"2006-01-02" time_utc:"1"`
	StartedTo   *time.Time `form:"startedTo"   time_format:"2006-01-02" time_utc:"1"`
	Favorites   bool       `form:"favorites"`
	SortBy      string     `form:"sortBy"`
	SortOrder   string     `form:"sortOrder"   validate:"omitempty,oneof=asc desc"`
}

func (q ReadingLogListQuery) filter() app.ReadingLogFilter {
	var statuses []domain.ReadingStatus
	for _, s := range splitList(q.Status) {
		statuses = append(statuses, domain.ReadingStatus(s))
	}

	return app.ReadingLogFilter{
		Search:      q.Search,
		Statuses:    statuses,
		Authors:     splitList(q.Authors),
		MinRating:   q.MinRating,
		Format:      domain.BookFormat(q.Format),
		StartedFrom: q.StartedFrom,
		StartedTo:   endOfDay(q.StartedTo),
		Favorites:   q.Favorites,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
	}
}

// endOfDay moves a day bound to its last instant.
func endOfDay(day *time.Time) *time.Time {
	if day == nil {
		return nil
	}

	end := day.Add(24*time.Hour - time.Nanosecond)

	return &end
}

// StatusRequest moves a log to a new status.
type StatusRequest struct {
	Status domain.ReadingStatus `json:"status" validate:"required,oneof=want_to_read currently_reading read did_not_finish on_hold"`
}

// ProgressRequest records the current page of a log.
type ProgressRequest struct {
	CurrentPage int `json:"currentPage" validate:"gte=0"`
}

// SessionRequest records one reading session.
type SessionRequest struct {
	StartedAt *time.Time `json:"startedAt"`
	Minutes   int        `json:"minutes"   validate:"required,gte=1,lte=1440"`
	PagesRead int        `json:"pagesRead" validate:"gte=0"`
	Notes     string     `json:"notes"     validate:"max=2000"`
}

// EnrichResponse reports how many logs a catalog refresh updated.
type EnrichResponse struct {
	Updated int `json:"updated"`
}

// List handles GET /api/v1/logs.
func (h *ReadingLogHandler) List(c *gin.Context) {
	var query ReadingLogListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	logs, err := h.service.Search(c.Request.Context(), query.filter())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	respondPage(c, logs, query.PaginationRequest, domain.ReadingLog.EntityID)
}

// Get handles GET /api/v1/logs/:id.
func (h *ReadingLogHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	log, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}

// Create handles POST /api/v1/logs.
func (h *ReadingLogHandler) Create(c *gin.Context) {
	var req ReadingLogRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	log, err := h.service.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, log)
}

// Update handles PUT /api/v1/logs/:id.
func (h *ReadingLogHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req ReadingLogRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	log, err := h.service.Update(c.Request.Context(), id, req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}

// Delete handles DELETE /api/v1/logs/:id.
func (h *ReadingLogHandler) Delete(c *gin.Context) {
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

// UpdateStatus handles PATCH /api/v1/logs/:id/status.
func (h *ReadingLogHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	log, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}

// UpdateProgress handles PATCH /api/v1/logs/:id/progress.
func (h *ReadingLogHandler) UpdateProgress(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req ProgressRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	log, err := h.service.UpdateProgress(c.Request.Context(), id, req.CurrentPage)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}

// ToggleFavorite handles POST /api/v1/logs/:id/favorite.
func (h *ReadingLogHandler) ToggleFavorite(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	log, err := h.service.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, log)
}

// Stats handles GET /api/v1/logs/stats.
func (h *ReadingLogHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Sessions handles GET /api/v1/logs/:id/sessions.
func (h *ReadingLogHandler) Sessions(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if _, err := h.service.Get(c.Request.Context(), id); err != nil {
		dto.HandleError(c, err)
		return
	}

	sessions, err := h.service.Sessions(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": sessions})
}

// LogSession handles POST /api/v1/logs/:id/sessions.
func (h *ReadingLogHandler) LogSession(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req SessionRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	session := domain.ReadingSession{
		Minutes:   req.Minutes,
		PagesRead: req.PagesRead,
		Notes:     req.Notes,
	}
	if req.StartedAt != nil {
		session.StartedAt = *req.StartedAt
	}

	stored, err := h.service.LogSession(c.Request.Context(), id, session)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stored)
}

// Enrich handles POST /api/v1/logs/enrich, refreshing logs from the catalog.
func (h *ReadingLogHandler) Enrich(c *gin.Context) {
	updated, err := h.service.EnrichAll(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, EnrichResponse{Updated: updated})
}

// Export handles GET /api/v1/logs/export. It honours the list filters.
func (h *ReadingLogHandler) Export(c *gin.Context) {
	var query ReadingLogListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	sendCSV(c, "reading-logs.csv", func(w io.Writer) error {
		return h.service.ExportCSV(c.Request.Context(), w, query.filter())
	})
}

// RegisterReadingLogRoutes registers reading-log routes.
func (h *ReadingLogHandler) RegisterReadingLogRoutes(public, protected *gin.RouterGroup) {
	logs := public.Group("/logs")
	logs.GET("", h.List)
	logs.GET("/stats", h.Stats)
	logs.GET("/export", h.Export)
	logs.GET("/:id", h.Get)
	logs.GET("/:id/sessions", h.Sessions)

	write := protected.Group("/logs")
	write.POST("", h.Create)
	write.POST("/enrich", h.Enrich)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
	write.PATCH("/:id/status", h.UpdateStatus)
	write.PATCH("/:id/progress", h.UpdateProgress)
	write.POST("/:id/favorite", h.ToggleFavorite)
	write.POST("/:id/sessions", h.LogSession)
}
