package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/dto"
	"github.com/jsamuelsen/biblioteca/internal/app"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// QuoteHandler handles quote and tag endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// QuoteRequest is the body of quote create and update calls.
type QuoteRequest struct {
	Quote      string     `json:"quote"      validate:"required,notempty"`
	Book       string     `json:"book"       validate:"required,notempty,max=300"`
	Author     string     `json:"author"     validate:"required,notempty,max=200"`
	PageNumber *int       `json:"pageNumber" validate:"omitempty,gte=1"`
	Tags       []string   `json:"tags"       validate:"omitempty,max=20,dive,max=50"`
	Notes      string     `json:"notes"      validate:"max=2000"`
	Favorite   bool       `json:"favorite"`
	DateAdded  *time.Time `json:"dateAdded"`
}

func (r QuoteRequest) toDomain() domain.Quote {
	q := domain.Quote{
		Text:       r.Quote,
		Book:       r.Book,
		Author:     r.Author,
		PageNumber: r.PageNumber,
		Tags:       r.Tags,
		Notes:      r.Notes,
		Favorite:   r.Favorite,
	}

	if r.DateAdded != nil {
		q.DateAdded = *r.DateAdded
	}

	return q
}

// QuoteListQuery holds the filter and paging parameters of the quotes list.
type QuoteListQuery struct {
	dto.PaginationRequest

	Search    string   `form:"search"`
	Tags      []string `form:"tags"`
	Book      string   `form:"book"`
	Favorites bool     `form:"favorites"`
	SortBy    string   `form:"sortBy"`
	SortOrder string   `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

func (q QuoteListQuery) filter() app.QuoteFilter {
	return app.QuoteFilter{
		Search:        q.Search,
		Tags:          splitList(q.Tags),
		Book:          q.Book,
		FavoritesOnly: q.Favorites,
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
	}
}

// TagRequest names a tag to create or rename to.
type TagRequest struct {
	Name string `json:"name" validate:"required,notempty,max=50"`
}

// TagRenameResponse reports how many quotes a rename touched.
type TagRenameResponse struct {
	Tag     string `json:"tag"`
	Renamed int    `json:"renamed"`
}

// List handles GET /api/v1/quotes.
func (h *QuoteHandler) List(c *gin.Context) {
	var query QuoteListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quotes, err := h.service.Search(c.Request.Context(), query.filter())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	respondPage(c, quotes, query.PaginationRequest, domain.Quote.EntityID)
}

// Get handles GET /api/v1/quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	quote, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Create handles POST /api/v1/quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.service.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quote)
}

// Update handles PUT /api/v1/quotes/:id.
func (h *QuoteHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.service.Update(c.Request.Context(), id, req.toDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Delete handles DELETE /api/v1/quotes/:id.
func (h *QuoteHandler) Delete(c *gin.Context) {
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

// ToggleFavorite handles POST /api/v1/quotes/:id/favorite.
func (h *QuoteHandler) ToggleFavorite(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	quote, err := h.service.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Options handles GET /api/v1/quotes/options.
func (h *QuoteHandler) Options(c *gin.Context) {
	options, err := h.service.Options(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, options)
}

// Export handles GET /api/v1/quotes/export. It honours the list filters.
func (h *QuoteHandler) Export(c *gin.Context) {
	var query QuoteListQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	sendCSV(c, "quotes.csv", func(w io.Writer) error {
		return h.service.ExportCSV(c.Request.Context(), w, query.filter())
	})
}

// Import handles POST /api/v1/quotes/import. The CSV is read from a
// multipart "file" field or, failing that, the raw request body.
func (h *QuoteHandler) Import(c *gin.Context) {
	body := io.Reader(c.Request.Body)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			dto.BadRequest(c, "multipart upload must carry a \"file\" field")
			return
		}

		file, err := header.Open()
		if err != nil {
			dto.BadRequest(c, "uploaded file cannot be read")
			return
		}
		defer file.Close()

		body = file
	}

	result, err := h.service.ImportCSV(c.Request.Context(), body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TagStats handles GET /api/v1/tags.
func (h *QuoteHandler) TagStats(c *gin.Context) {
	stats, err := h.service.TagStats(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CreateTag handles POST /api/v1/tags.
func (h *QuoteHandler) CreateTag(c *gin.Context) {
	var req TagRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	tag, err := h.service.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// RenameTag handles PUT /api/v1/tags/:name.
func (h *QuoteHandler) RenameTag(c *gin.Context) {
	var req TagRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	renamed, err := h.service.RenameTag(c.Request.Context(), c.Param("name"), req.Name)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, TagRenameResponse{Tag: domain.NormalizeTag(req.Name), Renamed: renamed})
}

// DeleteTag handles DELETE /api/v1/tags/:name.
func (h *QuoteHandler) DeleteTag(c *gin.Context) {
	if err := h.service.DeleteTag(c.Request.Context(), c.Param("name")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CleanTags handles POST /api/v1/tags/cleanup.
func (h *QuoteHandler) CleanTags(c *gin.Context) {
	removed, err := h.service.CleanUnusedTags(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ExportTags handles GET /api/v1/tags/export.
func (h *QuoteHandler) ExportTags(c *gin.Context) {
	sendCSV(c, "tags.csv", func(w io.Writer) error {
		return h.service.ExportTagsCSV(c.Request.Context(), w)
	})
}

// RegisterQuoteRoutes registers quote and tag routes. Reads go on public,
// writes on protected.
func (h *QuoteHandler) RegisterQuoteRoutes(public, protected *gin.RouterGroup) {
	quotes := public.Group("/quotes")
	quotes.GET("", h.List)
	quotes.GET("/options", h.Options)
	quotes.GET("/export", h.Export)
	quotes.GET("/:id", h.Get)

	tags := public.Group("/tags")
	tags.GET("", h.TagStats)
	tags.GET("/export", h.ExportTags)

	writeQuotes := protected.Group("/quotes")
	writeQuotes.POST("", h.Create)
	writeQuotes.POST("/import", h.Import)
	writeQuotes.PUT("/:id", h.Update)
	writeQuotes.DELETE("/:id", h.Delete)
	writeQuotes.POST("/:id/favorite", h.ToggleFavorite)

	writeTags := protected.Group("/tags")
	writeTags.POST("", h.CreateTag)
	writeTags.POST("/cleanup", h.CleanTags)
	writeTags.PUT("/:name", h.RenameTag)
	writeTags.DELETE("/:name", h.DeleteTag)
}
