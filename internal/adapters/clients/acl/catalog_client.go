package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jsamuelsen/biblioteca/internal/adapters/clients"
	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
)

// CatalogServiceName identifies the catalog in logs, errors and health checks.
const CatalogServiceName = "catalog"

const catalogHealthPath = "/health"

// CatalogClientConfig contains configuration for the catalog client.
type CatalogClientConfig struct {
	// Client is the HTTP client; its BaseURL points at the catalog API.
	Client *clients.Client

	Logger *slog.Logger
}

// CatalogClient implements ports.CatalogClient and ports.HealthChecker over
// the catalog's REST API.
type CatalogClient struct {
	BaseAdapter

	logger *slog.Logger
}

// NewCatalogClient creates a catalog adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewCatalogClient(cfg CatalogClientConfig) *CatalogClient {
	if cfg.Client == nil {
		panic("CatalogClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogClient{
		BaseAdapter: NewBaseAdapter(cfg.Client, CatalogServiceName, domain.EntityCatalogBook),
		logger:      logger.With(slog.String("component", "acl.CatalogClient")),
	}
}

// externalBook is the catalog's book representation.
type externalBook struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Subtitle      string           `json:"subtitle"`
	Authors       []externalAuthor `json:"authors"`
	NumberOfPages int              `json:"number_of_pages"`
	Subjects      []string         `json:"subjects"`
	PublishDate   string           `json:"publish_date"`
}

type externalAuthor struct {
	Name string `json:"name"`
}

// GetBook fetches the catalog entry with id.
func (c *CatalogClient) GetBook(ctx context.Context, id string) (*domain.CatalogBook, error) {
	id = strings.TrimSpace(id)
	if err := ValidateRequired(id, "catalogBookId"); err != nil {
		return nil, err
	}

	path := "/books/" + url.PathEscape(id)
	c.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", path))

	body, err := c.Get(ctx, path, "get book", id)
	if err != nil {
		c.logger.DebugContext(ctx, "catalog lookup failed",
			slog.String("catalog_book_id", id),
			slog.Any("error", err),
		)

		return nil, err
	}

	ext, err := DecodeResponseForService[externalBook](body, c.ServiceName())
	if err != nil {
		return nil, err
	}

	book, err := translateBook(ext)
	if err != nil {
		return nil, domain.NewUnavailableError(c.ServiceName(), err.Error())
	}

	c.logger.Log(ctx, logging.LevelTrace, "translated catalog book",
		slog.String("catalog_book_id", book.ID),
		slog.Int("pages", book.PageCount),
	)

	return &book, nil
}

// translateBook converts the catalog's book into the domain view. Blank
// author names and subjects are dropped; a subtitle is appended to the title.
func translateBook(ext *externalBook) (domain.CatalogBook, error) {
	if ext.ID == "" {
		return domain.CatalogBook{}, domain.NewValidationError("id", "missing from catalog response")
	}

	title := strings.TrimSpace(ext.Title)
	if title == "" {
		return domain.CatalogBook{}, domain.NewValidationError("title", "missing from catalog response")
	}

	if sub := strings.TrimSpace(ext.Subtitle); sub != "" {
		title += ": " + sub
	}

	authors, err := TranslateSlice(ext.Authors, func(a *externalAuthor) (string, error) {
		return strings.TrimSpace(a.Name), nil
	})
	if err != nil {
		return domain.CatalogBook{}, err
	}

	return domain.CatalogBook{
		ID:        ext.ID,
		Title:     title,
		Authors:   compact(authors),
		PageCount: max(ext.NumberOfPages, 0),
		Genres:    compact(ext.Subjects),
		Published: strings.TrimSpace(ext.PublishDate),
	}, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}

// Name implements ports.HealthChecker.
func (c *CatalogClient) Name() string {
	return CatalogServiceName
}

// Check implements ports.HealthChecker by calling the catalog's health endpoint.
func (c *CatalogClient) Check(ctx context.Context) error {
	resp, err := c.Client().Get(ctx, catalogHealthPath)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	return nil
}
