package acl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/adapters/clients"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

func newCatalog(t *testing.T, handler http.HandlerFunc) *CatalogClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(testConfig(server.URL))
	require.NoError(t, err)

	return NewCatalogClient(CatalogClientConfig{
		Client: client,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestNewCatalogClient_PanicsWithoutClient(t *testing.T) {
	assert.PanicsWithValue(t, "CatalogClient: Client is required", func() {
		NewCatalogClient(CatalogClientConfig{})
	})
}

func TestNewCatalogClient_DefaultsLogger(t *testing.T) {
	client, err := clients.New(testConfig("http://example.com"))
	require.NoError(t, err)

	c := NewCatalogClient(CatalogClientConfig{Client: client})

	require.NotNil(t, c)
	assert.Equal(t, CatalogServiceName, c.Name())
}

func TestCatalogClient_GetBook(t *testing.T) {
	c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/OL7353617M", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "OL7353617M",
			"title": "Fantastic Mr. Fox",
			"subtitle": " A Story ",
			"authors": [{"name": "Roald Dahl"}, {"name": " "}],
			"number_of_pages": 96,
			"subjects": ["Animals", "", "Fiction"],
			"publish_date": "October 1, 1988"
		}`))
	})

	book, err := c.GetBook(context.Background(), "OL7353617M")

	require.NoError(t, err)
	assert.Equal(t, &domain.CatalogBook{
		ID:        "OL7353617M",
		Title:     "Fantastic Mr. Fox: A Story",
		Authors:   []string{"Roald Dahl"},
		PageCount: 96,
		Genres:    []string{"Animals", "Fiction"},
		Published: "October 1, 1988",
	}, book)
}

func TestCatalogClient_GetBookEscapesID(t *testing.T) {
	c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"id":"a/b","title":"Slashes"}`))
	})

	book, err := c.GetBook(context.Background(), "a/b")

	require.NoError(t, err)
	assert.Equal(t, "Slashes", book.Title)
}

func TestCatalogClient_GetBookErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		id      string
		wantErr func(error) bool
	}{
		{name: "blank id", id: "  ", wantErr: domain.IsValidation},
		{name: "unknown book", status: http.StatusNotFound, body: `{"error":{"code":"NOT_FOUND"}}`, id: "OL0M", wantErr: domain.IsNotFound},
		{name: "catalog down", status: http.StatusServiceUnavailable, body: `{}`, id: "OL1M", wantErr: domain.IsUnavailable},
		{name: "malformed body", status: http.StatusOK, body: `{"id":`, id: "OL1M", wantErr: domain.IsUnavailable},
		{name: "untitled book", status: http.StatusOK, body: `{"id":"OL1M","title":""}`, id: "OL1M", wantErr: domain.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			book, err := c.GetBook(context.Background(), tt.id)

			require.Error(t, err)
			assert.Nil(t, book)
			assert.True(t, tt.wantErr(err), "unexpected error kind: %v", err)
		})
	}
}

func TestCatalogClient_Check(t *testing.T) {
	healthy := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, catalogHealthPath, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, healthy.Check(context.Background()))

	failing := newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.ErrorContains(t, failing.Check(context.Background()), "500")
}
