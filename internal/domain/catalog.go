package domain

// CatalogBook is the catalog service's view of a book.
type CatalogBook struct {
	ID        string
	Title     string
	Authors   []string
	PageCount int
	Genres    []string
	Published string
}
