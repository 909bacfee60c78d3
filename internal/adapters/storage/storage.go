// Package storage provides the repositories backing every collection.
//
// Three drivers are supported: an in-process memory store, SQLite through
// the pure-Go modernc driver, and PostgreSQL through pgx. The SQL drivers
// keep each collection as JSON documents in its own table, ordered by an
// insertion sequence, so list order is identical across drivers.
package storage

import (
	"context"
	"fmt"

	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Collection table names.
const (
	TableQuotes          = "quotes"
	TableTags            = "tags"
	TableReadingLogs     = "reading_logs"
	TableReadingSessions = "reading_sessions"
	TableReviews         = "reviews"
	TableWishlist        = "wishlist"
	TableSpendings       = "spendings"
	TableProfiles        = "profiles"
)

// Tables lists every collection table.
var Tables = []string{
	TableQuotes,
	TableTags,
	TableReadingLogs,
	TableReadingSessions,
	TableReviews,
	TableWishlist,
	TableSpendings,
	TableProfiles,
}

// Config selects and configures the storage driver.
type Config struct {
	Driver string
	DSN    string
}

// Stores bundles one repository per collection.
type Stores struct {
	Quotes      ports.Repository[domain.Quote]
	Tags        ports.Repository[domain.Tag]
	ReadingLogs ports.Repository[domain.ReadingLog]
	Sessions    ports.Repository[domain.ReadingSession]
	Reviews     ports.Repository[domain.Review]
	Wishlist    ports.Repository[domain.WishlistItem]
	Spendings   ports.Repository[domain.Spending]
	Profiles    ports.Repository[domain.Profile]

	// Checker reports database health. It is nil for the memory driver.
	Checker ports.HealthChecker

	close func() error
}

// Open creates the stores for cfg.Driver.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemoryStores(), nil
	case DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.DSN, Tables)
		if err != nil {
			return nil, err
		}

		return newDocumentStores(db, db, db.Close), nil
	case DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.DSN, Tables)
		if err != nil {
			return nil, err
		}

		return newDocumentStores(db, db, db.Close), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewMemoryStores creates empty in-process stores.
func NewMemoryStores() *Stores {
	return &Stores{
		Quotes:      NewMemory[domain.Quote](domain.EntityQuote),
		Tags:        NewMemory[domain.Tag](domain.EntityTag),
		ReadingLogs: NewMemory[domain.ReadingLog](domain.EntityReadingLog),
		Sessions:    NewMemory[domain.ReadingSession](domain.EntityReadingSession),
		Reviews:     NewMemory[domain.Review](domain.EntityReview),
		Wishlist:    NewMemory[domain.WishlistItem](domain.EntityWishlistItem),
		Spendings:   NewMemory[domain.Spending](domain.EntitySpending),
		Profiles:    NewMemory[domain.Profile](domain.EntityProfile),
		close:       func() error { return nil },
	}
}

func newDocumentStores(db backend, checker ports.HealthChecker, closer func() error) *Stores {
	return &Stores{
		Quotes:      newDocuments[domain.Quote](db, TableQuotes, domain.EntityQuote),
		Tags:        newDocuments[domain.Tag](db, TableTags, domain.EntityTag),
		ReadingLogs: newDocuments[domain.ReadingLog](db, TableReadingLogs, domain.EntityReadingLog),
		Sessions:    newDocuments[domain.ReadingSession](db, TableReadingSessions, domain.EntityReadingSession),
		Reviews:     newDocuments[domain.Review](db, TableReviews, domain.EntityReview),
		Wishlist:    newDocuments[domain.WishlistItem](db, TableWishlist, domain.EntityWishlistItem),
		Spendings:   newDocuments[domain.Spending](db, TableSpendings, domain.EntitySpending),
		Profiles:    newDocuments[domain.Profile](db, TableProfiles, domain.EntityProfile),
		Checker:     checker,
		close:       closer,
	}
}

// Counts returns the number of records per collection table.
func (s *Stores) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))

	for table, lister := range map[string]func(context.Context) (int, error){
		TableQuotes:          countOf(s.Quotes),
		TableTags:            countOf(s.Tags),
		TableReadingLogs:     countOf(s.ReadingLogs),
		TableReadingSessions: countOf(s.Sessions),
		TableReviews:         countOf(s.Reviews),
		TableWishlist:        countOf(s.Wishlist),
		TableSpendings:       countOf(s.Spendings),
		TableProfiles:        countOf(s.Profiles),
	} {
		n, err := lister(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}

		counts[table] = n
	}

	return counts, nil
}

func countOf[T domain.Entity](repo ports.Repository[T]) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		items, err := repo.List(ctx)

		return len(items), err
	}
}

// Close releases the underlying database, if any.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}

	return s.close()
}
