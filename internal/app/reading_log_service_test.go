package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/adapters/storage"
	"github.com/jsamuelsen/biblioteca/internal/domain"
	"github.com/jsamuelsen/biblioteca/internal/mocks"
	"github.com/jsamuelsen/biblioteca/internal/ports"
)

func newReadingLogService(t *testing.T, catalog ports.CatalogClient, flags ports.FeatureFlags) *ReadingLogService {
	t.Helper()

	stores := storage.NewMemoryStores()

	return NewReadingLogService(ReadingLogServiceConfig{
		Logs:     stores.ReadingLogs,
		Sessions: stores.Sessions,
		Catalog:  catalog,
		Flags:    flags,
		Logger:   discardLogger(),
		Clock:    fixedClock(testNow),
	})
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return &t
}

func TestNewReadingLogService_PanicsWithoutRepositories(t *testing.T) {
	stores := storage.NewMemoryStores()

	assert.Panics(t, func() {
		NewReadingLogService(ReadingLogServiceConfig{Logs: stores.ReadingLogs})
	})
}

func TestReadingLogService_Create(t *testing.T) {
	svc := newReadingLogService(t, nil, nil)
	ctx := context.Background()

	log, err := svc.Create(ctx, domain.ReadingLog{Title: "Dune", Author: "Frank Herbert", TotalPages: 400, CurrentPage: 100})
	require.NoError(t, err)

	assert.NotEmpty(t, log.ID)
	assert.Equal(t, domain.StatusWantToRead, log.Status)
	assert.Equal(t, 25, log.Progress)
	assert.Equal(t, testNow, log.CreatedAt)
	assert.Nil(t, log.StartDate)

	reading, err := svc.Create(ctx, domain.ReadingLog{Title: "Emma", Author: "Jane Austen", Status: domain.StatusCurrentlyReading})
	require.NoError(t, err)
	require.NotNil(t, reading.StartDate)
	assert.Equal(t, testNow, *reading.StartDate)

	_, err = svc.Create(ctx, domain.ReadingLog{Title: "Nameless"})
	assert.True(t, domain.IsValidation(err))
}

func TestReadingLogService_CreateEnrichesFromCatalog(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*mocks.MockCatalogClient, *mocks.MockFeatureFlags)
		wantTitle  string
		wantAuthor string
		errCheck   func(error) bool
	}{
		{
			name: "fills missing fields",
			setup: func(c *mocks.MockCatalogClient, f *mocks.MockFeatureFlags) {
				f.EXPECT().IsEnabled(mock.Anything, ports.FlagCatalogEnrichment, true).Return(true)
				c.EXPECT().GetBook(mock.Anything, "cb-1").Return(&domain.CatalogBook{
					ID:        "cb-1",
					Title:     "Good Omens",
					Authors:   []string{"Terry Pratchett", "Neil Gaiman"},
					PageCount: 412,
				}, nil)
			},
			wantTitle:  "Good Omens",
			wantAuthor: "Terry Pratchett, Neil Gaiman",
		},
		{
			name: "flag disabled leaves log invalid",
			setup: func(_ *mocks.MockCatalogClient, f *mocks.MockFeatureFlags) {
				f.EXPECT().IsEnabled(mock.Anything, ports.FlagCatalogEnrichment, true).Return(false)
			},
			errCheck: domain.IsValidation,
		},
		{
			name: "unknown catalog book",
			setup: func(c *mocks.MockCatalogClient, f *mocks.MockFeatureFlags) {
				f.EXPECT().IsEnabled(mock.Anything, ports.FlagCatalogEnrichment, true).Return(true)
				c.EXPECT().GetBook(mock.Anything, "cb-1").Return(nil, domain.NewNotFoundError(domain.EntityCatalogBook, "cb-1"))
			},
			errCheck: domain.IsValidation,
		},
		{
			name: "catalog unavailable degrades to validation",
			setup: func(c *mocks.MockCatalogClient, f *mocks.MockFeatureFlags) {
				f.EXPECT().IsEnabled(mock.Anything, ports.FlagCatalogEnrichment, true).Return(true)
				c.EXPECT().GetBook(mock.Anything, "cb-1").Return(nil, domain.NewUnavailableError("catalog-service", "timeout"))
			},
			errCheck: domain.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := mocks.NewMockCatalogClient(t)
			flags := mocks.NewMockFeatureFlags(t)
			tt.setup(catalog, flags)

			svc := newReadingLogService(t, catalog, flags)

			log, err := svc.Create(context.Background(), domain.ReadingLog{CatalogBookID: "cb-1"})
			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, log.Title)
			assert.Equal(t, tt.wantAuthor, log.Author)
			assert.Equal(t, 412, log.TotalPages)
		})
	}
}

func TestReadingLogService_EnrichAll(t *testing.T) {
	catalog := mocks.NewMockCatalogClient(t)
	catalog.EXPECT().GetBook(mock.Anything, "cb-1").Return(&domain.CatalogBook{ID: "cb-1", Title: "Dune", Authors: []string{"Frank Herbert"}, PageCount: 400}, nil)
	catalog.EXPECT().GetBook(mock.Anything, "cb-2").Return(nil, domain.NewUnavailableError("catalog-service", "timeout"))

	svc := newReadingLogService(t, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.ReadingLog{CatalogBookID: "cb-1", Title: "Dune", Author: "Frank Herbert", CurrentPage: 100})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.ReadingLog{CatalogBookID: "cb-2", Title: "Emma", Author: "Jane Austen"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.ReadingLog{Title: "Local", Author: "Nobody"})
	require.NoError(t, err)

	svc.catalog = catalog

	updated, err := svc.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 400, got.TotalPages)
	assert.Equal(t, 25, got.Progress)
}

func TestReadingLogService_StatusAndProgress(t *testing.T) {
	svc := newReadingLogService(t, nil, nil)
	ctx := context.Background()

	log, err := svc.Create(ctx, domain.ReadingLog{Title: "Dune", Author: "Frank Herbert", TotalPages: 200})
	require.NoError(t, err)

	log, err = svc.UpdateProgress(ctx, log.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 25, log.Progress)

	_, err = svc.UpdateProgress(ctx, log.ID, -1)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.UpdateProgress(ctx, log.ID, 201)
	assert.True(t, domain.IsValidation(err))

	log, err = svc.UpdateStatus(ctx, log.ID, domain.StatusRead)
	require.NoError(t, err)
	assert.Equal(t, 100, log.Progress)
	assert.Equal(t, 200, log.CurrentPage)
	require.NotNil(t, log.StartDate)
	require.NotNil(t, log.FinishDate)

	_, err = svc.UpdateStatus(ctx, log.ID, "abandoned")
	assert.True(t, domain.IsValidation(err))

	log, err = svc.ToggleFavorite(ctx, log.ID)
	require.NoError(t, err)
	assert.True(t, log.Favorite)
}

func TestReadingLogService_Update(t *testing.T) {
	svc := newReadingLogService(t, nil, nil)
	ctx := context.Background()

	log, err := svc.Create(ctx, domain.ReadingLog{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, log.ID, domain.ReadingLog{
		Title:      "Dune Messiah",
		Author:     "Frank Herbert",
		Rating:     4,
		TotalPages: 300,
		Status:     domain.StatusCurrentlyReading,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, log.CreatedAt, updated.CreatedAt)
	assert.NotNil(t, updated.StartDate)

	_, err = svc.Update(ctx, "missing", domain.ReadingLog{Title: "x", Author: "y"})
	assert.True(t, domain.IsNotFound(err))
}

func TestReadingStats(t *testing.T) {
	logs := []domain.ReadingLog{
		{Status: domain.StatusRead, Rating: 5, FinishDate: datePtr(2024, time.June, 2), ActualHours: 10.25},
		{Status: domain.StatusRead, Rating: 4, FinishDate: datePtr(2024, time.January, 9)},
		{Status: domain.StatusRead, FinishDate: datePtr(2023, time.June, 9), ActualHours: 3},
		{Status: domain.StatusCurrentlyReading, Rating: 3},
		{Status: domain.StatusWantToRead},
		{Status: domain.StatusOnHold},
		{Status: domain.StatusDidNotFinish},
	}

	stats := readingStats(logs, testNow)

	assert.Equal(t, domain.ReadingStats{
		TotalBooks:         7,
		BooksRead:          3,
		CurrentlyReading:   1,
		WantToRead:         1,
		OnHold:             1,
		DidNotFinish:       1,
		AverageRating:      4,
		TotalReadingHours:  13.3,
		BooksReadThisYear:  2,
		BooksReadThisMonth: 1,
	}, stats)

	assert.Equal(t, domain.ReadingStats{}, readingStats(nil, testNow))
}

func TestReadingLogService_Sessions(t *testing.T) {
	svc := newReadingLogService(t, nil, nil)
	ctx := context.Background()

	log, err := svc.Create(ctx, domain.ReadingLog{Title: "Dune", Author: "Frank Herbert", TotalPages: 100})
	require.NoError(t, err)

	_, err = svc.LogSession(ctx, log.ID, domain.ReadingSession{StartedAt: testNow.Add(-time.Hour), Minutes: 30, PagesRead: 20})
	require.NoError(t, err)

	second, err := svc.LogSession(ctx, log.ID, domain.ReadingSession{Minutes: 90, PagesRead: 200})
	require.NoError(t, err)
	assert.Equal(t, testNow, second.StartedAt)

	_, err = svc.LogSession(ctx, log.ID, domain.ReadingSession{Minutes: 0})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.LogSession(ctx, "missing", domain.ReadingSession{Minutes: 10})
	assert.True(t, domain.IsNotFound(err))

	sessions, err := svc.Sessions(ctx, log.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)

	got, err := svc.Get(ctx, log.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.ActualHours, 0.001)
	assert.Equal(t, 100, got.CurrentPage)
	assert.Equal(t, 100, got.Progress)

	require.NoError(t, svc.Delete(ctx, log.ID))

	sessions, err = svc.Sessions(ctx, log.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestReadingLogService_SearchAndExport(t *testing.T) {
	svc := newReadingLogService(t, nil, nil)
	ctx := context.Background()

	for _, in := range []domain.ReadingLog{
		{Title: "Dune", Author: "Frank Herbert", Rating: 5, Status: domain.StatusRead, Format: domain.FormatDigital},
		{Title: "Emma", Author: "Jane Austen", Rating: 3, Status: domain.StatusRead},
		{Title: "Persuasion", Author: "Jane Austen", Status: domain.StatusWantToRead},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	logs, err := svc.Search(ctx, ReadingLogFilter{Authors: []string{"jane austen"}, SortBy: "title", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Persuasion", logs[0].Title)

	logs, err = svc.Search(ctx, ReadingLogFilter{MinRating: 4})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Dune", logs[0].Title)

	_, err = svc.Search(ctx, ReadingLogFilter{Statuses: []domain.ReadingStatus{"lost"}})
	assert.True(t, domain.IsValidation(err))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf, ReadingLogFilter{Statuses: []domain.ReadingStatus{domain.StatusRead}}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ReadingLogsCSVHeader, rows[0])
	assert.Equal(t, []string{"Dune", "Frank Herbert", "read", "5", "0", "0", "100", "2024-06-15", "2024-06-15", "DIGITAL"}, rows[1])
}
