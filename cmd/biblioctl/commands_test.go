package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/jsamuelsen/biblioteca/internal/app"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// runner invokes biblioctl against one SQLite file per test.
type runner struct {
	t   *testing.T
	dsn string
}

func newRunner(t *testing.T) *runner {
	t.Helper()

	t.Chdir(t.TempDir())
	t.Setenv("APP_ENVIRONMENT", "test")

	return &runner{t: t, dsn: filepath.Join(t.TempDir(), "library.db")}
}

func (r *runner) run(stdin string, args ...string) result {
	r.t.Helper()

	var stdout, stderr bytes.Buffer

	a := newApp(strings.NewReader(stdin), &stdout, &stderr)
	a.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"biblioctl", "--driver", "sqlite", "--dsn", r.dsn}, args...)
	err := a.RunContext(r.t.Context(), argv)

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (r *runner) mustRun(args ...string) string {
	r.t.Helper()

	res := r.run("", args...)
	require.NoError(r.t, res.err, res.stderr)

	return res.stdout
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var coder cli.ExitCoder
	require.True(t, errors.As(err, &coder), "not an exit error: %v", err)

	return coder.ExitCode()
}

func TestSeed_ReportsCollectionCounts(t *testing.T) {
	r := newRunner(t)

	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(r.mustRun("--json", "seed")), &counts))

	assert.Positive(t, counts["quotes"])
	assert.Positive(t, counts["reading_logs"])

	again := map[string]int{}
	require.NoError(t, json.Unmarshal([]byte(r.mustRun("--json", "seed")), &again))
	assert.Equal(t, counts, again)
}

func TestQuotesImport_FromStdin(t *testing.T) {
	r := newRunner(t)

	csv := strings.Join([]string{
		"Quote,Book,Author,Page,Tags,Date Added",
		`"So it goes.",Slaughterhouse-Five,Kurt Vonnegut,,war;fate,2024-01-05`,
		`"Call me Ishmael.",Moby-Dick,Herman Melville,1,,yesterday`,
	}, "\n")

	res := r.run(csv, "quotes", "import", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "imported 1, skipped 1")
	assert.Contains(t, res.stdout, `line 3: invalid date "yesterday"`)

	var quotes []domain.Quote
	require.NoError(t, json.Unmarshal([]byte(r.mustRun("--json", "quotes", "list", "--tag", "war")), &quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, "Slaughterhouse-Five", quotes[0].Book)
	assert.Equal(t, []string{"war", "fate"}, quotes[0].Tags)
}

func TestQuotesImport_FromFileAsJSON(t *testing.T) {
	r := newRunner(t)

	path := filepath.Join(t.TempDir(), "quotes.csv")
	require.NoError(t, os.WriteFile(path, []byte("Quote,Book,Author,Page,Tags,Date Added\nshort\n"), 0o600))

	var got app.ImportResult
	require.NoError(t, json.Unmarshal([]byte(r.mustRun("--json", "quotes", "import", path)), &got))

	assert.Equal(t, 0, got.Imported)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, 2, got.Skipped[0].Line)
}

func TestQuotesImport_UsageErrors(t *testing.T) {
	r := newRunner(t)

	res := r.run("", "quotes", "import")
	assert.Equal(t, ExitUsageError, exitCode(t, res.err))

	res = r.run("", "quotes", "import", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Equal(t, ExitDataError, exitCode(t, res.err))
}

func TestQuotesList_Table(t *testing.T) {
	r := newRunner(t)
	r.mustRun("seed")

	out := r.mustRun("quotes", "list")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Greater(t, len(lines), 1)
	assert.Equal(t, []string{"ID", "BOOK", "AUTHOR", "QUOTE", "TAGS"}, strings.Fields(lines[0])[:5])
}

func TestQuotesExport_ToFile(t *testing.T) {
	r := newRunner(t)
	r.mustRun("seed")

	path := filepath.Join(t.TempDir(), "quotes.csv")
	assert.Empty(t, r.mustRun("quotes", "export", "--favorites", "--output", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), strings.Join(app.QuotesCSVHeader, ",")+"\n"))
}

func TestLogsExport_FiltersByStatus(t *testing.T) {
	r := newRunner(t)
	r.mustRun("seed")

	out := r.mustRun("logs", "export", "--status", string(domain.StatusRead))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, strings.Join(app.ReadingLogsCSVHeader, ","), lines[0])

	for _, line := range lines[1:] {
		assert.Contains(t, line, ","+string(domain.StatusRead)+",")
	}
}

func TestTags_ListsUsage(t *testing.T) {
	r := newRunner(t)
	r.mustRun("seed")

	var stats domain.TagStats
	require.NoError(t, json.Unmarshal([]byte(r.mustRun("--json", "tags")), &stats))
	require.NotEmpty(t, stats.Tags)

	out := r.mustRun("tags")
	assert.True(t, strings.HasPrefix(out, "TAG"))
	assert.Contains(t, out, stats.Tags[0].Tag)
}

func TestBudget_OverridesMonthlyBudget(t *testing.T) {
	r := newRunner(t)
	r.mustRun("seed")

	var summary domain.SpendingSummary
	require.NoError(t, json.Unmarshal([]byte(r.mustRun("--json", "budget", "--budget", "120")), &summary))
	assert.InDelta(t, 120.0, summary.Alert.Budget, 0.001)

	out := r.mustRun("budget", "-b", "120")
	assert.Contains(t, out, "of $120")
	assert.Contains(t, out, "CATEGORY")
}

func TestGlobalFlags_InvalidDriver(t *testing.T) {
	r := newRunner(t)

	res := r.run("", "--driver", "mongo", "tags")
	assert.Equal(t, ExitUsageError, exitCode(t, res.err))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))

	long := strings.Repeat("é", quotePreviewWidth+5)
	got := []rune(preview(long))
	assert.Len(t, got, quotePreviewWidth)
	assert.Equal(t, '…', got[len(got)-1])
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", money(1234.5))
}
