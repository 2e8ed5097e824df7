package edgar_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/edgarvault/internal/edgar"
)

const testAgent = "edgarvault-test ops@example.com"

const submissionsDoc = `{
  "cik": "320193",
  "name": "Apple Inc.",
  "filings": {
    "recent": {
      "accessionNumber": ["0000320193-21-000105", "0000320193-21-000100", "0000320193-20-000096", "0000320193-21-000110"],
      "filingDate":      ["2021-10-29",           "2021-07-28",           "2020-10-30",           "2021-11-15"],
      "reportDate":      ["2021-09-25",           "2021-06-26",           "2020-09-26",           "2021-09-25"],
      "form":            ["10-K",                 "10-Q",                 "10-K",                 "10-K/A"],
      "primaryDocument": ["aapl-20210925.htm",    "aapl-20210626.htm",    "aapl-20200926.htm",    "aapl-a.htm"]
    },
    "files": [
      {"name": "CIK0000320193-submissions-001.json", "filingCount": 2, "filingFrom": "1994-01-26", "filingTo": "2002-12-19"}
    ]
  }
}`

const olderPageDoc = `{
  "accessionNumber": ["0000320193-96-000023", "0000320193-97-000001"],
  "filingDate":      ["1996-12-19",           "1997-01-02"],
  "reportDate":      ["1996-09-27",           ""],
  "form":            ["10-K",                 "8-K"],
  "primaryDocument": ["",                     ""]
}`

type fakeEDGAR struct {
	mu     sync.Mutex
	agents []string
	paths  []string
}

func (f *fakeEDGAR) handler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.agents = append(f.agents, r.Header.Get("User-Agent"))
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()

		switch {
		case r.URL.Path == "/submissions/CIK0000320193.json":
			_, _ = w.Write([]byte(submissionsDoc))
		case r.URL.Path == "/submissions/CIK0000320193-submissions-001.json":
			_, _ = w.Write([]byte(olderPageDoc))
		case strings.HasPrefix(r.URL.Path, "/Archives/edgar/data/320193/"):
			_, _ = w.Write([]byte("<SEC-DOCUMENT>" + r.URL.Path + "</SEC-DOCUMENT>"))
		default:
			http.NotFound(w, r)
		}
	})
}

func newClient(t *testing.T, srv *httptest.Server, amends bool) (*edgar.Client, string) {
	t.Helper()

	staging := t.TempDir()

	client, err := edgar.NewClient(edgar.Config{
		DataURL:       srv.URL,
		ArchivesURL:   srv.URL,
		UserAgent:     testAgent,
		StagingDir:    staging,
		RateLimit:     1000,
		IncludeAmends: amends,
	})
	require.NoError(t, err)

	return client, staging
}

func year(y int) (time.Time, time.Time) {
	return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(y, 12, 31, 0, 0, 0, 0, time.UTC)
}

func TestClient_GetFiltersByFormAndDate(t *testing.T) {
	t.Parallel()

	fake := &fakeEDGAR{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client, staging := newClient(t, srv, false)
	after, before := year(2021)

	saved, err := client.Get(context.Background(), "10-K", "320193", after, before)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	path := filepath.Join(staging, "0000320193", "10-K", "0000320193-21-000105", edgar.SubmissionFile)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/Archives/edgar/data/320193/000032019321000105/0000320193-21-000105.txt")

	for _, agent := range fake.agents {
		assert.Equal(t, testAgent, agent)
	}

	assert.NotContains(t, fake.paths, "/submissions/CIK0000320193-submissions-001.json",
		"older page outside the range is not fetched")
}

func TestClient_GetIncludesAmendmentsWhenEnabled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer((&fakeEDGAR{}).handler(t))
	t.Cleanup(srv.Close)

	client, staging := newClient(t, srv, true)
	after, before := year(2021)

	saved, err := client.Get(context.Background(), "10-K", "0000320193", after, before)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	entries, err := os.ReadDir(filepath.Join(staging, "0000320193", "10-K"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestClient_GetReadsOlderPages(t *testing.T) {
	t.Parallel()

	fake := &fakeEDGAR{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client, staging := newClient(t, srv, false)
	after, before := year(1996)

	saved, err := client.Get(context.Background(), "10-K", "320193", after, before)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.FileExists(t, filepath.Join(staging, "0000320193", "10-K", "0000320193-96-000023", edgar.SubmissionFile))
	assert.Contains(t, fake.paths, "/submissions/CIK0000320193-submissions-001.json")
}

func TestClient_NoFilingsCreatesNoFolder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer((&fakeEDGAR{}).handler(t))
	t.Cleanup(srv.Close)

	client, _ := newClient(t, srv, false)
	after, before := year(2015)

	saved, err := client.Get(context.Background(), "10-K", "320193", after, before)
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.NoDirExists(t, client.CompanyDir("0000320193"))
}

func TestClient_UnknownCompanyIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer((&fakeEDGAR{}).handler(t))
	t.Cleanup(srv.Close)

	client, _ := newClient(t, srv, false)
	after, before := year(2021)

	saved, err := client.Get(context.Background(), "10-K", "0000000001", after, before)
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.NoDirExists(t, client.CompanyDir("0000000001"))
}

func TestClient_ServerErrorIsTyped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client, _ := newClient(t, srv, false)
	after, before := year(2021)

	_, err := client.Get(context.Background(), "10-K", "320193", after, before)
	require.Error(t, err)

	var httpErr *edgar.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := edgar.NewClient(edgar.Config{StagingDir: "x"})
	require.ErrorIs(t, err, edgar.ErrUserAgent)

	_, err = edgar.NewClient(edgar.Config{UserAgent: testAgent})
	require.ErrorIs(t, err, edgar.ErrStagingDir)

	_, err = edgar.NewClient(edgar.Config{UserAgent: testAgent, StagingDir: "x", RateLimit: -1})
	require.ErrorIs(t, err, edgar.ErrRateLimit)
}

func TestClient_RejectsBadInput(t *testing.T) {
	t.Parallel()

	client, err := edgar.NewClient(edgar.Config{UserAgent: testAgent, StagingDir: t.TempDir()})
	require.NoError(t, err)

	after, before := year(2021)

	_, err = client.Get(context.Background(), "10-K", "AAPL", after, before)
	require.Error(t, err)

	_, err = client.Get(context.Background(), "10-K", "320193", before, after)
	require.ErrorIs(t, err, edgar.ErrDateRange)
}

func sizedArchive(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/submissions/CIK0000320193.json":
			_, _ = w.Write([]byte(submissionsDoc))
		case strings.HasPrefix(r.URL.Path, "/Archives/"):
			_, _ = w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestClient_OversizedDocumentIsRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(sizedArchive(strings.Repeat("x", 17)))
	t.Cleanup(srv.Close)

	staging := t.TempDir()
	client, err := edgar.NewClient(edgar.Config{
		DataURL:          srv.URL,
		ArchivesURL:      srv.URL,
		UserAgent:        testAgent,
		StagingDir:       staging,
		RateLimit:        1000,
		MaxDocumentBytes: 16,
	})
	require.NoError(t, err)

	after, before := year(2021)

	_, err = client.Get(context.Background(), "10-K", "320193", after, before)
	require.ErrorIs(t, err, edgar.ErrDocumentTooLarge)

	walkErr := filepath.WalkDir(staging, func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		assert.NotContains(t, d.Name(), edgar.SubmissionFile, path)

		return nil
	})
	require.NoError(t, walkErr)
}

func TestClient_DocumentAtSizeCapIsSaved(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(sizedArchive(strings.Repeat("x", 16)))
	t.Cleanup(srv.Close)

	client, err := edgar.NewClient(edgar.Config{
		DataURL:          srv.URL,
		ArchivesURL:      srv.URL,
		UserAgent:        testAgent,
		StagingDir:       t.TempDir(),
		RateLimit:        1000,
		MaxDocumentBytes: 16,
	})
	require.NoError(t, err)

	after, before := year(2021)

	saved, err := client.Get(context.Background(), "10-K", "320193", after, before)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
}
