package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/edgarvault/cmd/edgarvault/commands"
	"github.com/Sumatoshi-tech/edgarvault/internal/config"
	"github.com/Sumatoshi-tech/edgarvault/internal/directory"
	"github.com/Sumatoshi-tech/edgarvault/internal/pipeline"
	"github.com/Sumatoshi-tech/edgarvault/internal/render"
	"github.com/Sumatoshi-tech/edgarvault/internal/search"
	"github.com/Sumatoshi-tech/edgarvault/internal/storage"
)

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"search", "fetch", "shell", "mcp", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "quiet", "no-color", "metrics-addr"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "edgarvault "))
}

func TestFetchUsageErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		args []string
		want error
	}{
		{[]string{"fetch", "--year", "2021"}, commands.ErrNoCompany},
		{[]string{"fetch", "--company", "APPLE INC", "--cik", "0000320193", "--year", "2021"}, commands.ErrBothCompany},
		{[]string{"fetch", "--company", "APPLE INC"}, commands.ErrNoYear},
	}

	for _, tc := range cases {
		root := commands.NewRootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(tc.args)

		require.ErrorIs(t, root.Execute(), tc.want, strings.Join(tc.args, " "))
	}
}

func TestFetchFlags(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	cmd, _, err := root.Find([]string{"fetch"})
	require.NoError(t, err)

	for _, flag := range []string{"company", "cik", "year", "format"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), flag)
	}
}

// fakeService serves a two-company directory and records fetches.
type fakeService struct {
	mode     pipeline.LookupMode
	resolver *search.Resolver
	fetched  []pipeline.Request
}

func newFakeService(mode pipeline.LookupMode) *fakeService {
	dir := directory.New([]directory.Record{
		{Name: "APPLE INC", CIK: "0000320193"},
		{Name: "APPLE HOSPITALITY REIT INC", CIK: "0001418121"},
	})

	return &fakeService{mode: mode, resolver: search.NewResolver(dir)}
}

func (f *fakeService) Search(q string) ([]search.Candidate, error) { return f.resolver.Search(q) }

func (f *fakeService) Resolve(c string) (directory.Record, error) { return f.resolver.Resolve(c) }

func (f *fakeService) LookupCIK(in string) (directory.Record, error) { return f.resolver.LookupCIK(in) }

func (f *fakeService) Years() []int { return []int{2020, 2021, 2022} }

func (f *fakeService) Mode() pipeline.LookupMode { return f.mode }

func (f *fakeService) FetchRecord(_ context.Context, rec directory.Record, year int) (pipeline.Result, error) {
	req := pipeline.Request{CIK: rec.CIK, CompanyName: rec.Name, Year: year}
	f.fetched = append(f.fetched, req)

	if year == 2020 {
		return pipeline.Result{}, errors.New("year out of range")
	}

	return pipeline.Result{
		Request: req,
		Status:  pipeline.StatusUploaded,
		Message: "Downloaded and uploaded 10-K filings for " + rec.Name + " in 2021.",
		URL:     "memory://objects/10-k/key",
	}, nil
}

func runShell(t *testing.T, svc commands.ShellService, input string) string {
	t.Helper()

	var out bytes.Buffer

	r, err := render.New(&out, render.FormatText, true)
	require.NoError(t, err)

	require.NoError(t, commands.RunShell(context.Background(), strings.NewReader(input), &out, svc, r))

	return out.String()
}

func TestShellSearchSelectFetch(t *testing.T) {
	t.Parallel()

	svc := newFakeService(pipeline.LookupAuto)

	out := runShell(t, svc, "apple\n1\n2021\ny\n\n")

	assert.Contains(t, out, "  1) APPLE INC (0000320193)")
	assert.Contains(t, out, "Downloaded and uploaded 10-K filings for APPLE INC in 2021.")
	assert.Contains(t, out, "[Download the cleaned file here.](memory://objects/10-k/key)")
	require.Len(t, svc.fetched, 1)
	assert.Equal(t, pipeline.Request{CIK: "0000320193", CompanyName: "APPLE INC", Year: 2021}, svc.fetched[0])
}

func TestShellIdentifier(t *testing.T) {
	t.Parallel()

	svc := newFakeService(pipeline.LookupAuto)

	out := runShell(t, svc, "0000000001\n0000320193\n2021\n\n")

	assert.Contains(t, out, pipeline.MsgInvalidIdentifier)
	require.Len(t, svc.fetched, 1)
	assert.Equal(t, "APPLE INC", svc.fetched[0].CompanyName)
}

func TestShellRetriesBadSelections(t *testing.T) {
	t.Parallel()

	svc := newFakeService(pipeline.LookupAuto)

	out := runShell(t, svc, "zzz\napple\n9\n2\n1800\n2021\nn\n")

	assert.Contains(t, out, pipeline.MsgNoMatch)
	assert.Equal(t, 2, strings.Count(out, "Invalid selection."))
	assert.Empty(t, svc.fetched)
}

func TestShellFetchErrorKeepsLooping(t *testing.T) {
	t.Parallel()

	svc := newFakeService(pipeline.LookupIdentifier)

	out := runShell(t, svc, "0001418121\n2020\ny\n0001418121\n2021\ny\n")

	assert.Contains(t, out, "year out of range")
	assert.Len(t, svc.fetched, 2)
}

// s3Fake answers bucket checks with 403 until healthy is set, and accepts
// every object upload.
type s3Fake struct {
	healthy     atomic.Bool
	bucketCalls atomic.Int32
	puts        atomic.Int32
}

func (f *s3Fake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		f.bucketCalls.Add(1)

		if !f.healthy.Load() {
			w.WriteHeader(http.StatusForbidden)

			return
		}

		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		f.puts.Add(1)

		_, _ = io.Copy(io.Discard, r.Body)

		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestLazyPublisherRetriesFailedOpen(t *testing.T) {
	t.Parallel()

	fake := &s3Fake{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	pub := commands.NewLazyPublisher(config.StorageConfig{
		Backend:      storage.BackendMinio,
		Endpoint:     srv.URL,
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		Bucket:       "10-k",
		Region:       "us-east-1",
		Secure:       false,
		Category:     "10-k",
		URLMode:      storage.URLModeStatic,
		SignedURLTTL: time.Hour,
		CreateBucket: true,
	}, nil)
	t.Cleanup(func() { _ = pub.Close(context.Background()) })

	local := filepath.Join(t.TempDir(), "full-submission.txt")
	require.NoError(t, os.WriteFile(local, []byte("Annual report"), 0o600))

	ref := storage.Ref{Category: "10-k", CompanyName: "APPLE INC", CIK: "0000320193", Year: 2021}

	_, err := pub.Publish(context.Background(), local, ref)
	require.Error(t, err)
	assert.Zero(t, fake.puts.Load())

	fake.healthy.Store(true)

	art, err := pub.Publish(context.Background(), local, ref)
	require.NoError(t, err)
	assert.Equal(t, "10-k/APPLE_INC/2021/0000320193_2021_full-submission.txt", art.Key)
	assert.Equal(t, int32(2), fake.bucketCalls.Load())
	assert.Equal(t, int32(1), fake.puts.Load())

	_, err = pub.Publish(context.Background(), local, ref)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.bucketCalls.Load(), "a successful open is reused")
}
