// Package pipeline runs a company-year fetch end to end: retrieve filings
// from EDGAR, merge them into the company folder, clean every file and
// publish it. Every failure is turned into a Result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/edgarvault/internal/filing"
	"github.com/Sumatoshi-tech/edgarvault/internal/observability"
	"github.com/Sumatoshi-tech/edgarvault/internal/storage"
)

// Retention decides what happens to a local file once it is uploaded.
type Retention string

// Retention policies.
const (
	RetainKeep   Retention = "keep"
	RetainDelete Retention = "delete"
)

// ErrUnknownRetention is returned for a retention name other than keep or delete.
var ErrUnknownRetention = errors.New("unknown retention policy")

// ParseRetention validates a retention name.
func ParseRetention(name string) (Retention, error) {
	switch Retention(name) {
	case RetainKeep, RetainDelete:
		return Retention(name), nil
	case "":
		return RetainKeep, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRetention, name)
	}
}

// Stage names used for spans and metrics.
const (
	OpPipeline = "pipeline"
	OpRetrieve = "retrieve"
	OpMerge    = "merge"
	OpClean    = "clean"
	OpPublish  = "publish"
)

// runMu serializes pipelines in this process: they share the staging area.
var runMu sync.Mutex

// Retriever fetches one company-year into the staging area.
type Retriever interface {
	Retrieve(ctx context.Context, cik string, year int) filing.Outcome
}

// Cleaner rewrites a file in place.
type Cleaner interface {
	CleanFile(path string) error
}

// Publisher uploads a local file.
type Publisher interface {
	Publish(ctx context.Context, localPath string, ref storage.Ref) (storage.Artifact, error)
}

// Pipeline orchestrates one fetch.
type Pipeline struct {
	retriever Retriever
	cleaner   Cleaner
	publisher Publisher
	staging   string
	category  string
	retention Retention
	timeout   time.Duration

	tracer  trace.Tracer
	metrics *observability.REDMetrics
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRetention sets the local file policy after upload.
func WithRetention(r Retention) Option {
	return func(p *Pipeline) {
		p.retention = r
	}
}

// WithCategory sets the first object key segment.
func WithCategory(category string) Option {
	return func(p *Pipeline) {
		if category != "" {
			p.category = category
		}
	}
}

// WithTimeout bounds a whole run. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithTracer sets the tracer for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithMetrics records stage RED metrics.
func WithMetrics(m *observability.REDMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New assembles a Pipeline. staging is the root shared with the retriever.
func New(retriever Retriever, cleaner Cleaner, publisher Publisher, staging string, opts ...Option) *Pipeline {
	p := &Pipeline{
		retriever: retriever,
		cleaner:   cleaner,
		publisher: publisher,
		staging:   staging,
		category:  storage.DefaultCategory,
		retention: RetainKeep,
		tracer:    nooptrace.NewTracerProvider().Tracer("pipeline"),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// CompanyFolder returns the name-keyed folder filings are merged into.
func (p *Pipeline) CompanyFolder(companyName string) string {
	return filepath.Join(p.staging, storage.SafeName(companyName))
}

// Submit runs req as a single background unit and delivers its Result on
// the returned channel, which is closed afterwards.
func (p *Pipeline) Submit(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		out <- p.Run(ctx, req)
	}()

	return out
}

// Run executes retrieve, merge, clean and publish for req. It never panics
// past its boundary and never returns an error: failures become a Result
// with StatusError and the underlying message.
func (p *Pipeline) Run(ctx context.Context, req Request) (res Result) {
	runMu.Lock()
	defer runMu.Unlock()

	if p.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "cik", req.CIK, "company", req.CompanyName, "year", req.Year)

	ctx, span := p.tracer.Start(ctx, "edgarvault."+OpPipeline, trace.WithAttributes(
		attribute.String("edgar.cik", req.CIK),
		attribute.Int("edgar.year", req.Year),
		attribute.String("run.id", runID),
	))
	defer span.End()

	start := time.Now()
	doneInflight := p.metrics.TrackInflight(ctx, OpPipeline)

	defer func() {
		if r := recover(); r != nil {
			res = failed(req, fmt.Errorf("%v", r))
		}

		res.RunID = runID
		doneInflight()

		status := observability.StatusOK
		if res.Status == StatusError {
			status = observability.StatusError

			span.SetStatus(codes.Error, res.Message)
		}

		span.SetAttributes(attribute.String("pipeline.status", string(res.Status)))
		p.metrics.RecordRequest(ctx, OpPipeline, status, time.Since(start))
		logger.InfoContext(ctx, "fetch finished",
			"status", string(res.Status), "artifacts", len(res.Artifacts), "duration", time.Since(start))
	}()

	logger.InfoContext(ctx, "fetch started")

	return p.run(ctx, req, logger)
}

func (p *Pipeline) run(ctx context.Context, req Request, logger *slog.Logger) Result {
	var outcome filing.Outcome

	_ = p.stage(ctx, OpRetrieve, func(ctx context.Context) error {
		outcome = p.retriever.Retrieve(ctx, req.CIK, req.Year)

		return outcome.Err
	})

	switch outcome.Status {
	case filing.Failed:
		return failed(req, outcome.Err)
	case filing.NotFound:
		return notFound(req)
	}

	// Only files deposited by this run are published; the company folder
	// may already hold earlier years.
	files, err := filing.Files(outcome.Folder)
	if err != nil {
		return failed(req, err)
	}

	if len(files) == 0 {
		removeErr := os.Remove(outcome.Folder)
		if removeErr != nil {
			logger.WarnContext(ctx, "empty staging folder not removed", "error", removeErr)
		}

		return notFound(req)
	}

	dest := p.CompanyFolder(req.CompanyName)

	mergeErr := p.stage(ctx, OpMerge, func(context.Context) error {
		return filing.Merge(outcome.Folder, dest)
	})
	if mergeErr != nil {
		return failed(req, mergeErr)
	}

	names := objectNames(files)
	artifacts := make([]storage.Artifact, 0, len(files))

	for _, rel := range files {
		local := filepath.Join(dest, filepath.FromSlash(rel))

		cleanErr := p.stage(ctx, OpClean, func(context.Context) error {
			return p.cleaner.CleanFile(local)
		})
		if cleanErr != nil {
			res := failed(req, cleanErr)
			res.Artifacts = artifacts

			return res
		}

		var art storage.Artifact

		publishErr := p.stage(ctx, OpPublish, func(ctx context.Context) error {
			var pubErr error

			art, pubErr = p.publisher.Publish(ctx, local, storage.Ref{
				Category:    p.category,
				CompanyName: req.CompanyName,
				CIK:         req.CIK,
				Year:        req.Year,
				Filename:    names[rel],
			})

			return pubErr
		})
		if publishErr != nil {
			res := failed(req, publishErr)
			res.Artifacts = artifacts

			return res
		}

		logger.DebugContext(ctx, "artifact published", "key", art.Key, "size", art.Size)

		if p.retention == RetainDelete {
			removeErr := os.Remove(local)
			if removeErr != nil {
				logger.WarnContext(ctx, "local copy not removed", "path", local, "error", removeErr)
			} else {
				art.LocalPath = ""
			}
		}

		artifacts = append(artifacts, art)
	}

	return uploaded(req, artifacts)
}

// stage wraps fn in a span and RED metrics for op.
func (p *Pipeline) stage(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "edgarvault."+op)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	p.metrics.RecordRequest(ctx, op, status, time.Since(start))

	return err
}

// objectNames picks the key filename for each relative path: its base
// name, prefixed by the parent folder when several files share a base name.
func objectNames(files []string) map[string]string {
	counts := make(map[string]int, len(files))
	for _, rel := range files {
		counts[path.Base(rel)]++
	}

	names := make(map[string]string, len(files))

	for _, rel := range files {
		base := path.Base(rel)
		if counts[base] > 1 {
			if parent := path.Base(path.Dir(rel)); parent != "." && parent != "/" {
				base = parent + "_" + base
			}
		}

		names[rel] = base
	}

	return names
}
