package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Sumatoshi-tech/edgarvault/internal/config"
	"github.com/Sumatoshi-tech/edgarvault/internal/directory"
	"github.com/Sumatoshi-tech/edgarvault/internal/edgar"
	"github.com/Sumatoshi-tech/edgarvault/internal/filing"
	"github.com/Sumatoshi-tech/edgarvault/internal/observability"
	"github.com/Sumatoshi-tech/edgarvault/internal/pipeline"
	"github.com/Sumatoshi-tech/edgarvault/internal/search"
	"github.com/Sumatoshi-tech/edgarvault/internal/storage"
	"github.com/Sumatoshi-tech/edgarvault/pkg/version"
)

// Globals are the root command's persistent flags.
type Globals struct {
	ConfigPath  string
	Verbose     bool
	Quiet       bool
	NoColor     bool
	MetricsAddr string
}

// App is everything a command needs, built once per invocation.
type App struct {
	Config    *config.Config
	Providers observability.Providers
	Logger    *slog.Logger
	Metrics   *observability.REDMetrics
	Service   *pipeline.Service

	closers []func(context.Context) error
}

// Build loads configuration and wires the directory, resolver, EDGAR
// client, object store and pipeline. logOut receives log lines.
func Build(ctx context.Context, g *Globals, mode observability.AppMode, logOut io.Writer) (*App, error) {
	cfg, err := config.LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	if g.MetricsAddr != "" {
		cfg.Telemetry.MetricsAddr = g.MetricsAddr
	}

	app := &App{Config: cfg}

	providers, err := observability.InitWithWriter(observabilityConfig(cfg, g, mode), logOut)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	app.Providers = providers
	app.Logger = providers.Logger
	app.closers = append(app.closers, providers.Shutdown)

	buildErr := app.wire(ctx)
	if buildErr != nil {
		return nil, errors.Join(buildErr, app.Close(context.Background()))
	}

	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	red, err := observability.NewREDMetrics(a.Providers.Meter)
	if err != nil {
		return err
	}

	a.Metrics = red

	if cfg.Telemetry.MetricsAddr != "" {
		ms, startErr := observability.StartMetricsServer(cfg.Telemetry.MetricsAddr, a.Providers.MetricsHandler, a.Logger)
		if startErr != nil {
			return startErr
		}

		a.Logger.Info("serving metrics", "addr", ms.Addr())
		a.closers = append(a.closers, ms.Shutdown)
	}

	format, err := directory.ParseFormat(cfg.Dataset.Format)
	if err != nil {
		return err
	}

	dir, err := directory.Load(ctx, directory.Source{
		URL:       cfg.Dataset.URL,
		Path:      cfg.Dataset.Path,
		Format:    format,
		UserAgent: cfg.EDGAR.UserAgent,
		CachePath: cfg.Dataset.CachePath,
		CacheTTL:  cfg.Dataset.CacheTTL,
		Logger:    a.Logger,
	})
	if err != nil {
		return fmt.Errorf("load company directory: %w", err)
	}

	resolver := search.NewResolver(dir,
		search.WithLimit(cfg.Search.Limit),
		search.WithCacheSize(cfg.Search.CacheSize),
	)

	reg, err := observability.RegisterCacheMetrics(a.Providers.Meter, "search", func() observability.CacheStats {
		s := resolver.Matcher().Stats()

		return observability.CacheStats{Hits: s.Hits, Misses: s.Misses, Evictions: s.Evictions, Entries: s.Entries}
	})
	if err != nil {
		return err
	}

	a.closers = append(a.closers, func(context.Context) error { return reg.Unregister() })

	client, err := edgar.NewClient(edgar.Config{
		DataURL:       cfg.EDGAR.DataURL,
		ArchivesURL:   cfg.EDGAR.ArchivesURL,
		UserAgent:     cfg.EDGAR.UserAgent,
		StagingDir:    cfg.EDGAR.StagingDir,
		RateLimit:     cfg.EDGAR.RateLimit,
		Timeout:       cfg.EDGAR.Timeout,
		IncludeAmends: cfg.EDGAR.IncludeAmends,
	}, edgar.WithLogger(a.Logger))
	if err != nil {
		return err
	}

	retention, err := pipeline.ParseRetention(cfg.Pipeline.Retention)
	if err != nil {
		return err
	}

	mode, err := pipeline.ParseLookupMode(cfg.Pipeline.LookupMode)
	if err != nil {
		return err
	}

	publisher := NewLazyPublisher(cfg.Storage, a.Logger)
	a.closers = append(a.closers, publisher.Close)

	runner := pipeline.New(
		filing.NewRetriever(client, cfg.EDGAR.StagingDir),
		filing.NewCleaner(cfg.Pipeline.RemoveElements...),
		publisher,
		cfg.EDGAR.StagingDir,
		pipeline.WithCategory(cfg.Storage.Category),
		pipeline.WithRetention(retention),
		pipeline.WithTimeout(cfg.Pipeline.Timeout),
		pipeline.WithTracer(a.Providers.Tracer),
		pipeline.WithMetrics(red),
		pipeline.WithLogger(a.Logger),
	)

	a.Service = pipeline.NewService(dir, resolver, runner,
		pipeline.WithLookupMode(mode),
		pipeline.WithYearRange(cfg.Pipeline.MinYear, cfg.Pipeline.MaxYear),
	)

	a.Logger.Debug("company directory ready", "companies", dir.Len(), "lookup_mode", string(mode))

	return nil
}

// Close releases resources in reverse build order.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}

	a.closers = nil

	return errors.Join(errs...)
}

func observabilityConfig(cfg *config.Config, g *Globals, mode observability.AppMode) observability.Config {
	oc := observability.DefaultConfig()
	oc.ServiceVersion = version.Version
	oc.Environment = cfg.Telemetry.Environment
	oc.Mode = mode
	oc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	oc.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	oc.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	oc.SampleRatio = cfg.Telemetry.SampleRatio
	oc.Prometheus = cfg.Telemetry.MetricsAddr != ""
	oc.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	oc.LogJSON = cfg.Logging.Format == "json" || mode == observability.ModeMCP

	switch {
	case g.Verbose:
		oc.LogLevel = slog.LevelDebug
	case g.Quiet:
		oc.LogLevel = slog.LevelError
	}

	return oc
}

// LazyPublisher opens the object store on first use so that commands which
// never upload do not need storage credentials. Only a successful open is
// kept; a failed one is attempted again on the next Publish.
type LazyPublisher struct {
	cfg    config.StorageConfig
	logger *slog.Logger

	mu    sync.Mutex
	store storage.ObjectStore
	pub   *storage.Publisher
}

// NewLazyPublisher returns a publisher for cfg that connects on demand.
func NewLazyPublisher(cfg config.StorageConfig, logger *slog.Logger) *LazyPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &LazyPublisher{cfg: cfg, logger: logger}
}

func (l *LazyPublisher) open(ctx context.Context) (*storage.Publisher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pub != nil {
		return l.pub, nil
	}

	store, err := storage.Open(ctx, storage.Config{
		Backend:         l.cfg.Backend,
		Endpoint:        l.cfg.Endpoint,
		AccessKey:       l.cfg.AccessKey,
		SecretKey:       l.cfg.SecretKey,
		Bucket:          l.cfg.Bucket,
		Region:          l.cfg.Region,
		Secure:          l.cfg.Secure,
		ProjectID:       l.cfg.ProjectID,
		CredentialsFile: l.cfg.CredentialsFile,
		PublicBaseURL:   l.cfg.PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}

	pub, err := storage.NewPublisher(store, l.cfg.Bucket,
		storage.WithURLMode(l.cfg.URLMode),
		storage.WithSignedURLTTL(l.cfg.SignedURLTTL),
	)
	if err != nil {
		return nil, errors.Join(err, closeStore(store))
	}

	if l.cfg.CreateBucket {
		ensureErr := pub.EnsureBucket(ctx)
		if ensureErr != nil {
			return nil, errors.Join(ensureErr, closeStore(store))
		}

		l.logger.Info("bucket ready", "bucket", l.cfg.Bucket)
	}

	l.store, l.pub = store, pub

	return pub, nil
}

// Publish implements pipeline.Publisher.
func (l *LazyPublisher) Publish(ctx context.Context, localPath string, ref storage.Ref) (storage.Artifact, error) {
	pub, err := l.open(ctx)
	if err != nil {
		return storage.Artifact{}, err
	}

	return pub.Publish(ctx, localPath, ref)
}

// Close releases the store if one was opened.
func (l *LazyPublisher) Close(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	store := l.store
	l.store, l.pub = nil, nil

	return closeStore(store)
}

func closeStore(store storage.ObjectStore) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// stderrOrDiscard keeps stdout free for command output.
func stderrOrDiscard(g *Globals) io.Writer {
	if g.Quiet {
		return io.Discard
	}

	return os.Stderr
}
