package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"DisasterTriage/internal/classifier"
	"DisasterTriage/internal/collector"
	"DisasterTriage/internal/config"
	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/entities"
	"DisasterTriage/internal/geo"
	"DisasterTriage/internal/httpapi"
	"DisasterTriage/internal/infrastructure/natsbus"
	"DisasterTriage/internal/infrastructure/ner"
	"DisasterTriage/internal/infrastructure/scheduler"
	"DisasterTriage/internal/infrastructure/sources"
	"DisasterTriage/internal/infrastructure/storage"
	"DisasterTriage/internal/infrastructure/telegram"
	"DisasterTriage/internal/logging"
	"DisasterTriage/internal/metrics"
	"DisasterTriage/internal/ports"
	"DisasterTriage/internal/sentiment"
	"DisasterTriage/internal/triage"
	"DisasterTriage/internal/usecase"
)

// defaultLookback bounds collection to the window simulated and live
// sources report on.
const defaultLookback = 48 * time.Hour

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	recorder   *metrics.Recorder
	pipeline   *triage.Pipeline
	repository ports.RecordRepository
	ingestor   *usecase.Ingestor
	closers    []io.Closer
}

// Options selects which driven adapters New opens. The triage pipeline is
// always built.
type Options struct {
	Storage  bool
	Delivery bool
}

// New builds the application. Storage opens the database and runs
// migrations; Delivery connects Telegram and NATS when configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger, recorder: metrics.NewRecorder()}

	pipeline, err := BuildPipeline(cfg, baseLogger, a.recorder)
	if err != nil {
		return nil, err
	}
	a.pipeline = pipeline

	deps := usecase.IngestDeps{
		Triage:   pipeline,
		Logger:   baseLogger,
		Lookback: defaultLookback,
		Source:   BuildSource(cfg, baseLogger),
	}

	if opts.Storage {
		db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		if err := storage.Migrate(db, cfg.Database.Driver); err != nil {
			_ = a.Close()
			return nil, err
		}
		a.repository = storage.NewSQLRepository(db, cfg.Database.Driver)
		deps.Repository = a.repository
	}

	if opts.Delivery {
		if err := a.wireDelivery(&deps); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	ingestor, err := usecase.NewIngestor(deps)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.ingestor = ingestor
	return a, nil
}

func (a *Application) wireDelivery(deps *usecase.IngestDeps) error {
	tg := a.cfg.Notifications.Telegram
	if tg.BotToken != "" && tg.ChatID != "" {
		notifier, err := telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.RatePerSecond)
		if err != nil {
			return err
		}
		level, err := domain.ParseUrgencyLevel(tg.MinUrgency)
		if err != nil {
			return fmt.Errorf("telegram min urgency: %w", err)
		}
		deps.Notifier = notifier
		deps.MinAlertLevel = level
	}

	if a.cfg.NATS.URL != "" {
		conn, err := natsbus.Connect(a.cfg.NATS.URL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, closerFunc(func() error { return conn.Drain() }))
		deps.Publisher = natsbus.NewPublisher(conn, a.cfg.NATS.Subject)
	}
	return nil
}

// BuildPipeline assembles scorer, classifier, extractor and resolver from
// config. A stored model artifact is loaded when present; a supplied corpus
// is fitted eagerly; otherwise the classifier bootstraps on first use.
func BuildPipeline(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*triage.Pipeline, error) {
	lex := sentiment.LoadLexiconOrDefault(cfg.Triage.LexiconPath, logger)
	scorer, err := sentiment.NewScorerForMethod(domain.SentimentMethod(cfg.Triage.SentimentMethod), lex)
	if err != nil {
		return nil, err
	}

	algorithm, err := classifier.ParseAlgorithm(cfg.Triage.Algorithm)
	if err != nil {
		return nil, err
	}
	clsOpts := classifier.Options{Algorithm: algorithm, Seed: cfg.Triage.Seed, Logger: logger}
	var observer triage.Observer
	if recorder != nil {
		clsOpts.OnFit = recorder.ObserveFit
		observer = recorder
	}
	cls, err := classifier.New(clsOpts)
	if err != nil {
		return nil, err
	}
	if err := prepareClassifier(cls, cfg.Triage, logger); err != nil {
		return nil, err
	}

	providers := []entities.NERProvider{}
	if cfg.NER.Endpoint != "" {
		providers = append(providers, ner.NewClient(cfg.NER.Endpoint, "", cfg.NER.Timeout).Providers(cfg.NER.Models...)...)
	}
	providers = append(providers, entities.RuleNER{})
	extractor := entities.NewExtractor(entities.NewFallbackNER(logger, providers...), entities.WithLogger(logger))

	geoCfg := geo.DefaultConfig()
	geoCfg.Box = geo.BoundingBox{MinLat: cfg.Geo.MinLat, MaxLat: cfg.Geo.MaxLat, MinLon: cfg.Geo.MinLon, MaxLon: cfg.Geo.MaxLon}
	geoCfg.CenterLat, geoCfg.CenterLon = cfg.Geo.CenterLat, cfg.Geo.CenterLon
	geoCfg.Jitter = cfg.Geo.Jitter
	geoCfg.Seed = cfg.Triage.Seed
	if cfg.Geo.GazetteerPath != "" {
		gaz, err := geo.LoadGazetteer(cfg.Geo.GazetteerPath)
		if err != nil {
			return nil, err
		}
		geoCfg.Gazetteer = gaz
	}

	return triage.New(triage.Deps{
		Scorer:     scorer,
		Classifier: cls,
		Extractor:  extractor,
		Resolver:   geo.NewResolver(geoCfg),
		Logger:     logger,
		Observer:   observer,
		Workers:    cfg.Triage.Workers,
	})
}

func prepareClassifier(cls *classifier.Classifier, cfg config.TriageConfig, logger *slog.Logger) error {
	if cfg.ModelPath != "" {
		if _, err := os.Stat(cfg.ModelPath); err == nil {
			if err := cls.Load(cfg.ModelPath); err != nil {
				return err
			}
			logger.Info("classifier model loaded", "path", cfg.ModelPath)
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat model %s: %w", cfg.ModelPath, err)
		}
	}
	if cfg.CorpusPath != "" {
		corpus, err := classifier.LoadCorpus(cfg.CorpusPath)
		if err != nil {
			return err
		}
		if _, err := cls.Fit(corpus, ""); err != nil {
			return err
		}
	}
	return nil
}

// BuildSource registers every collector strategy and binds configured sites.
func BuildSource(cfg config.Config, logger *slog.Logger) *sources.MultiSiteSource {
	registry := collector.NewRegistry(
		sources.NewFeedCollector(nil),
		sources.NewHTMLCollector(nil),
		sources.NewSimulatedCollector(cfg.Triage.Seed),
		sources.NewJSONLCollector(),
	)
	return sources.NewMultiSiteSource(registry, cfg.Sites, logger)
}

// Pipeline returns the triage pipeline.
func (a *Application) Pipeline() *triage.Pipeline { return a.pipeline }

// Repository returns the record store, nil unless opened with Storage.
func (a *Application) Repository() ports.RecordRepository { return a.repository }

// Metrics returns the Prometheus recorder.
func (a *Application) Metrics() *metrics.Recorder { return a.recorder }

// Run performs a single ingestion run.
func (a *Application) Run(ctx context.Context) (usecase.IngestReport, error) {
	return a.ingestor.RunOnce(ctx)
}

// Watch runs ingestion on the configured cron schedule until ctx ends.
func (a *Application) Watch(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), true)
	if err != nil {
		return err
	}
	sched := usecase.NewScheduler(driver, a.ingestor, a.logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("watching", "cron", a.cfg.Scheduler.CronExpression, "next", driver.Next(time.Now()))
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Serve exposes the HTTP API until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	srv, err := httpapi.NewServer(httpapi.Deps{
		Pipeline:   a.pipeline,
		Ingestor:   a.ingestor,
		Repository: a.repository,
		Metrics:    a.recorder.Handler(),
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, a.cfg.HTTP.Addr)
}

// Close releases adapters in reverse order of opening.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
