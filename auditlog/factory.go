// Package auditlog assembles the audit trail module and exposes its
// public surface: recording, querying, analytics, alerts, annotations,
// export and retention.
package auditlog

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/alerts"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/analytics"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/annotations"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/cache/storage"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/config"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/export"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/ingest"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/jobs"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/query"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/retention"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/store"
)

// Service is the assembled audit trail module.
type Service struct {
	cfg *config.Config

	store       interfaces.EventStore
	recorder    *ingest.Service
	engine      *query.Engine
	analytics   *analytics.Engine
	detector    *alerts.Detector
	annotations *annotations.Store
	exporter    *export.Exporter
	sweeper     *retention.Sweeper
	coordinator *jobs.Coordinator

	memCache    *storage.MemoryAdapter // nil when Redis is used
	sweepCancel context.CancelFunc     // nil until StartSweeper

	logger zerolog.Logger
}

// New assembles the module against MongoDB. It verifies indexes on the
// audit collection before returning. directory may be nil; actor and
// tenant enrichment then relies on caller-supplied detail.
func New(ctx context.Context, cfg *config.Config, db *mongo.Database, directory interfaces.Directory) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eventStore := store.NewMongoStore(db, cfg.Collection)
	if err := eventStore.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return assemble(cfg, eventStore, directory), nil
}

// NewInMemory assembles the module on the embedded in-memory store. Used
// by tests and by deployments that have not wired MongoDB yet.
func NewInMemory(cfg *config.Config, directory interfaces.Directory) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return assemble(cfg, store.NewMemoryStore(), directory), nil
}

func assemble(cfg *config.Config, eventStore interfaces.EventStore, directory interfaces.Directory) *Service {
	s := &Service{
		cfg:         cfg,
		store:       eventStore,
		coordinator: jobs.NewCoordinator(),
		logger:      log.With().Str("component", "auditlog").Logger(),
	}

	var analyticsCache interfaces.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		analyticsCache = storage.NewRedisAdapter(client, "audit")
	} else {
		s.memCache = storage.NewMemoryAdapter()
		analyticsCache = s.memCache
	}

	s.recorder = ingest.NewService(eventStore, directory, ingest.Options{
		QueueSize:            cfg.QueueSize,
		RetryMaxAttempts:     cfg.RetryMaxAttempts,
		RetryInitialInterval: cfg.RetryInitialInterval,
	})
	s.engine = query.NewEngine(eventStore)
	s.analytics = analytics.NewEngine(eventStore, analyticsCache, cfg.CacheTTL)
	s.detector = alerts.NewDetector(s.engine)
	s.annotations = annotations.NewStore(eventStore)
	s.exporter = export.NewExporter(s.engine, cfg.ExportMaxRows, cfg.ExportBatchSize)
	s.sweeper = retention.NewSweeper(eventStore, cfg.SweepBatchSize)
	return s
}

// StartSweeper launches the background retention sweeper using the
// configured interval and retention window. It runs until Close.
func (s *Service) StartSweeper() {
	if s.sweepCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.sweepCancel = cancel
	go s.sweeper.Run(ctx, s.cfg.SweepInterval, s.cfg.RetentionDays)
	s.logger.Info().
		Dur("interval", s.cfg.SweepInterval).
		Int("retentionDays", s.cfg.RetentionDays).
		Msg("Retention sweeper started")
}

// Jobs returns the currently running export and sweep jobs.
func (s *Service) Jobs() []jobs.Job {
	return s.coordinator.Active()
}

// CancelJob cancels one running job by id.
func (s *Service) CancelJob(jobID string) error {
	return s.coordinator.Cancel(jobID)
}

// Close stops the background sweeper, drains the ingestion queue,
// cancels running jobs and releases cache resources. Bounded by ctx.
func (s *Service) Close(ctx context.Context) error {
	if s.sweepCancel != nil {
		s.sweepCancel()
		s.sweepCancel = nil
	}

	drainErr := s.recorder.Close(ctx)
	jobErr := s.coordinator.Shutdown(ctx)

	if s.memCache != nil {
		s.memCache.Shutdown()
	}

	if drainErr != nil {
		return drainErr
	}
	return jobErr
}
