package ingest

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/classify"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

const (
	// placeholderSystem marks events recorded without an actor.
	placeholderSystem = "system"
	// placeholderUnknown marks actor/tenant detail that could not be
	// resolved at ingestion time.
	placeholderUnknown = "unknown"

	// directoryLookupTimeout bounds the best-effort enrichment lookup so
	// a slow directory never delays the producing operation noticeably.
	directoryLookupTimeout = 500 * time.Millisecond
)

var _ interfaces.Recorder = (*Service)(nil)

// Options configures the ingestion service.
type Options struct {
	// QueueSize bounds the async dispatch queue.
	QueueSize int
	// RetryMaxAttempts bounds persistence retries per event.
	RetryMaxAttempts int
	// RetryInitialInterval is the first backoff interval.
	RetryInitialInterval time.Duration
}

func (o *Options) normalize() {
	if o.QueueSize < 1 {
		o.QueueSize = 1024
	}
	if o.RetryMaxAttempts < 0 {
		o.RetryMaxAttempts = 0
	}
	if o.RetryInitialInterval <= 0 {
		o.RetryInitialInterval = 100 * time.Millisecond
	}
}

// Service builds complete audit event records and persists them via the
// event store. It implements the Recorder producer contract: recording
// never fails or delays the caller's primary operation.
type Service struct {
	store      interfaces.EventStore
	directory  interfaces.Directory // nil when no directory is wired
	dispatcher *dispatcher
	opts       Options
	logger     zerolog.Logger
}

// NewService creates the ingestion service and starts its dispatcher.
// directory may be nil; enrichment then relies on caller-supplied detail.
func NewService(store interfaces.EventStore, directory interfaces.Directory, opts Options) *Service {
	opts.normalize()
	s := &Service{
		store:     store,
		directory: directory,
		opts:      opts,
		logger:    log.With().Str("component", "audit_ingest").Logger(),
	}
	s.dispatcher = newDispatcher(opts.QueueSize, s.persistAbsorbing)
	return s
}

// Record assembles an event and dispatches it for background
// persistence. It returns the assembled record immediately and never
// errors: persistence failures are retried, then logged and dropped.
func (s *Service) Record(ctx context.Context, req interfaces.RecordRequest) *types.AuditEvent {
	event := s.build(ctx, req)
	s.dispatcher.enqueue(event)
	return event
}

// RecordSync assembles and persists an event synchronously. The manual
// record admin surface uses it because it must return the persisted
// event; unlike Record, persistence failure is surfaced.
func (s *Service) RecordSync(ctx context.Context, req interfaces.RecordRequest) (*types.AuditEvent, error) {
	event := s.build(ctx, req)
	if err := s.persist(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Close drains the dispatch queue and stops the worker.
func (s *Service) Close(ctx context.Context) error {
	return s.dispatcher.close(ctx)
}

// build assembles the complete record: caller-supplied detail first,
// context-attached detail second, best-effort directory lookup last.
func (s *Service) build(ctx context.Context, req interfaces.RecordRequest) *types.AuditEvent {
	category, severity := classify.Classify(req.Action, req.Override)

	event := &types.AuditEvent{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		UserID:      req.ActorID,
		UserEmail:   req.ActorEmail,
		UserName:    req.ActorName,
		UserRole:    req.ActorRole,
		CompanyID:   req.TenantID,
		CompanyName: req.TenantName,
		Action:      req.Action,
		Category:    category,
		Severity:    severity,
		Description: req.Description,
		Status:      req.Status,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		Device:      req.Device,
		Location:    req.Location,
		SessionID:   req.SessionID,
		RequestID:   req.RequestID,
		Metadata:    req.Metadata,
	}
	if event.Status == "" {
		event.Status = types.StatusSuccess
	}

	s.enrichActor(ctx, event)
	s.enrichTenant(ctx, event)
	s.enrichRequest(ctx, event)
	return event
}

func (s *Service) enrichActor(ctx context.Context, event *types.AuditEvent) {
	if actor, ok := ActorFromContext(ctx); ok {
		if event.UserID == "" {
			event.UserID = actor.ID
		}
		if event.UserEmail == "" {
			event.UserEmail = actor.Email
		}
		if event.UserName == "" {
			event.UserName = actor.Name
		}
		if event.UserRole == "" {
			event.UserRole = actor.Role
		}
	}

	if event.UserID == "" {
		// Actions without an actor are system actions.
		if event.UserName == "" {
			event.UserName = placeholderSystem
		}
		if event.UserRole == "" {
			event.UserRole = placeholderSystem
		}
		return
	}

	if event.UserEmail != "" && event.UserName != "" {
		return
	}
	if s.directory != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, directoryLookupTimeout)
		defer cancel()
		if user, err := s.directory.LookupUser(lookupCtx, event.UserID); err == nil && user != nil {
			if event.UserEmail == "" {
				event.UserEmail = user.Email
			}
			if event.UserName == "" {
				event.UserName = user.Name
			}
			if event.UserRole == "" {
				event.UserRole = user.Role
			}
			return
		} else if err != nil {
			s.logger.Debug().
				Err(err).
				Str("userId", event.UserID).
				Msg("Actor directory lookup failed, using placeholders")
		}
	}
	if event.UserName == "" {
		event.UserName = placeholderUnknown
	}
}

func (s *Service) enrichTenant(ctx context.Context, event *types.AuditEvent) {
	if tenant, ok := TenantFromContext(ctx); ok {
		if event.CompanyID == "" {
			event.CompanyID = tenant.ID
		}
		if event.CompanyName == "" {
			event.CompanyName = tenant.Name
		}
	}

	if event.CompanyID == "" || event.CompanyName != "" {
		return
	}
	if s.directory != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, directoryLookupTimeout)
		defer cancel()
		if tenant, err := s.directory.LookupTenant(lookupCtx, event.CompanyID); err == nil && tenant != nil {
			event.CompanyName = tenant.Name
			return
		} else if err != nil {
			s.logger.Debug().
				Err(err).
				Str("companyId", event.CompanyID).
				Msg("Tenant directory lookup failed, using placeholder")
		}
	}
	event.CompanyName = placeholderUnknown
}

func (s *Service) enrichRequest(ctx context.Context, event *types.AuditEvent) {
	info, ok := RequestInfoFromContext(ctx)
	if !ok {
		return
	}
	if event.IPAddress == "" {
		event.IPAddress = info.IPAddress
	}
	if event.UserAgent == "" {
		event.UserAgent = info.UserAgent
	}
	if event.Device == "" {
		event.Device = info.Device
	}
	if event.Location == "" {
		event.Location = info.Location
	}
	if event.SessionID == "" {
		event.SessionID = info.SessionID
	}
	if event.RequestID == "" {
		event.RequestID = info.RequestID
	}
}

// persist writes one event with bounded exponential backoff.
func (s *Service) persist(ctx context.Context, event *types.AuditEvent) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.RetryInitialInterval

	operation := func() error {
		return s.store.Insert(ctx, event)
	}
	return backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(s.opts.RetryMaxAttempts)))
}

// persistAbsorbing is the dispatcher's persist hook: it retries, then
// logs the failure and drops the event. Observability must not become a
// point of failure for the system it observes.
func (s *Service) persistAbsorbing(ctx context.Context, event *types.AuditEvent) {
	if err := s.persist(ctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("eventId", event.ID).
			Str("action", event.Action).
			Msg("Audit event dropped after exhausting persistence retries")
	}
}
