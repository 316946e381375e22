// Package analytics computes time-bucketed trends, top-N rankings and
// summary counters over the filtered audit trail.
package analytics

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/query"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// DefaultTopLimit is the ranking size when the caller passes none.
const DefaultTopLimit = 10

// Engine runs read-only aggregations. Results tolerate eventual
// consistency with in-flight writes, so they are cached briefly; the
// compliance export path never goes through this engine.
type Engine struct {
	store  interfaces.EventStore
	cache  interfaces.Cache // nil disables caching
	ttl    time.Duration
	logger zerolog.Logger
}

// NewEngine creates an analytics engine. cache may be nil.
func NewEngine(store interfaces.EventStore, cache interfaces.Cache, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = types.DefaultCacheTTL
	}
	return &Engine{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: log.With().Str("component", "audit_analytics").Logger(),
	}
}

// cacheKey derives a stable key from the aggregation kind and its inputs.
func cacheKey(kind string, filter types.Filter, extra string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%+v|%s", filter, extra)
	return fmt.Sprintf("analytics:%s:%x", kind, h.Sum64())
}

func (e *Engine) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if e.cache == nil {
		return false
	}
	if err := e.cache.Get(ctx, key, dest); err != nil {
		return false
	}
	e.logger.Debug().Str("key", key).Msg("Analytics cache hit")
	return true
}

func (e *Engine) toCache(ctx context.Context, key string, value interface{}) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, value, e.ttl); err != nil {
		e.logger.Debug().Err(err).Str("key", key).Msg("Analytics cache write failed")
	}
}

// Trends buckets the filtered subset by the requested interval.
func (e *Engine) Trends(ctx context.Context, filter types.Filter, interval types.Interval) ([]types.TrendBucket, error) {
	if err := query.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if !interval.Valid() {
		return nil, types.NewValidationError("groupBy", fmt.Sprintf("unknown interval %q", interval))
	}

	key := cacheKey("trends", filter, string(interval))
	var cached []types.TrendBucket
	if e.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	buckets, err := e.store.Trends(ctx, filter, interval)
	if err != nil {
		return nil, err
	}
	e.toCache(ctx, key, buckets)
	return buckets, nil
}

// TopActions ranks actions by occurrence, ties broken by most recent
// activity, truncated to limit.
func (e *Engine) TopActions(ctx context.Context, filter types.Filter, limit int) ([]types.ActionCount, error) {
	if err := query.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultTopLimit
	}

	key := cacheKey("topActions", filter, fmt.Sprint(limit))
	var cached []types.ActionCount
	if e.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	actions, err := e.store.TopActions(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	e.toCache(ctx, key, actions)
	return actions, nil
}

// TopActors ranks actors by occurrence with first/last activity.
func (e *Engine) TopActors(ctx context.Context, filter types.Filter, limit int) ([]types.ActorActivity, error) {
	if err := query.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultTopLimit
	}

	key := cacheKey("topActors", filter, fmt.Sprint(limit))
	var cached []types.ActorActivity
	if e.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	actors, err := e.store.TopActors(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	e.toCache(ctx, key, actors)
	return actors, nil
}

// TopTenants ranks tenants by occurrence with first/last activity.
func (e *Engine) TopTenants(ctx context.Context, filter types.Filter, limit int) ([]types.TenantActivity, error) {
	if err := query.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultTopLimit
	}

	key := cacheKey("topTenants", filter, fmt.Sprint(limit))
	var cached []types.TenantActivity
	if e.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	tenants, err := e.store.TopTenants(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	e.toCache(ctx, key, tenants)
	return tenants, nil
}

// SeverityDistribution counts the filtered subset per severity.
func (e *Engine) SeverityDistribution(ctx context.Context, filter types.Filter) ([]types.SeverityCount, error) {
	if err := query.ValidateFilter(filter); err != nil {
		return nil, err
	}

	key := cacheKey("severity", filter, "")
	var cached []types.SeverityCount
	if e.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	counts, err := e.store.SeverityDistribution(ctx, filter)
	if err != nil {
		return nil, err
	}
	e.toCache(ctx, key, counts)
	return counts, nil
}

// Stats computes the summary counters of the admin surface.
func (e *Engine) Stats(ctx context.Context, filter types.Filter) (*types.Stats, error) {
	if err := query.ValidateFilter(filter); err != nil {
		return nil, err
	}

	key := cacheKey("stats", filter, "")
	var cached types.Stats
	if e.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	stats, err := e.store.Stats(ctx, filter)
	if err != nil {
		return nil, err
	}
	e.toCache(ctx, key, stats)
	return stats, nil
}

// Report bundles the full analytics response of the admin surface.
func (e *Engine) Report(ctx context.Context, filter types.Filter, interval types.Interval, limit int) (*types.AnalyticsReport, error) {
	trends, err := e.Trends(ctx, filter, interval)
	if err != nil {
		return nil, err
	}
	topActions, err := e.TopActions(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	insights, err := e.SeverityDistribution(ctx, filter)
	if err != nil {
		return nil, err
	}
	topActors, err := e.TopActors(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	topTenants, err := e.TopTenants(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	return &types.AnalyticsReport{
		ActivityTrends:   trends,
		TopActions:       topActions,
		SecurityInsights: insights,
		TopActors:        topActors,
		TopTenants:       topTenants,
	}, nil
}
