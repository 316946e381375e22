// Package store provides EventStore implementations: MongoDB for
// deployments and an in-memory store for tests and embedded use.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// trendFormats maps an aggregation interval to its $dateToString format.
var trendFormats = map[types.Interval]string{
	types.IntervalHour:  "%Y-%m-%d %H:00",
	types.IntervalDay:   "%Y-%m-%d",
	types.IntervalWeek:  "%G-W%V",
	types.IntervalMonth: "%Y-%m",
}

// MongoStore implements the EventStore on a single MongoDB collection.
// Concurrent appends are delegated to the driver's connection pool; no
// in-process lock is held across store calls.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates an event store on db's collection.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

// EnsureIndexes creates the query indexes used by the filter, analytics
// and retention paths. Safe to call on every startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "companyId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "severity", Value: 1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to ensure audit indexes: %w", err)
	}
	return nil
}

// Insert appends one event.
func (s *MongoStore) Insert(ctx context.Context, event *types.AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if _, err := s.coll.InsertOne(ctx, event); err != nil {
		return &types.PersistenceError{Op: "insert", Err: err}
	}
	return nil
}

// Get retrieves one event by id.
func (s *MongoStore) Get(ctx context.Context, id string) (*types.AuditEvent, error) {
	var event types.AuditEvent
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrEventNotFound
		}
		return nil, &types.PersistenceError{Op: "get", Err: err}
	}
	return &event, nil
}

// Query returns one page of matching events plus the total match count.
func (s *MongoStore) Query(ctx context.Context, filter types.Filter, page types.Pagination) ([]*types.AuditEvent, int64, error) {
	page.Normalize()
	match := filterToMatch(filter)

	total, err := s.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, &types.PersistenceError{Op: "count", Err: err}
	}

	opts := options.Find().
		SetSort(sortDoc(page)).
		SetSkip(int64(page.Page-1) * int64(page.Limit)).
		SetLimit(int64(page.Limit))

	cursor, err := s.coll.Find(ctx, match, opts)
	if err != nil {
		return nil, 0, &types.PersistenceError{Op: "query", Err: err}
	}
	defer cursor.Close(ctx)

	var events []*types.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, &types.PersistenceError{Op: "query", Err: err}
	}
	return events, total, nil
}

// Seek returns up to limit events after the cursor position, ordered by
// (timestamp asc, _id asc).
func (s *MongoStore) Seek(ctx context.Context, filter types.Filter, cursor types.Cursor, limit int) ([]*types.AuditEvent, error) {
	match := seekMatch(filterToMatch(filter), cursor)
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, match, opts)
	if err != nil {
		return nil, &types.PersistenceError{Op: "seek", Err: err}
	}
	defer cur.Close(ctx)

	var events []*types.AuditEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, &types.PersistenceError{Op: "seek", Err: err}
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *MongoStore) Count(ctx context.Context, filter types.Filter) (int64, error) {
	total, err := s.coll.CountDocuments(ctx, filterToMatch(filter))
	if err != nil {
		return 0, &types.PersistenceError{Op: "count", Err: err}
	}
	return total, nil
}

// AppendAnnotation appends one annotation to an existing event.
func (s *MongoStore) AppendAnnotation(ctx context.Context, eventID string, annotation types.Annotation) error {
	res, err := s.coll.UpdateOne(
		ctx,
		bson.M{"_id": eventID},
		bson.M{"$push": bson.M{"annotations": annotation}},
	)
	if err != nil {
		return &types.PersistenceError{Op: "annotate", Err: err}
	}
	if res.MatchedCount == 0 {
		return types.ErrEventNotFound
	}
	return nil
}

// DeleteByFilter removes matching events in bounded batches so a purge
// never holds a store-wide lock during ingestion or queries.
func (s *MongoStore) DeleteByFilter(ctx context.Context, filter types.Filter, batchSize int) (int64, error) {
	match := filterToMatch(filter)
	var deleted int64

	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		opts := options.Find().
			SetProjection(bson.M{"_id": 1}).
			SetLimit(int64(batchSize))
		cur, err := s.coll.Find(ctx, match, opts)
		if err != nil {
			return deleted, &types.PersistenceError{Op: "delete", Err: err}
		}

		var docs []struct {
			ID string `bson:"_id"`
		}
		if err := cur.All(ctx, &docs); err != nil {
			return deleted, &types.PersistenceError{Op: "delete", Err: err}
		}
		if len(docs) == 0 {
			return deleted, nil
		}

		ids := make(bson.A, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		res, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return deleted, &types.PersistenceError{Op: "delete", Err: err}
		}
		deleted += res.DeletedCount

		log.Debug().
			Str("component", "mongo_store").
			Int64("batchDeleted", res.DeletedCount).
			Int64("totalDeleted", deleted).
			Msg("Deleted audit event batch")

		if len(docs) < batchSize {
			return deleted, nil
		}
	}
}

// Trends buckets matching events by the given interval.
func (s *MongoStore) Trends(ctx context.Context, filter types.Filter, interval types.Interval) ([]types.TrendBucket, error) {
	format, ok := trendFormats[interval]
	if !ok {
		return nil, types.NewValidationError("groupBy", fmt.Sprintf("unknown interval %q", interval))
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filterToMatch(filter)}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": format, "date": "$timestamp"}},
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	var buckets []types.TrendBucket
	if err := s.aggregate(ctx, pipeline, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// TopActions ranks actions by occurrence, ties broken by most recent.
func (s *MongoStore) TopActions(ctx context.Context, filter types.Filter, limit int) ([]types.ActionCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filterToMatch(filter)}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      "$action",
			"count":    bson.M{"$sum": 1},
			"lastSeen": bson.M{"$max": "$timestamp"},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "lastSeen", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	var actions []types.ActionCount
	if err := s.aggregate(ctx, pipeline, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// TopActors ranks actors by occurrence with first/last activity. System
// events without an actor are excluded.
func (s *MongoStore) TopActors(ctx context.Context, filter types.Filter, limit int) ([]types.ActorActivity, error) {
	match := filterToMatch(filter)
	match["userId"] = bson.M{"$exists": true, "$nin": bson.A{"", nil}}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.M{"timestamp": 1}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":       "$userId",
			"userName":  bson.M{"$last": "$userName"},
			"userEmail": bson.M{"$last": "$userEmail"},
			"count":     bson.M{"$sum": 1},
			"firstSeen": bson.M{"$min": "$timestamp"},
			"lastSeen":  bson.M{"$max": "$timestamp"},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "lastSeen", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	var actors []types.ActorActivity
	if err := s.aggregate(ctx, pipeline, &actors); err != nil {
		return nil, err
	}
	return actors, nil
}

// TopTenants ranks tenants by occurrence with first/last activity.
func (s *MongoStore) TopTenants(ctx context.Context, filter types.Filter, limit int) ([]types.TenantActivity, error) {
	match := filterToMatch(filter)
	match["companyId"] = bson.M{"$exists": true, "$nin": bson.A{"", nil}}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.M{"timestamp": 1}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":         "$companyId",
			"companyName": bson.M{"$last": "$companyName"},
			"count":       bson.M{"$sum": 1},
			"firstSeen":   bson.M{"$min": "$timestamp"},
			"lastSeen":    bson.M{"$max": "$timestamp"},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "lastSeen", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	var tenants []types.TenantActivity
	if err := s.aggregate(ctx, pipeline, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// SeverityDistribution counts matching events per severity.
func (s *MongoStore) SeverityDistribution(ctx context.Context, filter types.Filter) ([]types.SeverityCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filterToMatch(filter)}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$severity",
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	var counts []types.SeverityCount
	if err := s.aggregate(ctx, pipeline, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// facetCount is the shape of one $facet counter output.
type facetCount struct {
	N int64 `bson:"n"`
}

func facetValue(docs []facetCount) int64 {
	if len(docs) == 0 {
		return 0
	}
	return docs[0].N
}

// Stats computes the summary counters in a single $facet round trip.
func (s *MongoStore) Stats(ctx context.Context, filter types.Filter) (*types.Stats, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filterToMatch(filter)}},
		bson.D{{Key: "$facet", Value: bson.M{
			"totalLogs":    bson.A{bson.M{"$count": "n"}},
			"criticalLogs": bson.A{bson.M{"$match": bson.M{"severity": types.SeverityCritical}}, bson.M{"$count": "n"}},
			"securityLogs": bson.A{bson.M{"$match": bson.M{"category": types.CategorySecurity}}, bson.M{"$count": "n"}},
			"failedLogs":   bson.A{bson.M{"$match": bson.M{"status": types.StatusFailed}}, bson.M{"$count": "n"}},
			"adminLogs":    bson.A{bson.M{"$match": bson.M{"category": types.CategoryAdmin}}, bson.M{"$count": "n"}},
			"userLogs":     bson.A{bson.M{"$match": bson.M{"category": types.CategoryUser}}, bson.M{"$count": "n"}},
		}}},
	}

	var out []struct {
		TotalLogs    []facetCount `bson:"totalLogs"`
		CriticalLogs []facetCount `bson:"criticalLogs"`
		SecurityLogs []facetCount `bson:"securityLogs"`
		FailedLogs   []facetCount `bson:"failedLogs"`
		AdminLogs    []facetCount `bson:"adminLogs"`
		UserLogs     []facetCount `bson:"userLogs"`
	}
	if err := s.aggregate(ctx, pipeline, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return &types.Stats{}, nil
	}
	return &types.Stats{
		TotalLogs:    facetValue(out[0].TotalLogs),
		CriticalLogs: facetValue(out[0].CriticalLogs),
		SecurityLogs: facetValue(out[0].SecurityLogs),
		FailedLogs:   facetValue(out[0].FailedLogs),
		AdminLogs:    facetValue(out[0].AdminLogs),
		UserLogs:     facetValue(out[0].UserLogs),
	}, nil
}

// aggregate runs a pipeline and decodes all results into out.
func (s *MongoStore) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return &types.PersistenceError{Op: "aggregate", Err: err}
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return &types.PersistenceError{Op: "aggregate", Err: err}
	}
	return nil
}

var _ interfaces.EventStore = (*MongoStore)(nil)
