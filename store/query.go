package store

import (
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// searchFields are the event fields the free-text search matches against,
// OR-combined.
var searchFields = []string{"userName", "userEmail", "action", "description", "companyName"}

// filterToMatch translates the shared Filter value into a MongoDB match
// document. This is the single filter-semantics implementation on the
// Mongo side; MemoryStore.matches mirrors it exactly.
func filterToMatch(f types.Filter) bson.M {
	match := bson.M{}

	if f.ActorID != "" {
		match["userId"] = f.ActorID
	}
	if f.TenantID != "" {
		match["companyId"] = f.TenantID
	}
	if f.Action != "" {
		match["action"] = f.Action
	}
	if f.Category != "" {
		match["category"] = f.Category
	}
	if len(f.Severities) > 0 {
		match["severity"] = bson.M{"$in": f.Severities}
	} else if f.Severity != "" {
		match["severity"] = f.Severity
	}
	if f.Status != "" {
		match["status"] = f.Status
	}

	ts := bson.M{}
	if !f.Start.IsZero() {
		ts["$gte"] = f.Start
	}
	if !f.End.IsZero() {
		ts["$lte"] = f.End
	}
	if !f.Before.IsZero() {
		ts["$lt"] = f.Before
	}
	if len(ts) > 0 {
		match["timestamp"] = ts
	}

	if f.Search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := make(bson.A, 0, len(searchFields))
		for _, field := range searchFields {
			or = append(or, bson.M{field: re})
		}
		match["$or"] = or
	}

	return match
}

// sortDoc builds the sort specification for a page request. The _id
// tiebreaker keeps pagination deterministic when sort keys collide.
func sortDoc(page types.Pagination) bson.D {
	dir := -1
	if page.SortOrder == types.SortAsc {
		dir = 1
	}
	return bson.D{
		{Key: page.SortBy, Value: dir},
		{Key: "_id", Value: dir},
	}
}

// seekMatch extends a match document with the seek condition for stable
// (timestamp asc, _id asc) iteration after the cursor position.
func seekMatch(match bson.M, cursor types.Cursor) bson.M {
	if cursor.Zero() {
		return match
	}
	after := bson.A{
		bson.M{"timestamp": bson.M{"$gt": cursor.Timestamp}},
		bson.M{"timestamp": cursor.Timestamp, "_id": bson.M{"$gt": cursor.ID}},
	}
	if len(match) == 0 {
		return bson.M{"$or": after}
	}
	return bson.M{"$and": bson.A{match, bson.M{"$or": after}}}
}
