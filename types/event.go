// Package types holds the shared data types for the audit trail module.
package types

import (
	"time"
)

// Category is the coarse bucket describing the nature of an action.
type Category string

const (
	CategorySecurity Category = "security"
	CategoryAdmin    Category = "admin"
	CategorySystem   Category = "system"
	CategoryUser     Category = "user"
)

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySecurity, CategoryAdmin, CategorySystem, CategoryUser:
		return true
	}
	return false
}

// Severity is the escalation level of an event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities from least to most noteworthy.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Valid reports whether s is one of the declared severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// SeveritiesFrom returns all declared severities at or above min,
// least severe first.
func SeveritiesFrom(min Severity) []Severity {
	all := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	out := make([]Severity, 0, len(all))
	for _, s := range all {
		if s.AtLeast(min) {
			out = append(out, s)
		}
	}
	return out
}

// Status is the outcome of the recorded action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Override forces an explicit classification at ingestion time. When
// supplied it wins verbatim over the action table, both fields together.
type Override struct {
	Category Category
	Severity Severity
}

// Annotation is a post-hoc investigation note appended to one event.
// Annotations are ordered by append time and never mutated or removed.
type Annotation struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	Tags      []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	AuthorID  string    `json:"authorId" bson:"authorId"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// AuditEvent is one immutable record of a significant action. Once
// persisted, every field is fixed except the annotations list inside
// Metadata, which is append-only.
type AuditEvent struct {
	ID        string    `json:"id" bson:"_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`

	// Actor. UserID is empty for system actions.
	UserID    string `json:"userId,omitempty" bson:"userId,omitempty"`
	UserEmail string `json:"userEmail,omitempty" bson:"userEmail,omitempty"`
	UserName  string `json:"userName,omitempty" bson:"userName,omitempty"`
	UserRole  string `json:"userRole,omitempty" bson:"userRole,omitempty"`

	// Tenant.
	CompanyID   string `json:"companyId,omitempty" bson:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty" bson:"companyName,omitempty"`

	// Classification.
	Action   string   `json:"action" bson:"action"`
	Category Category `json:"category" bson:"category"`
	Severity Severity `json:"severity" bson:"severity"`

	// Narrative.
	Description string `json:"description" bson:"description"`
	Status      Status `json:"status" bson:"status"`

	// Request context, supplied by the caller.
	IPAddress string `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	Device    string `json:"device,omitempty" bson:"device,omitempty"`
	Location  string `json:"location,omitempty" bson:"location,omitempty"`
	SessionID string `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	RequestID string `json:"requestId,omitempty" bson:"requestId,omitempty"`

	// Metadata is an open key-value bag for action-specific details.
	Metadata map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`

	// Annotations are kept alongside the metadata bag on the document.
	Annotations []Annotation `json:"annotations,omitempty" bson:"annotations,omitempty"`
}
