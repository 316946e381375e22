package types

import "time"

// Interval is the time bucket size for trend aggregation.
type Interval string

const (
	IntervalHour  Interval = "hour"
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// Valid reports whether i is a declared interval.
func (i Interval) Valid() bool {
	switch i {
	case IntervalHour, IntervalDay, IntervalWeek, IntervalMonth:
		return true
	}
	return false
}

// TrendBucket is one time bucket of the activity trend.
type TrendBucket struct {
	Bucket string `json:"bucket" bson:"_id"`
	Count  int64  `json:"count" bson:"count"`
}

// ActionCount is one entry of the top-actions ranking.
type ActionCount struct {
	Action   string    `json:"action" bson:"_id"`
	Count    int64     `json:"count" bson:"count"`
	LastSeen time.Time `json:"lastSeen" bson:"lastSeen"`
}

// ActorActivity is one entry of the top-actors ranking.
type ActorActivity struct {
	UserID    string    `json:"userId" bson:"_id"`
	UserName  string    `json:"userName,omitempty" bson:"userName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty" bson:"userEmail,omitempty"`
	Count     int64     `json:"count" bson:"count"`
	FirstSeen time.Time `json:"firstSeen" bson:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen" bson:"lastSeen"`
}

// TenantActivity is one entry of the top-tenants ranking.
type TenantActivity struct {
	CompanyID   string    `json:"companyId" bson:"_id"`
	CompanyName string    `json:"companyName,omitempty" bson:"companyName,omitempty"`
	Count       int64     `json:"count" bson:"count"`
	FirstSeen   time.Time `json:"firstSeen" bson:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen" bson:"lastSeen"`
}

// SeverityCount is one entry of the severity distribution.
type SeverityCount struct {
	Severity Severity `json:"severity" bson:"_id"`
	Count    int64    `json:"count" bson:"count"`
}

// Stats is the summary counters block of the admin surface.
type Stats struct {
	TotalLogs    int64 `json:"totalLogs" bson:"totalLogs"`
	CriticalLogs int64 `json:"criticalLogs" bson:"criticalLogs"`
	SecurityLogs int64 `json:"securityLogs" bson:"securityLogs"`
	FailedLogs   int64 `json:"failedLogs" bson:"failedLogs"`
	AdminLogs    int64 `json:"adminLogs" bson:"adminLogs"`
	UserLogs     int64 `json:"userLogs" bson:"userLogs"`
}

// AnalyticsReport bundles the full analytics response.
type AnalyticsReport struct {
	ActivityTrends   []TrendBucket    `json:"activityTrends"`
	TopActions       []ActionCount    `json:"topActions"`
	SecurityInsights []SeverityCount  `json:"securityInsights"`
	TopActors        []ActorActivity  `json:"topActors"`
	TopTenants       []TenantActivity `json:"topTenants"`
}
