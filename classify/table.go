package classify

import (
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// TableVersion identifies the classification table revision. Bump it when
// rules change so stored events can be traced back to the rules that
// classified them.
const TableVersion = 3

// Rule maps one action code to its classification.
type Rule struct {
	Category types.Category
	Severity types.Severity
}

// rules is the static action classification table. Unknown actions fall
// back to (user, low).
var rules = map[string]Rule{
	// Authentication
	"login_success":            {types.CategorySecurity, types.SeverityLow},
	"login_failed":             {types.CategorySecurity, types.SeverityHigh},
	"logout":                   {types.CategorySecurity, types.SeverityLow},
	"password_changed":         {types.CategorySecurity, types.SeverityMedium},
	"password_reset_requested": {types.CategorySecurity, types.SeverityMedium},
	"password_reset_completed": {types.CategorySecurity, types.SeverityMedium},
	"mfa_enabled":              {types.CategorySecurity, types.SeverityMedium},
	"mfa_disabled":             {types.CategorySecurity, types.SeverityHigh},
	"session_revoked":          {types.CategorySecurity, types.SeverityMedium},
	"account_locked":           {types.CategorySecurity, types.SeverityHigh},
	"account_unlocked":         {types.CategorySecurity, types.SeverityMedium},
	"permission_denied":        {types.CategorySecurity, types.SeverityHigh},
	"api_key_created":          {types.CategorySecurity, types.SeverityMedium},
	"api_key_revoked":          {types.CategorySecurity, types.SeverityMedium},
	"suspicious_activity":      {types.CategorySecurity, types.SeverityCritical},

	// User administration
	"user_created":       {types.CategoryAdmin, types.SeverityMedium},
	"user_updated":       {types.CategoryAdmin, types.SeverityLow},
	"user_deleted":       {types.CategoryAdmin, types.SeverityHigh},
	"user_role_changed":  {types.CategoryAdmin, types.SeverityHigh},
	"user_suspended":     {types.CategoryAdmin, types.SeverityHigh},
	"user_reactivated":   {types.CategoryAdmin, types.SeverityMedium},
	"permission_granted": {types.CategoryAdmin, types.SeverityMedium},
	"permission_revoked": {types.CategoryAdmin, types.SeverityMedium},
	"settings_updated":   {types.CategoryAdmin, types.SeverityMedium},

	// Tenant administration
	"company_created":        {types.CategoryAdmin, types.SeverityMedium},
	"company_updated":        {types.CategoryAdmin, types.SeverityLow},
	"company_deleted":        {types.CategoryAdmin, types.SeverityCritical},
	"subscription_created":   {types.CategoryAdmin, types.SeverityMedium},
	"subscription_updated":   {types.CategoryAdmin, types.SeverityMedium},
	"subscription_cancelled": {types.CategoryAdmin, types.SeverityHigh},
	"payment_failed":         {types.CategoryAdmin, types.SeverityHigh},

	// System
	"data_exported":       {types.CategorySystem, types.SeverityMedium},
	"data_imported":       {types.CategorySystem, types.SeverityMedium},
	"retention_sweep":     {types.CategorySystem, types.SeverityLow},
	"backup_completed":    {types.CategorySystem, types.SeverityLow},
	"backup_failed":       {types.CategorySystem, types.SeverityHigh},
	"maintenance_started": {types.CategorySystem, types.SeverityLow},
	"config_changed":      {types.CategorySystem, types.SeverityHigh},

	// Routine user activity
	"task_created":     {types.CategoryUser, types.SeverityLow},
	"task_updated":     {types.CategoryUser, types.SeverityLow},
	"task_completed":   {types.CategoryUser, types.SeverityLow},
	"task_deleted":     {types.CategoryUser, types.SeverityMedium},
	"comment_added":    {types.CategoryUser, types.SeverityLow},
	"file_uploaded":    {types.CategoryUser, types.SeverityLow},
	"file_downloaded":  {types.CategoryUser, types.SeverityLow},
	"profile_updated":  {types.CategoryUser, types.SeverityLow},
	"report_generated": {types.CategoryUser, types.SeverityLow},
}

// Lookup returns the rule for an action and whether it is in the table.
func Lookup(action string) (Rule, bool) {
	r, ok := rules[action]
	return r, ok
}

// Actions returns the number of classified action codes.
func Actions() int {
	return len(rules)
}
