package classify

import (
	"testing"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		action       string
		override     *types.Override
		wantCategory types.Category
		wantSeverity types.Severity
	}{
		{
			name:         "Known security action",
			action:       "login_failed",
			wantCategory: types.CategorySecurity,
			wantSeverity: types.SeverityHigh,
		},
		{
			name:         "Known user action",
			action:       "task_created",
			wantCategory: types.CategoryUser,
			wantSeverity: types.SeverityLow,
		},
		{
			name:         "Known admin action",
			action:       "user_role_changed",
			wantCategory: types.CategoryAdmin,
			wantSeverity: types.SeverityHigh,
		},
		{
			name:         "Known critical action",
			action:       "company_deleted",
			wantCategory: types.CategoryAdmin,
			wantSeverity: types.SeverityCritical,
		},
		{
			name:         "Unknown action falls back to user/low",
			action:       "something_never_seen",
			wantCategory: types.CategoryUser,
			wantSeverity: types.SeverityLow,
		},
		{
			name:         "Empty action falls back to user/low",
			action:       "",
			wantCategory: types.CategoryUser,
			wantSeverity: types.SeverityLow,
		},
		{
			name:         "Override wins over the table",
			action:       "login_failed",
			override:     &types.Override{Category: types.CategorySystem, Severity: types.SeverityLow},
			wantCategory: types.CategorySystem,
			wantSeverity: types.SeverityLow,
		},
		{
			name:         "Override wins for unknown actions too",
			action:       "something_never_seen",
			override:     &types.Override{Category: types.CategorySecurity, Severity: types.SeverityCritical},
			wantCategory: types.CategorySecurity,
			wantSeverity: types.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, severity := Classify(tt.action, tt.override)
			if category != tt.wantCategory {
				t.Errorf("category = %q, want %q", category, tt.wantCategory)
			}
			if severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", severity, tt.wantSeverity)
			}
		})
	}
}

func TestTableIsFullyValid(t *testing.T) {
	for action, rule := range rules {
		if !rule.Category.Valid() {
			t.Errorf("action %q has invalid category %q", action, rule.Category)
		}
		if !rule.Severity.Valid() {
			t.Errorf("action %q has invalid severity %q", action, rule.Severity)
		}
	}
	if Actions() == 0 {
		t.Error("classification table is empty")
	}
}
