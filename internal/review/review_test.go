package review

import (
	"testing"

	"github.com/dshills/contentaudit/internal/schema"
)

func makeViolations(severities ...schema.Severity) []schema.Violation {
	vs := make([]schema.Violation, len(severities))
	for i, s := range severities {
		vs[i] = schema.Violation{Severity: s}
	}
	return vs
}

// --- Score tests ---

func TestScore_OneCriticalTwoMedium(t *testing.T) {
	got := Score(makeViolations(schema.SeverityCritical, schema.SeverityMedium, schema.SeverityMedium))
	want := 100 - 30 - 2*5 // 60
	if got != want {
		t.Errorf("Score = %d, want %d", got, want)
	}
}

func TestScore_ClampsAtZero(t *testing.T) {
	// 4 critical = -120 → clamped to 0
	vs := makeViolations(schema.SeverityCritical, schema.SeverityCritical, schema.SeverityCritical, schema.SeverityCritical)
	if got := Score(vs); got != 0 {
		t.Errorf("Score = %d, want 0 (clamped)", got)
	}
}

func TestScore_LowAndInfoAreFree(t *testing.T) {
	vs := makeViolations(schema.SeverityLow, schema.SeverityInfo, schema.SeverityLow)
	if got := Score(vs); got != 100 {
		t.Errorf("Score = %d, want 100", got)
	}
}

func TestScore_NotCappedPerRule(t *testing.T) {
	vs := []schema.Violation{
		{RuleID: "pub-002", Severity: schema.SeverityCritical},
		{RuleID: "pub-002", Severity: schema.SeverityCritical},
	}
	if got := Score(vs); got != 40 {
		t.Errorf("Score = %d, want 40", got)
	}
}

func TestScore_NoViolations(t *testing.T) {
	if got := Score(nil); got != 100 {
		t.Errorf("Score = %d, want 100", got)
	}
}

func TestScore_AlwaysInRange(t *testing.T) {
	all := []schema.Severity{schema.SeverityCritical, schema.SeverityHigh, schema.SeverityMedium, schema.SeverityLow, schema.SeverityInfo}
	var vs []schema.Violation
	for i := 0; i < 50; i++ {
		vs = append(vs, schema.Violation{Severity: all[i%len(all)]})
		if s := Score(vs); s < 0 || s > 100 {
			t.Fatalf("Score = %d out of range after %d violations", s, i+1)
		}
	}
}

// --- Tier tests ---

func TestTier_Ladder(t *testing.T) {
	tests := []struct {
		name string
		in   []schema.Violation
		want schema.RiskTier
	}{
		{"none", nil, schema.TierSafe},
		{"info only", makeViolations(schema.SeverityInfo), schema.TierLow},
		{"low only", makeViolations(schema.SeverityLow, schema.SeverityLow), schema.TierLow},
		{"medium", makeViolations(schema.SeverityLow, schema.SeverityMedium), schema.TierMedium},
		{"many highs", makeViolations(schema.SeverityHigh, schema.SeverityHigh, schema.SeverityHigh, schema.SeverityMedium), schema.TierHigh},
		{"one critical", makeViolations(schema.SeverityHigh, schema.SeverityCritical, schema.SeverityInfo), schema.TierCritical},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Tier(tc.in); got != tc.want {
				t.Errorf("Tier = %q, want %q", got, tc.want)
			}
		})
	}
}

// --- Approval tests ---

func TestApproved(t *testing.T) {
	tests := []struct {
		name string
		in   []schema.Violation
		want bool
	}{
		{"none", nil, true},
		{"medium and low", makeViolations(schema.SeverityMedium, schema.SeverityLow), true},
		{"high", makeViolations(schema.SeverityHigh), false},
		{"critical", makeViolations(schema.SeverityCritical), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Approved(tc.in); got != tc.want {
				t.Errorf("Approved = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluate_SuperlativeScenario(t *testing.T) {
	o := Evaluate(makeViolations(schema.SeverityHigh))
	if o.Score != 85 || o.Tier != schema.TierHigh || o.Approved {
		t.Errorf("Evaluate = %+v, want {85 high false}", o)
	}
}

func TestEvaluate_EmptyInputScenario(t *testing.T) {
	o := Evaluate(makeViolations(schema.SeverityMedium, schema.SeverityMedium))
	if o.Score != 90 || o.Tier != schema.TierMedium || !o.Approved {
		t.Errorf("Evaluate = %+v, want {90 medium true}", o)
	}
}

// --- Counts / FilterBySeverity tests ---

func TestCounts(t *testing.T) {
	c := Counts(makeViolations(schema.SeverityHigh, schema.SeverityHigh, schema.SeverityInfo))
	if c[schema.SeverityHigh] != 2 || c[schema.SeverityInfo] != 1 || c[schema.SeverityCritical] != 0 {
		t.Errorf("Counts = %v", c)
	}
}

func TestFilterBySeverity_HighThreshold(t *testing.T) {
	vs := makeViolations(schema.SeverityCritical, schema.SeverityHigh, schema.SeverityMedium, schema.SeverityInfo)
	filtered := FilterBySeverity(vs, schema.SeverityHigh)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 violations after high filter, got %d", len(filtered))
	}
	if filtered[0].Severity != schema.SeverityCritical || filtered[1].Severity != schema.SeverityHigh {
		t.Errorf("unexpected filter result: %+v", filtered)
	}
}

func TestFilterBySeverity_InfoThreshold_ReturnsAll(t *testing.T) {
	vs := makeViolations(schema.SeverityCritical, schema.SeverityLow, schema.SeverityInfo)
	if got := FilterBySeverity(vs, schema.SeverityInfo); len(got) != 3 {
		t.Errorf("expected 3 violations with info threshold, got %d", len(got))
	}
}
