package models

import (
	"testing"
)

func TestRiskScoreWeights(t *testing.T) {
	weights := DefaultScoreWeights()

	tests := []struct {
		name   string
		issues []Issue
		want   int
	}{
		{"no issues", nil, 0},
		{"single yellow", []Issue{{Severity: SeverityYellow}}, 20},
		{"single red", []Issue{{Severity: SeverityRed}}, 50},
		{"green is free", []Issue{{Severity: SeverityGreen}}, 0},
		{"unknown severity defaults", []Issue{{Severity: "purple"}}, 10},
		{"red plus yellow", []Issue{{Severity: SeverityRed}, {Severity: SeverityYellow}}, 70},
		{"clamped at 100", []Issue{{Severity: SeverityRed}, {Severity: SeverityRed}, {Severity: SeverityRed}}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RiskScore(tt.issues, weights); got != tt.want {
				t.Errorf("RiskScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRiskScoreMonotonic(t *testing.T) {
	weights := DefaultScoreWeights()

	base := []Issue{}
	for i := 0; i < 10; i++ {
		before := RiskScore(base, weights)
		base = append(base, Issue{Severity: SeverityRed})
		after := RiskScore(base, weights)
		if after < before {
			t.Fatalf("score decreased after adding a red issue: %d -> %d", before, after)
		}
		if after > 100 {
			t.Fatalf("score exceeded 100: %d", after)
		}
	}
}

func TestVerdict(t *testing.T) {
	buckets := DefaultVerdictBuckets()

	tests := []struct {
		score      int
		issueCount int
		want       string
	}{
		{100, 3, "high risk"},
		{70, 2, "high risk"},
		{69, 2, "some warnings"},
		{30, 1, "some warnings"},
		{20, 1, "low risk, minor warnings"},
		{0, 0, "nothing suspicious"},
	}
	for _, tt := range tests {
		if got := Verdict(tt.score, tt.issueCount, buckets); got != tt.want {
			t.Errorf("Verdict(%d, %d) = %q, want %q", tt.score, tt.issueCount, got, tt.want)
		}
	}
}

func TestSeverityRank(t *testing.T) {
	if SeverityRed.Rank() <= SeverityYellow.Rank() {
		t.Error("red should outrank yellow")
	}
	if SeverityYellow.Rank() <= SeverityGreen.Rank() {
		t.Error("yellow should outrank green")
	}
	if Severity("purple").Rank() >= SeverityGreen.Rank() {
		t.Error("unknown severity should rank below green")
	}
}

func TestHighestSeverity(t *testing.T) {
	r := &ScanResult{}
	if got := r.HighestSeverity(); got != SeverityGreen {
		t.Errorf("empty result severity = %s, want green", got)
	}

	r.AddIssue(SeverityYellow, "pdf", "something", "")
	if got := r.HighestSeverity(); got != SeverityYellow {
		t.Errorf("severity = %s, want yellow", got)
	}

	r.AddIssue(SeverityRed, "archive", "worse", "")
	r.AddIssue(SeverityGreen, "image", "fine", "")
	if got := r.HighestSeverity(); got != SeverityRed {
		t.Errorf("severity = %s, want red", got)
	}
}
