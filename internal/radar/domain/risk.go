package radar

import "time"

// RiskStatus is the banded risk state derived from a score via thresholds.
type RiskStatus string

const (
	StatusNormal   RiskStatus = "normal"
	StatusLow      RiskStatus = "low"
	StatusElevated RiskStatus = "elevated"
	StatusHigh     RiskStatus = "high"
	StatusDanger   RiskStatus = "danger"
)

// AssetRisk is the current risk snapshot for a single tracked asset.
// Recomputed fresh on every query, never mutated in place.
type AssetRisk struct {
	Asset     string     `json:"asset"`
	Score     int        `json:"score"`
	Status    RiskStatus `json:"status"`
	NextEvent *Event     `json:"next_event,omitempty"`
}

// RiskWindow is a time span with an aggregate risk level and the
// contributing events.
type RiskWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Level  int       `json:"level"`
	Events []Event   `json:"events"`
	Assets []string  `json:"assets"`
}

// DangerZones groups the three disjoint danger-zone views.
type DangerZones struct {
	Intraday      []RiskWindow `json:"intraday"`
	HighRiskDays  []RiskWindow `json:"high_risk_days"`
	HighRiskWeeks []RiskWindow `json:"high_risk_weeks"`
}

// Cluster is a detected temporal cluster of two or more events.
type Cluster struct {
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	Events         []Event   `json:"events"`
	CompoundRisk   int       `json:"compound_risk"`
	AssetsAffected []string  `json:"assets_affected"`
}
