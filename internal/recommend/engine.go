// Package recommend maps asset risk scores to trading guidance.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	radar "risk-radar/internal/radar/domain"
)

// Recommendation is the trading guidance for one asset.
type Recommendation struct {
	Asset     string       `json:"asset"`
	RiskLevel int          `json:"risk_level"`
	Action    string       `json:"action"`
	Guidance  string       `json:"guidance"`
	NextEvent *radar.Event `json:"next_event,omitempty"`
}

type band struct {
	low, high int
	action    string
	guidance  string
}

var bands = []band{
	{1, 3, "TRADE NORMALLY", "Risk is low. Normal trading conditions apply."},
	{4, 5, "AWARENESS", "Elevated awareness recommended. Monitor upcoming events."},
	{6, 7, "REDUCE EXPOSURE", "Consider reducing position sizes. Tighten stops."},
	{8, 9, "CLOSE/HEDGE", "Close speculative positions or hedge existing exposure."},
	{10, 10, "DO NOT TRADE", "Extreme risk window. Avoid new positions entirely."},
}

// Engine produces recommendations from asset risk snapshots.
type Engine struct{}

// NewEngine builds a recommendation engine.
func NewEngine() *Engine { return &Engine{} }

// ForAsset maps one asset risk snapshot to a recommendation.
func (e *Engine) ForAsset(risk radar.AssetRisk) Recommendation {
	action, guidance := bandFor(risk.Score)
	return Recommendation{
		Asset:     risk.Asset,
		RiskLevel: risk.Score,
		Action:    action,
		Guidance:  guidance,
		NextEvent: risk.NextEvent,
	}
}

// ForAll maps a full risk snapshot to per-asset recommendations.
func (e *Engine) ForAll(risks map[string]radar.AssetRisk) map[string]Recommendation {
	out := make(map[string]Recommendation, len(risks))
	for asset, risk := range risks {
		out[asset] = e.ForAsset(risk)
	}
	return out
}

// Format renders one recommendation as display text.
func (e *Engine) Format(rec Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Risk Level: %d/10\n", rec.Asset, rec.RiskLevel)
	fmt.Fprintf(&b, "  Action: %s\n", rec.Action)
	fmt.Fprintf(&b, "  Guidance: %s", rec.Guidance)
	if rec.NextEvent != nil {
		fmt.Fprintf(&b, "\n  Next Event: %s at %s",
			rec.NextEvent.Title, rec.NextEvent.ScheduledTime.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// FormatAll renders recommendations in stable asset order.
func (e *Engine) FormatAll(recs map[string]Recommendation) string {
	assets := make([]string, 0, len(recs))
	for asset := range recs {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	lines := make([]string, 0, len(assets))
	for _, asset := range assets {
		lines = append(lines, e.Format(recs[asset]))
	}
	return strings.Join(lines, "\n\n")
}

func bandFor(score int) (string, string) {
	for _, b := range bands {
		if score >= b.low && score <= b.high {
			return b.action, b.guidance
		}
	}
	return "TRADE NORMALLY", "Risk is low. Normal trading conditions apply."
}
