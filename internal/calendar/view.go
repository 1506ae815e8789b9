// Package calendar renders event calendars as plain text trees.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"risk-radar/internal/radar/aggregation"
	radar "risk-radar/internal/radar/domain"
)

// View renders today and week calendars from the live event set.
type View struct {
	aggregator *aggregation.Aggregator
}

// NewView builds a calendar view over the aggregator.
func NewView(aggregator *aggregation.Aggregator) (*View, error) {
	if aggregator == nil {
		return nil, fmt.Errorf("calendar view: nil aggregator")
	}
	return &View{aggregator: aggregator}, nil
}

// RiskLabel maps a score to its calendar label.
func RiskLabel(score int) string {
	switch {
	case score >= 10:
		return "CRITICAL"
	case score >= 8:
		return "HIGH"
	case score >= 6:
		return "ELEVATED"
	case score >= 4:
		return "MODERATE"
	default:
		return "LOW"
	}
}

// Today renders the calendar for the day containing now.
func (v *View) Today(now time.Time) string {
	events := eventsForDate(now, v.aggregator.Events())

	var b strings.Builder
	fmt.Fprintf(&b, "TODAY - %s\n", now.Format("January 02, 2006"))
	if len(events) == 0 {
		b.WriteString("└── No events scheduled")
		return b.String()
	}
	for i, event := range events {
		b.WriteString(v.eventLine(event, v.aggregator.EventRiskLevel(event), i == len(events)-1))
		if i < len(events)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Week renders seven days from now plus a summary of high-risk windows,
// recommended blackouts, and assets with elevated week risk.
func (v *View) Week(now time.Time) string {
	all := v.aggregator.Events()

	var b strings.Builder
	highRiskWindows := 0
	var blackouts []string
	elevatedAssets := map[string][]string{}
	var assetOrder []string

	for offset := 0; offset < 7; offset++ {
		date := now.Add(time.Duration(offset) * 24 * time.Hour)
		events := eventsForDate(date, all)

		label := strings.ToUpper(date.Format("Monday"))
		switch offset {
		case 0:
			label = "TODAY"
		case 1:
			label = "TOMORROW"
		}
		fmt.Fprintf(&b, "%s - %s\n", label, date.Format("January 02"))

		if len(events) == 0 {
			b.WriteString("└── No events scheduled\n")
		}
		for i, event := range events {
			score := v.aggregator.EventRiskLevel(event)
			b.WriteString(v.eventLine(event, score, i == len(events)-1))
			b.WriteByte('\n')

			if score >= 6 {
				highRiskWindows++
				for _, asset := range event.AffectedAssets {
					if _, seen := elevatedAssets[asset]; !seen {
						assetOrder = append(assetOrder, asset)
					}
					if !contains(elevatedAssets[asset], event.Title) {
						elevatedAssets[asset] = append(elevatedAssets[asset], event.Title)
					}
				}
			}
			if score >= 8 {
				end := event.ScheduledTime.Add(event.ImpactWindow)
				blackouts = append(blackouts, fmt.Sprintf("%s-%s",
					event.ScheduledTime.Format("Mon 15:04"), end.Format("15:04")))
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString("THIS WEEK SUMMARY:\n")
	fmt.Fprintf(&b, "- High-risk windows: %d\n", highRiskWindows)
	if len(blackouts) > 0 {
		if len(blackouts) > 3 {
			blackouts = blackouts[:3]
		}
		fmt.Fprintf(&b, "- Recommended trading blackouts: %s\n", strings.Join(blackouts, ", "))
	} else {
		b.WriteString("- Recommended trading blackouts: None\n")
	}
	if len(assetOrder) > 0 {
		summaries := make([]string, 0, len(assetOrder))
		for _, asset := range assetOrder {
			reasons := elevatedAssets[asset]
			if len(reasons) > 2 {
				reasons = reasons[:2]
			}
			summaries = append(summaries, fmt.Sprintf("%s (%s)", asset, strings.Join(reasons, " + ")))
		}
		fmt.Fprintf(&b, "- Assets with elevated week risk: %s", strings.Join(summaries, ", "))
	} else {
		b.WriteString("- Assets with elevated week risk: None")
	}
	return b.String()
}

func (v *View) eventLine(event radar.Event, score int, last bool) string {
	branch := "├──"
	if last {
		branch = "└──"
	}
	end := event.ScheduledTime.Add(event.ImpactWindow)
	timeRange := event.ScheduledTime.Format("15:04") + "-" + end.Format("15:04")
	label := RiskLabel(score)

	assets := formatAssets(event.AffectedAssets)
	if assets == "" {
		return fmt.Sprintf("%s %s [%s] %s", branch, timeRange, label, event.Title)
	}
	return fmt.Sprintf("%s %s [%s - %s] %s", branch, timeRange, label, assets, event.Title)
}

func formatAssets(assets []string) string {
	if len(assets) == 0 {
		return ""
	}
	set := map[string]bool{}
	for _, a := range assets {
		set[a] = true
	}
	if set["SPY"] && set["QQQ"] && set["BTC"] && set["GOLD"] {
		return "ALL"
	}
	return strings.Join(assets, ", ")
}

func eventsForDate(date time.Time, events []radar.Event) []radar.Event {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	var out []radar.Event
	for _, event := range events {
		if !event.ScheduledTime.Before(dayStart) && !event.ScheduledTime.After(dayEnd) {
			out = append(out, event)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
