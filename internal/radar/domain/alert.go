package radar

import "time"

// AlertType identifies what condition raised an alert.
type AlertType string

const (
	AlertThresholdCrossing  AlertType = "threshold_crossing"
	AlertDangerZoneEntry    AlertType = "danger_zone_entry"
	AlertNewHighImpactEvent AlertType = "new_high_impact_event"
	AlertClusteringDetected AlertType = "clustering_detected"
)

// Valid returns true when the alert type is known.
func (t AlertType) Valid() bool {
	switch t {
	case AlertThresholdCrossing, AlertDangerZoneEntry,
		AlertNewHighImpactEvent, AlertClusteringDetected:
		return true
	default:
		return false
	}
}

// Alert is a de-duplicated risk-state-change notification.
type Alert struct {
	Type      AlertType `json:"alert_type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  int       `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Assets    []string  `json:"assets"`
	Event     *Event    `json:"event,omitempty"`
}
