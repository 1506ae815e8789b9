package notify

import (
	"context"

	radar "risk-radar/internal/radar/domain"
)

// AlertSink receives fired alerts.
type AlertSink interface {
	Notify(ctx context.Context, alert radar.Alert)
}

// MultiNotifier fans one alert out to several sinks.
type MultiNotifier struct {
	sinks []AlertSink
}

// NewMultiNotifier combines sinks into one notifier. Nil sinks are skipped.
func NewMultiNotifier(sinks ...AlertSink) *MultiNotifier {
	kept := make([]AlertSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return &MultiNotifier{sinks: kept}
}

// Notify delivers the alert to every sink.
func (m *MultiNotifier) Notify(ctx context.Context, alert radar.Alert) {
	for _, sink := range m.sinks {
		sink.Notify(ctx, alert)
	}
}
