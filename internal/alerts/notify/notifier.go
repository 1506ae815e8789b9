package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	radar "risk-radar/internal/radar/domain"
)

// Clock abstracts time for cooldown tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var typeLabels = map[radar.AlertType]string{
	radar.AlertThresholdCrossing:  "Threshold Crossing",
	radar.AlertDangerZoneEntry:    "Danger Zone",
	radar.AlertNewHighImpactEvent: "New High-Impact Event",
	radar.AlertClusteringDetected: "Event Clustering",
}

// Notifier renders alerts and fans them out to channels, suppressing
// repeats of the same alert inside a cooldown window.
type Notifier struct {
	channels []Channel
	tpl      *Template
	logger   *log.Logger
	clock    Clock
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// Option customizes a Notifier.
type Option func(*Notifier)

// WithCooldown sets the per-alert suppression window. Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(n *Notifier) {
		if d >= 0 {
			n.cooldown = d
		}
	}
}

// WithClock overrides the notifier clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithTemplate overrides the rendering template.
func WithTemplate(tpl *Template) Option {
	return func(n *Notifier) {
		if tpl != nil {
			n.tpl = tpl
		}
	}
}

// NewNotifier builds a channel fan-out notifier.
func NewNotifier(logger *log.Logger, channels []Channel, opts ...Option) (*Notifier, error) {
	if logger == nil {
		return nil, fmt.Errorf("notifier: nil logger")
	}
	tpl, err := NewTemplate("")
	if err != nil {
		return nil, err
	}
	n := &Notifier{
		channels: channels,
		tpl:      tpl,
		logger:   logger,
		clock:    systemClock{},
		cooldown: 15 * time.Minute,
		lastSent: map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify delivers one alert to all channels.
func (n *Notifier) Notify(ctx context.Context, alert radar.Alert) {
	if !n.shouldSend(alert) {
		return
	}
	content, err := n.render(alert)
	if err != nil {
		n.logger.Printf("notify: render alert %q: %v", alert.Title, err)
		return
	}
	for _, ch := range n.channels {
		if err := ch.Send(ctx, alert.Title, content); err != nil {
			n.logger.Printf("notify: channel %s: %v", ch.Name(), err)
		}
	}
}

func (n *Notifier) shouldSend(alert radar.Alert) bool {
	if n.cooldown == 0 {
		return true
	}
	key := string(alert.Type) + "|" + alert.Title
	now := n.clock.Now()

	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.cooldown {
		return false
	}
	n.lastSent[key] = now
	return true
}

func (n *Notifier) render(alert radar.Alert) (string, error) {
	label, ok := typeLabels[alert.Type]
	if !ok {
		label = string(alert.Type)
	}
	data := TemplateData{
		Type:          string(alert.Type),
		TypeLabel:     label,
		Title:         alert.Title,
		Message:       alert.Message,
		Severity:      alert.Severity,
		SeverityLabel: severityLabel(alert.Severity),
		Time:          alert.Timestamp.UTC().Format(time.RFC3339),
		Assets:        strings.Join(alert.Assets, ", "),
	}
	if alert.Event != nil {
		data.EventTitle = alert.Event.Title
		data.EventTime = alert.Event.ScheduledTime.UTC().Format(time.RFC3339)
	}
	return n.tpl.Render(data)
}

func severityLabel(severity int) string {
	switch {
	case severity >= 9:
		return "CRITICAL"
	case severity >= 7:
		return "HIGH"
	case severity >= 5:
		return "ELEVATED"
	default:
		return "INFO"
	}
}
