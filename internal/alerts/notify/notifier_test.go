package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	radar "risk-radar/internal/radar/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingChannel struct {
	titles   []string
	contents []string
}

func (c *recordingChannel) Send(_ context.Context, title, content string) error {
	c.titles = append(c.titles, title)
	c.contents = append(c.contents, content)
	return nil
}

func (c *recordingChannel) Name() string { return "recording" }

func sampleAlert() radar.Alert {
	return radar.Alert{
		Type:      radar.AlertThresholdCrossing,
		Title:     "SPY Risk DANGER",
		Message:   "Danger zone entered for SPY. Score: 4 -> 10",
		Severity:  10,
		Timestamp: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Assets:    []string{"SPY"},
	}
}

func TestNotifierRendersAndDelivers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	channel := &recordingChannel{}
	logger := log.New(io.Discard, "", 0)

	notifier, err := NewNotifier(logger, []Channel{channel}, WithClock(clock))
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	notifier.Notify(context.Background(), sampleAlert())

	if len(channel.contents) != 1 {
		t.Fatalf("expected one delivery, got %d", len(channel.contents))
	}
	content := channel.contents[0]
	for _, want := range []string{"[CRITICAL]", "Threshold Crossing", "SPY Risk DANGER", "Severity: 10/10", "Assets: SPY"} {
		if !strings.Contains(content, want) {
			t.Fatalf("rendered content missing %q:\n%s", want, content)
		}
	}
}

func TestNotifierCooldownSuppressesRepeats(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	channel := &recordingChannel{}
	logger := log.New(io.Discard, "", 0)

	notifier, err := NewNotifier(logger, []Channel{channel}, WithClock(clock), WithCooldown(15*time.Minute))
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	alert := sampleAlert()
	notifier.Notify(context.Background(), alert)
	clock.Advance(5 * time.Minute)
	notifier.Notify(context.Background(), alert)

	if len(channel.contents) != 1 {
		t.Fatalf("expected repeat suppressed, got %d deliveries", len(channel.contents))
	}

	clock.Advance(11 * time.Minute)
	notifier.Notify(context.Background(), alert)
	if len(channel.contents) != 2 {
		t.Fatalf("expected delivery after cooldown, got %d", len(channel.contents))
	}
}

func TestNotifierCooldownKeysOnTypeAndTitle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	channel := &recordingChannel{}
	logger := log.New(io.Discard, "", 0)

	notifier, err := NewNotifier(logger, []Channel{channel}, WithClock(clock))
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	first := sampleAlert()
	second := sampleAlert()
	second.Title = "QQQ Risk DANGER"
	notifier.Notify(context.Background(), first)
	notifier.Notify(context.Background(), second)

	if len(channel.contents) != 2 {
		t.Fatalf("expected distinct titles both delivered, got %d", len(channel.contents))
	}
}

func TestWebhookChannelPostsJSON(t *testing.T) {
	var received map[string]string
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel("ops", server.URL, WithWebhookHeader("X-Token", "secret"))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := channel.Send(context.Background(), "SPY Risk HIGH", "details"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if received["title"] != "SPY Risk HIGH" || received["text"] != "details" {
		t.Fatalf("unexpected payload: %v", received)
	}
	if gotHeader != "secret" {
		t.Fatalf("expected custom header forwarded, got %q", gotHeader)
	}
}

func TestWebhookChannelRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel("ops", server.URL)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := channel.Send(context.Background(), "t", "c"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestTemplateCustomOverride(t *testing.T) {
	tpl, err := NewTemplate("{{.Title}}|{{.SeverityLabel}}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := tpl.Render(TemplateData{Title: "x", SeverityLabel: "HIGH"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "x|HIGH" {
		t.Fatalf("unexpected render output %q", out)
	}
}

func TestTemplateInvalidSyntax(t *testing.T) {
	if _, err := NewTemplate("{{.Broken"); err == nil {
		t.Fatal("expected parse error")
	}
}
