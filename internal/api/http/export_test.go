package apihttp

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"risk-radar/internal/radar/aggregation"
	"risk-radar/internal/radar/config"
	radar "risk-radar/internal/radar/domain"
	"risk-radar/internal/recommend"
)

func newTestExportHandler(t *testing.T, events []radar.Event) *ExportHandler {
	t.Helper()
	agg := aggregation.NewAggregator(config.Default(), nil)
	agg.SetEvents(events)
	handler, err := NewExportHandler(agg, recommend.NewEngine(), fixedClock{now: baseline})
	if err != nil {
		t.Fatalf("new export handler: %v", err)
	}
	return handler
}

func TestExportCalendarXLSX(t *testing.T) {
	handler := newTestExportHandler(t, []radar.Event{cpiEvent()})

	rec := get(t, handler, "/api/v1/exports/calendar.xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="calendar.xlsx"` {
		t.Fatalf("unexpected disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue("events", "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if title != "CPI Release" {
		t.Fatalf("unexpected event title %q", title)
	}
	score, err := f.GetCellValue("risks", "B2")
	if err != nil {
		t.Fatalf("read risk score: %v", err)
	}
	// First risks row is BTC in sorted asset order.
	if score != "10" {
		t.Fatalf("unexpected BTC score %q", score)
	}
}

func TestExportRiskReportPDF(t *testing.T) {
	handler := newTestExportHandler(t, []radar.Event{cpiEvent()})

	rec := get(t, handler, "/api/v1/exports/risk-report.pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.Bytes()
	if len(body) == 0 {
		t.Fatal("expected non-empty PDF payload")
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("expected PDF magic header, got %q", body[:8])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	handler := newTestExportHandler(t, nil)

	rec := get(t, handler, "/api/v1/exports/report.csv")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestExportMethodNotAllowed(t *testing.T) {
	handler := newTestExportHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/exports/calendar.xlsx", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
