package apihttp

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"risk-radar/internal/observability/metrics"
	"risk-radar/internal/radar/aggregation"
	radar "risk-radar/internal/radar/domain"
	"risk-radar/internal/recommend"
)

// ExportHandler serves calendar and risk report downloads.
type ExportHandler struct {
	aggregator *aggregation.Aggregator
	recommends *recommend.Engine
	clock      Clock
}

// NewExportHandler constructs an export handler. A nil clock uses the
// system clock.
func NewExportHandler(aggregator *aggregation.Aggregator, recommends *recommend.Engine, clock Clock) (*ExportHandler, error) {
	if aggregator == nil {
		return nil, errors.New("export handler: nil aggregator")
	}
	if recommends == nil {
		return nil, errors.New("export handler: nil recommendation engine")
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &ExportHandler{
		aggregator: aggregator,
		recommends: recommends,
		clock:      clock,
	}, nil
}

// ServeHTTP handles GET /api/v1/exports/calendar.xlsx and
// GET /api/v1/exports/risk-report.pdf.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch strings.TrimPrefix(r.URL.Path, "/api/v1/exports/") {
	case "calendar.xlsx":
		h.serveCalendarXLSX(w, r)
	case "risk-report.pdf":
		h.serveRiskReportPDF(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ExportHandler) serveCalendarXLSX(w http.ResponseWriter, r *http.Request) {
	payload, err := h.buildCalendarXLSX(h.clock.Now())
	metrics.IncExport("xlsx", err)
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.xlsx"`)
	_, _ = w.Write(payload)
}

func (h *ExportHandler) serveRiskReportPDF(w http.ResponseWriter, r *http.Request) {
	payload, err := h.buildRiskReportPDF(h.clock.Now())
	metrics.IncExport("pdf", err)
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="risk-report.pdf"`)
	_, _ = w.Write(payload)
}

func (h *ExportHandler) buildCalendarXLSX(now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	eventsSheet := "events"
	risksSheet := "risks"
	f.SetSheetName("Sheet1", eventsSheet)
	f.NewSheet(risksSheet)

	headers := []string{"ID", "Title", "Category", "Tier", "Scheduled (UTC)", "Impact Window (h)", "Affected Assets", "Risk Level"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(eventsSheet, cell, header)
	}

	events := append([]radar.Event(nil), h.aggregator.Events()...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ScheduledTime.Before(events[j].ScheduledTime)
	})
	for i, event := range events {
		row := i + 2
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("A%d", row), event.ID)
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("B%d", row), event.Title)
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("C%d", row), string(event.Category))
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("D%d", row), int(event.Tier))
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("E%d", row), event.ScheduledTime.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("F%d", row), event.ImpactWindow.Hours())
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("G%d", row), strings.Join(event.AffectedAssets, ", "))
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("H%d", row), h.aggregator.EventRiskLevel(event))
	}

	_ = f.SetCellValue(risksSheet, "A1", "Asset")
	_ = f.SetCellValue(risksSheet, "B1", "Score")
	_ = f.SetCellValue(risksSheet, "C1", "Status")
	_ = f.SetCellValue(risksSheet, "D1", "Next Event")
	for i, risk := range sortedRisks(h.aggregator.CurrentRisk(now)) {
		row := i + 2
		_ = f.SetCellValue(risksSheet, fmt.Sprintf("A%d", row), risk.Asset)
		_ = f.SetCellValue(risksSheet, fmt.Sprintf("B%d", row), risk.Score)
		_ = f.SetCellValue(risksSheet, fmt.Sprintf("C%d", row), string(risk.Status))
		if risk.NextEvent != nil {
			_ = f.SetCellValue(risksSheet, fmt.Sprintf("D%d", row), risk.NextEvent.Title)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *ExportHandler) buildRiskReportPDF(now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Market Risk Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", now.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Events Loaded: %d", len(h.aggregator.Events())))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Asset", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(100, 6, "Action", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, risk := range sortedRisks(h.aggregator.CurrentRisk(now)) {
		rec := h.recommends.ForAsset(risk)
		pdf.CellFormat(30, 6, risk.Asset, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d/10", risk.Score), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, string(risk.Status), "1", 0, "C", false, 0, "")
		pdf.CellFormat(100, 6, rec.Action, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	clusters := h.aggregator.DetectClustering(now, aggregation.DefaultLookahead, aggregation.DefaultClusterWindow)
	pdf.Cell(0, 6, fmt.Sprintf("Event clusters in next 24h: %d", len(clusters)))
	pdf.Ln(5)
	for _, cluster := range clusters {
		pdf.Cell(0, 6, fmt.Sprintf("  %s - %s: %d events, compound risk %d",
			cluster.WindowStart.UTC().Format("Jan 02 15:04"),
			cluster.WindowEnd.UTC().Format("15:04"),
			len(cluster.Events), cluster.CompoundRisk))
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedRisks(risks map[string]radar.AssetRisk) []radar.AssetRisk {
	out := make([]radar.AssetRisk, 0, len(risks))
	for _, risk := range risks {
		out = append(out, risk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}
