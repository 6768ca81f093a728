package event

import (
	"strings"

	"github.com/rwrrioe/integrity/pkg/events"
)

const (
	// TypeReportGenerated is emitted after every analytics report.
	TypeReportGenerated = "analytics.report.generated"

	aggregateType = "AnalyticsReport"

	KindExecutive = "executive"
	KindDefect    = "defect"
)

// ReportGenerated records a served report and whether it was degraded.
type ReportGenerated struct {
	events.BaseEvent
	Kind         string   `json:"kind"`
	Subject      string   `json:"subject"`
	DefectCount  int      `json:"defect_count"`
	Degraded     []string `json:"degraded,omitempty"`
	MapSizeBytes int      `json:"map_size_bytes"`
}

// NewReportGenerated builds the event. subject is the pipeline name or the
// defect type.
func NewReportGenerated(requestID, kind, subject string, defectCount, mapSize int, degraded []string) ReportGenerated {
	return ReportGenerated{
		BaseEvent:    events.NewBaseEvent(TypeReportGenerated, requestID, aggregateType),
		Kind:         kind,
		Subject:      subject,
		DefectCount:  defectCount,
		Degraded:     degraded,
		MapSizeBytes: mapSize,
	}
}

// MessageHeaders tags the record with its report kind and, when any, the
// comma-joined degraded reasons.
func (e ReportGenerated) MessageHeaders() map[string]string {
	h := map[string]string{"report_kind": e.Kind}
	if len(e.Degraded) > 0 {
		h["degraded"] = strings.Join(e.Degraded, ",")
	}
	return h
}
