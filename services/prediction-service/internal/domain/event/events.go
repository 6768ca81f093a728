package event

import (
	"github.com/rwrrioe/integrity/pkg/events"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
)

const (
	// TypeRiskBatchScored is emitted after a batch was scored successfully.
	TypeRiskBatchScored = "risk.batch.scored"
	// TypeRiskBatchFailed is emitted when a batch fell back to the error result.
	TypeRiskBatchFailed = "risk.batch.failed"

	aggregateType = "RiskBatch"
)

// RiskBatchScored summarizes one scored request.
type RiskBatchScored struct {
	events.BaseEvent
	BatchSize      int            `json:"batch_size"`
	ClassCounts    map[string]int `json:"class_counts"`
	MaxRiskPercent float64        `json:"max_risk_percent"`
}

// NewRiskBatchScored builds the event for a request's results.
func NewRiskBatchScored(requestID string, results []model.RiskResult) RiskBatchScored {
	counts := make(map[string]int, 4)
	maxPercent := 0.0
	for _, r := range results {
		counts[r.Class().String()]++
		if r.Percent() > maxPercent {
			maxPercent = r.Percent()
		}
	}
	return RiskBatchScored{
		BaseEvent:      events.NewBaseEvent(TypeRiskBatchScored, requestID, aggregateType),
		BatchSize:      len(results),
		ClassCounts:    counts,
		MaxRiskPercent: maxPercent,
	}
}

// RiskBatchFailed records a request whose scoring failed.
type RiskBatchFailed struct {
	events.BaseEvent
	BatchSize int    `json:"batch_size"`
	Reason    string `json:"reason"`
}

// NewRiskBatchFailed builds the failure event.
func NewRiskBatchFailed(requestID string, batchSize int, reason string) RiskBatchFailed {
	return RiskBatchFailed{
		BaseEvent: events.NewBaseEvent(TypeRiskBatchFailed, requestID, aggregateType),
		BatchSize: batchSize,
		Reason:    reason,
	}
}

// MessageHeaders exposes the failing stage to consumers that filter on headers.
func (e RiskBatchFailed) MessageHeaders() map[string]string {
	return map[string]string{"failure_reason": e.Reason}
}
