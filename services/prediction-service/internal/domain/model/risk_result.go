package model

import (
	"github.com/rwrrioe/integrity/pkg/numeric"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/valueobject"
)

// ErrorPercent is the risk percent reported when scoring failed.
const ErrorPercent = -1.0

// RiskResult is the scored outcome for one sample.
type RiskResult struct {
	percent float64
	class   valueobject.RiskClass
}

// NewRiskResult derives a result from a model probability in (0,1). The
// class is taken from the unrounded probability×100; only the reported
// percent is rounded to two decimals.
func NewRiskResult(probability float64) RiskResult {
	raw := probability * 100
	return RiskResult{
		percent: numeric.Round(raw, 2),
		class:   valueobject.RiskClassFromPercent(raw),
	}
}

// ErrorResult returns the sentinel reported when a single prediction fails.
func ErrorResult() RiskResult {
	return RiskResult{percent: ErrorPercent, class: valueobject.RiskClassError}
}

// Percent returns the risk percent.
func (r RiskResult) Percent() float64 { return r.percent }

// Class returns the risk class.
func (r RiskResult) Class() valueobject.RiskClass { return r.class }

// IsError reports whether r is the failure sentinel.
func (r RiskResult) IsError() bool {
	return r.class.Equal(valueobject.RiskClassError)
}
