package service

import (
	"math"

	"github.com/rwrrioe/integrity/pkg/numeric"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
)

const (
	// DefaultSegmentLength is the pipe segment length reported when the
	// request carries none, in metres.
	DefaultSegmentLength = 1000.0
	// MaxAnomalyScore caps the derived anomaly score.
	MaxAnomalyScore = 0.99
)

const (
	anomalyWeight = 0.85
	anomalyBias   = 0.1
	peakToRMS     = 1.41
)

// AnomalyScore derives the synthetic anomaly score from a numeric risk:
// risk*0.85+0.1 computed in float64, rounded to two decimals, capped at 0.99.
func AnomalyScore(risk float64) float64 {
	return math.Min(numeric.Round(risk*anomalyWeight+anomalyBias, 2), MaxAnomalyScore)
}

// PeakVibration approximates the peak of a sinusoidal signal from its RMS,
// rounded to two decimals.
func PeakVibration(rms float64) float64 {
	return numeric.Round(rms*peakToRMS, 2)
}

// DeriveDefectFeatures assembles the feature set of one defect.
func DeriveDefectFeatures(d model.Defect) model.DefectFeatures {
	risk := d.RiskLevel.Numeric()
	return model.DefectFeatures{
		Depth:         d.Depth,
		Length:        DefaultSegmentLength,
		DefectType:    d.DefectType,
		Pressure:      d.Pressure,
		Diameter:      d.Diameter,
		Age:           d.Age,
		RMSVibration:  d.Vibration,
		PeakVibration: PeakVibration(d.Vibration),
		AnomalyScore:  AnomalyScore(risk),
		Risk:          risk,
	}
}
