package dto

import (
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
)

// RiskInput is one reading to score.
type RiskInput struct {
	Depth         float64 `json:"depth"`
	Length        float64 `json:"length"`
	DefectType    float64 `json:"defect_type"`
	Pressure      float64 `json:"pressure"`
	Diameter      float64 `json:"diameter"`
	Age           float64 `json:"age"`
	RMSVibration  float64 `json:"rms_vibration"`
	PeakVibration float64 `json:"peak_vibration"`
	AnomalyScore  float64 `json:"anomaly_score"`
}

// ToSample maps the input to the domain feature sample.
func (r RiskInput) ToSample() model.FeatureSample {
	return model.NewFeatureSample(model.FeatureFields{
		Depth:         r.Depth,
		Length:        r.Length,
		DefectType:    r.DefectType,
		Pressure:      r.Pressure,
		Diameter:      r.Diameter,
		Age:           r.Age,
		RMSVibration:  r.RMSVibration,
		PeakVibration: r.PeakVibration,
		AnomalyScore:  r.AnomalyScore,
	})
}

// RiskOutput is the scored result of one reading.
type RiskOutput struct {
	RiskClass   string  `json:"risk_class"`
	RiskPercent float64 `json:"risk_percent"`
}

// FromResult maps a domain result to the output DTO.
func FromResult(r model.RiskResult) RiskOutput {
	return RiskOutput{
		RiskPercent: r.Percent(),
		RiskClass:   r.Class().String(),
	}
}

// BatchRequest is the input DTO for PredictBatch.
type BatchRequest struct {
	RequestID string      `json:"request_id"`
	Inputs    []RiskInput `json:"inputs"`
}

// BatchResponse is the output DTO for PredictBatch.
type BatchResponse struct {
	Outputs []RiskOutput `json:"outputs"`
}
