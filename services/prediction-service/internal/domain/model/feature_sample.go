package model

import (
	"fmt"
	"math"
)

// NumFeatures is the width of the model input.
const NumFeatures = 9

// FeatureNames lists the model inputs in the order the scaler and the
// network were fit with. Reordering it silently corrupts predictions.
var FeatureNames = [NumFeatures]string{
	"depth",
	"length",
	"defect_type",
	"pressure",
	"diameter",
	"age",
	"rms_vibration",
	"peak_vibration",
	"anomaly_score",
}

// FeatureVector is a raw or scaled model input row.
type FeatureVector [NumFeatures]float64

// FeatureFields carries the named inputs of a single reading.
type FeatureFields struct {
	Depth         float64
	Length        float64
	DefectType    float64
	Pressure      float64
	Diameter      float64
	Age           float64
	RMSVibration  float64
	PeakVibration float64
	AnomalyScore  float64
}

// FeatureSample is an immutable, ordered model input built from one reading.
type FeatureSample struct {
	vector FeatureVector
}

// NewFeatureSample builds a sample in the fixed feature order.
func NewFeatureSample(f FeatureFields) FeatureSample {
	return FeatureSample{vector: FeatureVector{
		f.Depth,
		f.Length,
		f.DefectType,
		f.Pressure,
		f.Diameter,
		f.Age,
		f.RMSVibration,
		f.PeakVibration,
		f.AnomalyScore,
	}}
}

// Vector returns a copy of the ordered feature values.
func (s FeatureSample) Vector() FeatureVector {
	return s.vector
}

// Validate rejects NaN and infinite values, which the network cannot score.
func (s FeatureSample) Validate() error {
	for i, v := range s.vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("feature %s is not a finite number", FeatureNames[i])
		}
	}
	return nil
}
