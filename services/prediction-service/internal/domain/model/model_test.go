package model_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/valueobject"
)

func TestNewFeatureSample_Order(t *testing.T) {
	sample := model.NewFeatureSample(model.FeatureFields{
		Depth:         1,
		Length:        2,
		DefectType:    3,
		Pressure:      4,
		Diameter:      5,
		Age:           6,
		RMSVibration:  7,
		PeakVibration: 8,
		AnomalyScore:  9,
	})

	assert.Equal(t, model.FeatureVector{1, 2, 3, 4, 5, 6, 7, 8, 9}, sample.Vector())
	assert.Equal(t, "depth", model.FeatureNames[0])
	assert.Equal(t, "anomaly_score", model.FeatureNames[8])
}

func TestFeatureSample_VectorIsCopy(t *testing.T) {
	sample := model.NewFeatureSample(model.FeatureFields{Depth: 1})
	v := sample.Vector()
	v[0] = 42
	assert.Equal(t, 1.0, sample.Vector()[0])
}

func TestFeatureSample_Validate(t *testing.T) {
	assert.NoError(t, model.NewFeatureSample(model.FeatureFields{Pressure: 55.5}).Validate())

	err := model.NewFeatureSample(model.FeatureFields{Pressure: math.NaN()}).Validate()
	assert.ErrorContains(t, err, "pressure")

	err = model.NewFeatureSample(model.FeatureFields{AnomalyScore: math.Inf(1)}).Validate()
	assert.ErrorContains(t, err, "anomaly_score")
}

func TestNewRiskResult(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		percent     float64
		class       valueobject.RiskClass
	}{
		{"low", 0.12345, 12.35, valueobject.RiskClassLow},
		{"classified before rounding", 0.299996, 30.0, valueobject.RiskClassLow},
		{"high just below critical", 0.849999, 85.0, valueobject.RiskClassHigh},
		{"high", 0.6, 60.0, valueobject.RiskClassHigh},
		{"critical boundary", 0.85, 85.0, valueobject.RiskClassCritical},
		{"near one", 0.999999, 100.0, valueobject.RiskClassCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.NewRiskResult(tt.probability)
			assert.Equal(t, tt.percent, r.Percent())
			assert.Equal(t, tt.class, r.Class())
			assert.False(t, r.IsError())
		})
	}
}

func TestNewRiskResult_Monotonic(t *testing.T) {
	prev := model.NewRiskResult(0).Percent()
	for i := 1; i <= 1000; i++ {
		cur := model.NewRiskResult(float64(i) / 1000).Percent()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestErrorResult(t *testing.T) {
	r := model.ErrorResult()
	assert.Equal(t, -1.0, r.Percent())
	assert.Equal(t, "ERROR", r.Class().String())
	assert.True(t, r.IsError())
}
