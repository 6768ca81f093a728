package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwrrioe/integrity/pkg/events"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/application/dto"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/event"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/service"
)

// --- In-memory doubles ---

type passScaler struct {
	calls int
	err   error
}

func (s *passScaler) Transform(rows []model.FeatureVector) ([]model.FeatureVector, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return rows, nil
}

// depthModel returns the depth feature as the logit.
type depthModel struct {
	calls int
	err   error
}

func (m *depthModel) Logits(_ context.Context, rows []model.FeatureVector) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[0]
	}
	return out, nil
}

type recordingPublisher struct {
	published []events.DomainEvent
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	p.published = append(p.published, evts...)
	return p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	scaler    *passScaler
	model     *depthModel
	publisher *recordingPublisher
	batch     *PredictBatch
	one       *PredictOne
}

func newFixture() *fixture {
	f := &fixture{
		scaler:    &passScaler{},
		model:     &depthModel{},
		publisher: &recordingPublisher{},
	}
	predictor := service.NewRiskPredictor(f.scaler, f.model)
	f.batch = NewPredictBatch(predictor, f.publisher, discardLogger())
	f.one = NewPredictOne(f.batch)
	return f
}

// --- Tests ---

func TestPredictBatch_Empty(t *testing.T) {
	f := newFixture()

	resp, err := f.batch.Execute(context.Background(), dto.BatchRequest{RequestID: "r"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Outputs)
	assert.Empty(t, resp.Outputs)
	assert.Zero(t, f.scaler.calls)
	assert.Zero(t, f.model.calls)
	assert.Empty(t, f.publisher.published)
}

func TestPredictBatch_PreservesOrder(t *testing.T) {
	f := newFixture()

	resp, err := f.batch.Execute(context.Background(), dto.BatchRequest{
		RequestID: "r1",
		Inputs: []dto.RiskInput{
			{Depth: 5},
			{Depth: -5},
			{Depth: 0},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Outputs, 3)

	assert.Equal(t, dto.RiskOutput{RiskPercent: 99.33, RiskClass: "CRITICAL"}, resp.Outputs[0])
	assert.Equal(t, dto.RiskOutput{RiskPercent: 0.67, RiskClass: "LOW"}, resp.Outputs[1])
	assert.Equal(t, dto.RiskOutput{RiskPercent: 50, RiskClass: "MEDIUM"}, resp.Outputs[2])

	require.Len(t, f.publisher.published, 1)
	scored, ok := f.publisher.published[0].(event.RiskBatchScored)
	require.True(t, ok)
	assert.Equal(t, 3, scored.BatchSize)
	assert.Equal(t, "r1", scored.AggregateID())
}

func TestPredictBatch_InferenceError(t *testing.T) {
	f := newFixture()
	f.model.err = errors.New("session closed")

	resp, err := f.batch.Execute(context.Background(), dto.BatchRequest{
		RequestID: "r2",
		Inputs:    []dto.RiskInput{{Depth: 1}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInference)
	assert.Empty(t, resp.Outputs)

	require.Len(t, f.publisher.published, 1)
	failed, ok := f.publisher.published[0].(event.RiskBatchFailed)
	require.True(t, ok)
	assert.Equal(t, "inference", failed.Reason)
}

func TestPredictBatch_ScalingError(t *testing.T) {
	f := newFixture()
	f.scaler.err = errors.New("bad row")

	_, err := f.batch.Execute(context.Background(), dto.BatchRequest{
		Inputs: []dto.RiskInput{{Depth: 1}},
	})
	assert.ErrorIs(t, err, service.ErrScaling)
	assert.Zero(t, f.model.calls)
}

func TestPredictBatch_PublisherFailureIgnored(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	resp, err := f.batch.Execute(context.Background(), dto.BatchRequest{
		Inputs: []dto.RiskInput{{Depth: 2}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Outputs, 1)
}

func TestPredictBatch_NilPublisher(t *testing.T) {
	predictor := service.NewRiskPredictor(&passScaler{}, &depthModel{})
	uc := NewPredictBatch(predictor, nil, discardLogger())

	resp, err := uc.Execute(context.Background(), dto.BatchRequest{Inputs: []dto.RiskInput{{}}})
	require.NoError(t, err)
	assert.Len(t, resp.Outputs, 1)
}

func TestPredictOne_MatchesBatch(t *testing.T) {
	f := newFixture()
	in := dto.RiskInput{Depth: 1.2, Length: 1000, Pressure: 50}

	single, err := f.one.Execute(context.Background(), "one", in)
	require.NoError(t, err)

	batch, err := f.batch.Execute(context.Background(), dto.BatchRequest{Inputs: []dto.RiskInput{in}})
	require.NoError(t, err)

	assert.Equal(t, batch.Outputs[0], single)
}

func TestPredictOne_Error(t *testing.T) {
	f := newFixture()
	f.model.err = errors.New("boom")

	_, err := f.one.Execute(context.Background(), "one", dto.RiskInput{})
	assert.ErrorIs(t, err, service.ErrInference)
}
