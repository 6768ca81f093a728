// Package artifact loads the serialized feature scaler produced at training
// time.
package artifact

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rwrrioe/integrity/services/prediction-service/internal/domain/model"
)

// Scaler kinds, named after the scikit-learn transformers they mirror.
const (
	KindStandard = "standard"
	KindMinMax   = "minmax"
)

// ErrInvalidScaler is returned for artifacts that cannot be used.
var ErrInvalidScaler = errors.New("invalid scaler artifact")

// scalerFile is the on-disk layout. JSON is valid YAML, so either format loads.
type scalerFile struct {
	Kind     string    `yaml:"kind"`
	Features []string  `yaml:"features"`
	Mean     []float64 `yaml:"mean"`
	Scale    []float64 `yaml:"scale"`
	Min      []float64 `yaml:"min"`
}

// Scaler is an immutable affine per-feature transform.
//
//	standard: (x - mean) / scale
//	minmax:   x * scale + min
type Scaler struct {
	kind   string
	offset model.FeatureVector
	scale  model.FeatureVector
}

// LoadScaler reads and validates the scaler artifact at path.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler %s: %w", path, err)
	}
	s, err := ParseScaler(data)
	if err != nil {
		return nil, fmt.Errorf("load scaler %s: %w", path, err)
	}
	return s, nil
}

// ParseScaler decodes a scaler artifact.
func ParseScaler(data []byte) (*Scaler, error) {
	var f scalerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScaler, err)
	}

	if len(f.Features) > 0 {
		if err := checkFeatureOrder(f.Features); err != nil {
			return nil, err
		}
	}

	s := &Scaler{kind: f.Kind}
	switch f.Kind {
	case KindStandard:
		if err := fill(&s.offset, f.Mean, "mean"); err != nil {
			return nil, err
		}
		if err := fill(&s.scale, f.Scale, "scale"); err != nil {
			return nil, err
		}
		for i, v := range s.scale {
			if v == 0 {
				s.scale[i] = 1
			}
		}
	case KindMinMax:
		if err := fill(&s.offset, f.Min, "min"); err != nil {
			return nil, err
		}
		if err := fill(&s.scale, f.Scale, "scale"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidScaler, f.Kind)
	}

	return s, nil
}

// Kind returns the transform kind.
func (s *Scaler) Kind() string {
	return s.kind
}

// Transform scales each row into a new slice.
func (s *Scaler) Transform(rows []model.FeatureVector) ([]model.FeatureVector, error) {
	out := make([]model.FeatureVector, len(rows))
	for i, row := range rows {
		for j, x := range row {
			var v float64
			if s.kind == KindStandard {
				v = (x - s.offset[j]) / s.scale[j]
			} else {
				v = x*s.scale[j] + s.offset[j]
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("row %d feature %s scaled to a non-finite value", i, model.FeatureNames[j])
			}
			out[i][j] = v
		}
	}
	return out, nil
}

func fill(dst *model.FeatureVector, values []float64, field string) error {
	if len(values) != model.NumFeatures {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrInvalidScaler, field, len(values), model.NumFeatures)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d] is not finite", ErrInvalidScaler, field, i)
		}
		dst[i] = v
	}
	return nil
}

func checkFeatureOrder(features []string) error {
	if len(features) != model.NumFeatures {
		return fmt.Errorf("%w: %d features listed, want %d", ErrInvalidScaler, len(features), model.NumFeatures)
	}
	for i, name := range features {
		if name != model.FeatureNames[i] {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrInvalidScaler, i, name, model.FeatureNames[i])
		}
	}
	return nil
}
