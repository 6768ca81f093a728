package valueobject

// RiskLevel is the textual risk grade of a single defect.
type RiskLevel string

// DefaultNumericRisk applies to unrecognized risk levels.
const DefaultNumericRisk = 0.5

var numericRisk = map[RiskLevel]float64{
	"Critical": 0.95,
	"High":     0.75,
	"Medium":   0.45,
	"Low":      0.15,
}

// Numeric maps the level to a risk in [0,1]. Matching is exact, so
// "critical" is unrecognized and yields DefaultNumericRisk.
func (r RiskLevel) Numeric() float64 {
	if v, ok := numericRisk[r]; ok {
		return v
	}
	return DefaultNumericRisk
}

// String returns the label.
func (r RiskLevel) String() string {
	return string(r)
}
