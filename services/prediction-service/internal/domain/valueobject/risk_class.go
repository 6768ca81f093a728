package valueobject

import "fmt"

// RiskClass is an immutable value object representing the ordinal risk bucket
// of a prediction.
type RiskClass struct {
	value string
}

var (
	RiskClassLow      = RiskClass{value: "LOW"}
	RiskClassMedium   = RiskClass{value: "MEDIUM"}
	RiskClassHigh     = RiskClass{value: "HIGH"}
	RiskClassCritical = RiskClass{value: "CRITICAL"}

	// RiskClassError marks a result that could not be computed.
	RiskClassError = RiskClass{value: "ERROR"}
)

// Class boundaries in percent. Each bucket includes its lower bound.
const (
	MediumThreshold   = 30.0
	HighThreshold     = 60.0
	CriticalThreshold = 85.0
)

// RiskClassFromString reconstructs a RiskClass from its string representation.
func RiskClassFromString(s string) (RiskClass, error) {
	switch s {
	case "LOW":
		return RiskClassLow, nil
	case "MEDIUM":
		return RiskClassMedium, nil
	case "HIGH":
		return RiskClassHigh, nil
	case "CRITICAL":
		return RiskClassCritical, nil
	case "ERROR":
		return RiskClassError, nil
	default:
		return RiskClass{}, fmt.Errorf("invalid risk class: %s", s)
	}
}

// RiskClassFromPercent maps a risk percentage to its class. The input is not
// clamped: anything at or above 85 is CRITICAL and anything below 30,
// negatives included, is LOW.
func RiskClassFromPercent(percent float64) RiskClass {
	switch {
	case percent >= CriticalThreshold:
		return RiskClassCritical
	case percent >= HighThreshold:
		return RiskClassHigh
	case percent >= MediumThreshold:
		return RiskClassMedium
	default:
		return RiskClassLow
	}
}

// String returns the string representation.
func (r RiskClass) String() string {
	return r.value
}

// IsZero returns true if the RiskClass has not been set.
func (r RiskClass) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskClass.
func (r RiskClass) Equal(other RiskClass) bool {
	return r.value == other.value
}
