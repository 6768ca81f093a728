package valueobject

// Severity is the inspection label attached to a defect. Labels are kept as
// received; only the known values carry meaning.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// IsCritical reports whether the defect counts toward the critical total.
// Critical and High both qualify.
func (s Severity) IsCritical() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// IsMedium reports whether s is Medium.
func (s Severity) IsMedium() bool {
	return s == SeverityMedium
}

// String returns the label.
func (s Severity) String() string {
	return string(s)
}
