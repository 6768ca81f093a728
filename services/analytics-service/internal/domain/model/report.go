package model

// DefaultPriority applies to recommendations the narrative left unprioritized.
const DefaultPriority = "Medium"

// Recommendation is one action item of an executive report.
type Recommendation struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExecutiveNarrative is the structured text of an executive report.
type ExecutiveNarrative struct {
	Findings        []string         `json:"findings"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Normalized returns a copy with nil lists replaced by empty ones and empty
// priorities set to DefaultPriority.
func (n ExecutiveNarrative) Normalized() ExecutiveNarrative {
	out := ExecutiveNarrative{
		Findings:        make([]string, len(n.Findings)),
		Recommendations: make([]Recommendation, len(n.Recommendations)),
	}
	copy(out.Findings, n.Findings)
	for i, r := range n.Recommendations {
		if r.Priority == "" {
			r.Priority = DefaultPriority
		}
		out.Recommendations[i] = r
	}
	return out
}

// ParseFailureNarrative is used when the narrative text is not valid JSON.
func ParseFailureNarrative() ExecutiveNarrative {
	return ExecutiveNarrative{
		Findings:        []string{"Data processing error"},
		Recommendations: []Recommendation{},
	}
}

// UnavailableNarrative is used when the narrative engine could not be reached.
func UnavailableNarrative() ExecutiveNarrative {
	return ExecutiveNarrative{
		Findings:        []string{"Automated analysis temporarily unavailable."},
		Recommendations: []Recommendation{},
	}
}

// MapImage is a rendered PNG. BasemapMissing is set when background tiles
// could not be drawn and the image holds only the vector layer.
type MapImage struct {
	PNG            []byte
	BasemapMissing bool
}

// DefectFeatures is the feature set describing one defect to the narrative
// engine.
type DefectFeatures struct {
	Depth         float64 `json:"depth"`
	Length        float64 `json:"length"`
	DefectType    string  `json:"defect_type"`
	Pressure      float64 `json:"pressure"`
	Diameter      float64 `json:"diameter"`
	Age           float64 `json:"age"`
	RMSVibration  float64 `json:"rms_vibration"`
	PeakVibration float64 `json:"peak_vibration"`
	AnomalyScore  float64 `json:"anomaly_score"`
	Risk          float64 `json:"risk"`
}
