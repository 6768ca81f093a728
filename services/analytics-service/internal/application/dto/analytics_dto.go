package dto

import (
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/valueobject"
)

// DefectMarkerInput is one located defect of an executive request.
type DefectMarkerInput struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// ToModel maps the input to a domain marker.
func (d DefectMarkerInput) ToModel() model.DefectMarker {
	return model.DefectMarker{
		Location: model.GeoPoint{Lat: d.Lat, Lon: d.Lon},
		Type:     d.Type,
		Severity: valueobject.Severity(d.Severity),
	}
}

// ExecutiveRequest is the input DTO for GenerateExecutive.
type ExecutiveRequest struct {
	RequestID    string              `json:"request_id"`
	PipelineName string              `json:"pipeline_name"`
	Defects      []DefectMarkerInput `json:"defects"`
}

// ExecutiveResponse is the output DTO for GenerateExecutive. Degraded lists
// the reasons the response holds fallback content, if any.
type ExecutiveResponse struct {
	KeyFindings     []string               `json:"key_findings"`
	Recommendations []model.Recommendation `json:"recommendations"`
	MapImage        []byte                 `json:"map_image"`
	Degraded        []string               `json:"degraded,omitempty"`
}

// DefectRequest is the input DTO for GenerateDefect.
type DefectRequest struct {
	RequestID  string  `json:"request_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DefectType string  `json:"defect_type"`
	Depth      float64 `json:"depth"`
	Pressure   float64 `json:"pressure"`
	Diameter   float64 `json:"diameter"`
	Age        float64 `json:"age"`
	Vibration  float64 `json:"vibration"`
	RiskLevel  string  `json:"risk_level"`
}

// ToModel maps the request to a domain defect.
func (r DefectRequest) ToModel() model.Defect {
	return model.Defect{
		Location:   model.GeoPoint{Lat: r.Lat, Lon: r.Lon},
		DefectType: r.DefectType,
		Depth:      r.Depth,
		Pressure:   r.Pressure,
		Diameter:   r.Diameter,
		Age:        r.Age,
		Vibration:  r.Vibration,
		RiskLevel:  valueobject.RiskLevel(r.RiskLevel),
	}
}

// DefectResponse is the output DTO for GenerateDefect.
type DefectResponse struct {
	LLMAnalysis string   `json:"llm_analysis"`
	MapImage    []byte   `json:"map_image"`
	Degraded    []string `json:"degraded,omitempty"`
}
