package model

import (
	"math"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/valueobject"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point is a finite coordinate on the globe.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DefectMarker is a located defect as shown on the overview map.
type DefectMarker struct {
	Location GeoPoint
	Type     string
	Severity valueobject.Severity
}

// Defect is a single inspected defect with its physical context.
type Defect struct {
	Location   GeoPoint
	DefectType string
	Depth      float64
	Pressure   float64
	Diameter   float64
	Age        float64
	Vibration  float64
	RiskLevel  valueobject.RiskLevel
}
