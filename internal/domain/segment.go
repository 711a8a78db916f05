package domain

// SegmentRisk is a known line segment with a pre-assessed risk label.
type SegmentRisk struct {
	Name string    `json:"name"`
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
	Risk RiskLabel `json:"risk"`
}

// Marker is a map-marker descriptor for a segment overlay.
type Marker struct {
	Name  string    `json:"name"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Risk  RiskLabel `json:"risk"`
	Color string    `json:"color"`
}

// Marker colours by label.
const (
	ColorHigh    = "#d73027"
	ColorMedium  = "#fc8d59"
	ColorLow     = "#1a9850"
	ColorUnknown = "#999999"
)

// Color returns the overlay colour for a label.
func (l RiskLabel) Color() string {
	switch l {
	case RiskHigh:
		return ColorHigh
	case RiskMedium:
		return ColorMedium
	case RiskLow:
		return ColorLow
	default:
		return ColorUnknown
	}
}

// MarkersFromSegments maps segments to markers, preserving order.
func MarkersFromSegments(segments []SegmentRisk) []Marker {
	markers := make([]Marker, 0, len(segments))
	for _, s := range segments {
		markers = append(markers, Marker{
			Name:  s.Name,
			Lat:   s.Lat,
			Lon:   s.Lon,
			Risk:  s.Risk,
			Color: s.Risk.Color(),
		})
	}
	return markers
}
