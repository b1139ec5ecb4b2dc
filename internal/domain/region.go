package domain

// DefaultViewportSpan is the fixed span, in degrees, of the map viewport
// computed around a position fix.
const DefaultViewportSpan = 0.05

// Region is a map viewport: a center position plus a latitude/longitude span.
type Region struct {
	Center  Position
	LatSpan float64
	LonSpan float64
}

// RegionAround returns a square viewport of the given span centered on p.
// A non-positive span falls back to DefaultViewportSpan.
func RegionAround(p Position, span float64) Region {
	if span <= 0 {
		span = DefaultViewportSpan
	}
	return Region{Center: p, LatSpan: span, LonSpan: span}
}
