package domain

import "time"

// Position is a WGS-84 latitude/longitude pair delivered by the location
// provider. Only the latest value is ever held; no history is retained.
type Position struct {
	Latitude  float64
	Longitude float64
}

// City identifies the place a forecast was resolved to.
type City struct {
	Name    string
	Country string
}

// Condition is one weather condition attached to a forecast period. Periods
// may carry several; the first one is the primary condition.
type Condition struct {
	Code        int
	Category    string // coarse grouping, e.g. "Rain", "Clear", "Clouds"
	Description string // free text, e.g. "light rain"
	Icon        string
}

// ForecastPeriod is a single time slot of a multi-period forecast.
// Temperatures are Celsius, pressure hPa, humidity percent.
type ForecastPeriod struct {
	Timestamp   time.Time
	Temperature float64
	FeelsLike   float64
	TempMin     float64
	TempMax     float64
	Pressure    int
	Humidity    int
	Conditions  []Condition
}

// ForecastSnapshot is the result of one successful forecast fetch. Each
// successful fetch replaces the previous snapshot wholesale; there is no
// merging of periods across fetches.
type ForecastSnapshot struct {
	City    City
	Periods []ForecastPeriod
}

// Primary returns the primary condition of the first period, if any.
func (s *ForecastSnapshot) Primary() (Condition, bool) {
	if s == nil || len(s.Periods) == 0 || len(s.Periods[0].Conditions) == 0 {
		return Condition{}, false
	}
	return s.Periods[0].Conditions[0], true
}
