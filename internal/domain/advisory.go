package domain

import (
	"fmt"
	"strings"
)

// AdvisoryUnavailable is returned when no forecast has been fetched yet or
// the fetched forecast carries no periods.
const AdvisoryUnavailable = "Weather data is currently unavailable."

// Advise derives a short user-facing advisory from a forecast snapshot.
// It reads the first period only: the temperature is truncated (not rounded)
// to whole Celsius, and the primary condition category selects the phrase.
// Pure function, safe to call with nil.
func Advise(s *ForecastSnapshot) string {
	if s == nil || len(s.Periods) == 0 {
		return AdvisoryUnavailable
	}

	period := s.Periods[0]
	temp := int(period.Temperature)

	var category, description string
	if len(period.Conditions) > 0 {
		category = strings.ToLower(period.Conditions[0].Category)
		description = period.Conditions[0].Description
	}

	var advice string
	switch category {
	case "rain":
		advice = "It's going to rain soon, don't forget your umbrella."
	case "clear":
		advice = "It's sunny outside, a perfect day for sunglasses!"
	case "clouds":
		advice = "It's cloudy, you might need a light jacket."
	default:
		advice = fmt.Sprintf("It's %s outside.", description)
	}

	return fmt.Sprintf("Temperature: %d°C. %s", temp, advice)
}
