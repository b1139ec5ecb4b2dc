// Package domain holds the core types of the Rainy Days app: user-created
// events, positions and map viewports, and decoded weather forecasts.
//
// # Forecast data
//
// Forecasts come from an OpenWeatherMap-style multi-period endpoint. The
// upstream payload nests a city object and a list of periods; each period
// carries a metrics object and an ordered list of conditions. The adapter
// normalizes that shape into [ForecastSnapshot] before it enters this package,
// so everything here is already metric (Celsius, hPa, percent).
//
// # Advisories
//
// [Advise] maps a snapshot to one of a small set of canned phrases keyed on
// the primary condition category of the first period:
//
//	rain   → umbrella reminder
//	clear  → sunglasses suggestion
//	clouds → light jacket suggestion
//	other  → "It's {description} outside." using the provider's free text
//
// The temperature is truncated toward zero to whole Celsius, matching the
// behavior users saw in earlier releases (21.7°C renders as 21°C).
package domain
