// Package weather fetches multi-period forecasts from an OpenWeatherMap-style
// HTTP API and decodes them into domain snapshots.
package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/observability"
)

// Fetch failure modes. Anything that is not a *StatusError, ErrEmptyBody, or
// ErrDecode is a transport-level (network) failure.
var (
	ErrEmptyBody = errors.New("empty forecast response body")
	ErrDecode    = errors.New("malformed forecast payload")
)

// StatusError reports a non-200 response from the forecast API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("forecast API error: status %d", e.Code)
}

// Client fetches forecasts for a position. Each Fetch issues exactly one
// request; there is no retry and no de-duplication of concurrent calls, so
// overlapping fetches complete independently and in no particular order.
type Client struct {
	apiKey     string
	units      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a forecast client against the given base URL.
func NewClient(baseURL, apiKey, units string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		units:  units,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch requests the forecast for a position and decodes the full payload.
// A decode failure on any required field fails the whole fetch; no partial
// snapshot is ever returned.
func (c *Client) Fetch(ctx context.Context, pos domain.Position) (domain.ForecastSnapshot, error) {
	params := url.Values{
		"latitude":  {fmt.Sprintf("%.6f", pos.Latitude)},
		"longitude": {fmt.Sprintf("%.6f", pos.Longitude)},
		"apiKey":    {c.apiKey},
		"units":     {c.units},
	}

	start := time.Now()
	snapshot, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
	c.metrics.ForecastFetches.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return domain.ForecastSnapshot{}, err
	}

	c.logger.Debug("forecast fetched",
		"city", snapshot.City.Name,
		"country", snapshot.City.Country,
		"periods", len(snapshot.Periods),
	)
	return snapshot, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.ForecastSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return domain.ForecastSnapshot{}, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.ForecastSnapshot{}, ErrEmptyBody
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return p.toSnapshot()
}

// outcome maps a fetch error to its metrics label.
func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrEmptyBody):
		return "empty_body"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "network"
	}
}

// Upstream payload types. Required fields are pointers so a missing field is
// distinguishable from a zero value.

type payload struct {
	City *cityPayload    `json:"city"`
	List []periodPayload `json:"list"`
}

type cityPayload struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type periodPayload struct {
	Dt      *int64             `json:"dt"`
	Main    *metricsPayload    `json:"main"`
	Weather []conditionPayload `json:"weather"`
}

type metricsPayload struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	Pressure  *int     `json:"pressure"`
	Humidity  *int     `json:"humidity"`
}

type conditionPayload struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (p payload) toSnapshot() (domain.ForecastSnapshot, error) {
	if p.City == nil {
		return domain.ForecastSnapshot{}, fmt.Errorf("%w: missing city", ErrDecode)
	}

	snapshot := domain.ForecastSnapshot{
		City:    domain.City{Name: p.City.Name, Country: p.City.Country},
		Periods: make([]domain.ForecastPeriod, 0, len(p.List)),
	}

	for i, entry := range p.List {
		if entry.Dt == nil {
			return domain.ForecastSnapshot{}, fmt.Errorf("%w: period %d missing dt", ErrDecode, i)
		}
		m := entry.Main
		if m == nil {
			return domain.ForecastSnapshot{}, fmt.Errorf("%w: period %d missing main", ErrDecode, i)
		}
		for name, field := range map[string]bool{
			"temp":       m.Temp == nil,
			"feels_like": m.FeelsLike == nil,
			"temp_min":   m.TempMin == nil,
			"temp_max":   m.TempMax == nil,
			"pressure":   m.Pressure == nil,
			"humidity":   m.Humidity == nil,
		} {
			if field {
				return domain.ForecastSnapshot{}, fmt.Errorf("%w: period %d missing main.%s", ErrDecode, i, name)
			}
		}

		conditions := make([]domain.Condition, 0, len(entry.Weather))
		for _, w := range entry.Weather {
			conditions = append(conditions, domain.Condition{
				Code:        w.ID,
				Category:    w.Main,
				Description: w.Description,
				Icon:        w.Icon,
			})
		}

		snapshot.Periods = append(snapshot.Periods, domain.ForecastPeriod{
			Timestamp:   time.Unix(*entry.Dt, 0).UTC(),
			Temperature: *m.Temp,
			FeelsLike:   *m.FeelsLike,
			TempMin:     *m.TempMin,
			TempMax:     *m.TempMax,
			Pressure:    *m.Pressure,
			Humidity:    *m.Humidity,
			Conditions:  conditions,
		})
	}

	return snapshot, nil
}
