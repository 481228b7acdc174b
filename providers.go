package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Providers fetches live data from the geocoding and weather HTTP endpoints.
// Both calls are stateless; every failure is reported as an error string so
// tool handlers can fold it into their result payload.
type Providers struct {
	geocodingURL string
	weatherURL   string
	httpClient   *http.Client
}

// NewProviders creates provider clients from the configured base URLs.
func NewProviders(config Config) *Providers {
	timeout := time.Duration(config.HTTPTimeout)
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Providers{
		geocodingURL: config.GeocodingURL,
		weatherURL:   config.WeatherURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// FetchError reports a transport-level failure reaching a provider, as
// opposed to a non-success response from it.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// Coordinates is one geocoding result.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type geocodingResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// FetchCoordinates resolves a place name to its first geocoding match.
func (p *Providers) FetchCoordinates(ctx context.Context, place string) (Coordinates, error) {
	q := url.Values{}
	q.Set("name", place)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var decoded geocodingResponse
	if err := p.getJSON(ctx, p.geocodingURL+"/v1/search?"+q.Encode(), &decoded); err != nil {
		return Coordinates{}, err
	}
	if len(decoded.Results) == 0 {
		return Coordinates{}, fmt.Errorf("no results for %q", place)
	}
	return Coordinates{
		Latitude:  decoded.Results[0].Latitude,
		Longitude: decoded.Results[0].Longitude,
	}, nil
}

// currentWeatherFields are the current-conditions fields requested from the
// forecast endpoint, in request order.
var currentWeatherFields = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"apparent_temperature",
	"precipitation",
	"wind_speed_10m",
	"wind_direction_10m",
}

type weatherResponse struct {
	Current      map[string]json.Number `json:"current"`
	CurrentUnits map[string]string      `json:"current_units"`
}

// FetchWeather reads the current conditions for the given coordinates. Each
// returned value is concatenated with its unit string, e.g. "18.2°C".
func (p *Providers) FetchWeather(ctx context.Context, latitude, longitude string) (map[string]string, error) {
	q := url.Values{}
	q.Set("latitude", latitude)
	q.Set("longitude", longitude)
	for _, field := range currentWeatherFields {
		q.Add("current", field)
	}
	q.Set("timezone", "auto")
	q.Set("forecast_days", "1")

	var decoded weatherResponse
	if err := p.getJSON(ctx, p.weatherURL+"/v1/forecast?"+q.Encode(), &decoded); err != nil {
		return nil, err
	}

	named := map[string]string{
		"temperature":    "temperature_2m",
		"feels_like":     "apparent_temperature",
		"humidity":       "relative_humidity_2m",
		"precipitation":  "precipitation",
		"wind_speed":     "wind_speed_10m",
		"wind_direction": "wind_direction_10m",
	}
	reading := make(map[string]string, len(named))
	for key, field := range named {
		value, ok := decoded.Current[field]
		if !ok {
			return nil, fmt.Errorf("missing field %s", field)
		}
		reading[key] = value.String() + decoded.CurrentUnits[field]
	}
	return reading, nil
}

func (p *Providers) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return &FetchError{Err: err}
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
