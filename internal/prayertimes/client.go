package prayertimes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mihrab-app/mihrab/internal/model"
)

const (
	defaultBaseURL = "https://api.aladhan.com"
	requestTimeout = 10 * time.Second
)

// Client talks to an AlAdhan-compatible timings HTTP API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

var _ Calculator = (*Client)(nil)

// NewClient builds a Client for the given base URL. An empty baseURL selects
// the public AlAdhan endpoint.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid prayer API base URL %q: %w", baseURL, err)
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: requestTimeout},
	}, nil
}

type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings map[string]string `json:"timings"`
	} `json:"data"`
}

// Calculate fetches the day's timings and parses them into instants anchored
// to the date's location.
func (c *Client) Calculate(ctx context.Context, coords Coordinates, date time.Time, method, madhab string) (model.PrayerTimes, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	if method != "" {
		values.Set("method", method)
	}
	// The API calls the madhab parameter "school": 0 shafi, 1 hanafi.
	if strings.EqualFold(madhab, "hanafi") {
		values.Set("school", "1")
	} else if madhab != "" {
		values.Set("school", "0")
	}

	endpoint := *c.baseURL
	endpoint.Path = "/v1/timings/" + date.Format("02-01-2006")
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return model.PrayerTimes{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.PrayerTimes{}, fmt.Errorf("prayer times request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.PrayerTimes{}, fmt.Errorf("prayer times API returned %s", resp.Status)
	}

	var payload timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.PrayerTimes{}, fmt.Errorf("decode prayer times response: %w", err)
	}
	return parseTimings(payload.Data.Timings, date)
}

// parseTimings converts "HH:MM" clock strings to instants on the given date.
func parseTimings(timings map[string]string, date time.Time) (model.PrayerTimes, error) {
	at := func(key string) (time.Time, error) {
		raw, ok := timings[key]
		if !ok {
			return time.Time{}, fmt.Errorf("timing %q missing from response", key)
		}
		// Some deployments suffix the timezone, e.g. "05:12 (EET)".
		raw = strings.TrimSpace(strings.SplitN(raw, " ", 2)[0])
		clock, err := time.Parse("15:04", raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("timing %q has bad value %q: %w", key, raw, err)
		}
		return time.Date(date.Year(), date.Month(), date.Day(),
			clock.Hour(), clock.Minute(), 0, 0, date.Location()), nil
	}

	var times model.PrayerTimes
	var err error
	if times.Fajr, err = at("Fajr"); err != nil {
		return model.PrayerTimes{}, err
	}
	if times.Dhuhr, err = at("Dhuhr"); err != nil {
		return model.PrayerTimes{}, err
	}
	if times.Asr, err = at("Asr"); err != nil {
		return model.PrayerTimes{}, err
	}
	if times.Maghrib, err = at("Maghrib"); err != nil {
		return model.PrayerTimes{}, err
	}
	if times.Isha, err = at("Isha"); err != nil {
		return model.PrayerTimes{}, err
	}
	if sunrise, err := at("Sunrise"); err == nil {
		times.Sunrise = &sunrise
	}
	if sunset, err := at("Sunset"); err == nil {
		times.Sunset = &sunset
	}
	return times, nil
}
