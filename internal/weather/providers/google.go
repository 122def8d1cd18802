package providers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errNoAPIKey = errors.New("google geocoder api key is not configured")

// The geocoder package keeps its key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder resolves a place name through the Google Maps geocoding API.
// It returns at most one match and is meant as a fallback behind OpenMeteo.
type GoogleGeocoder struct {
	name    string
	apiKey  string
	metrics *metrics.Metrics

	geocode func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder creates a GoogleGeocoder. The key is process-wide: every
// GoogleGeocoder uses the key passed to the most recent call.
func NewGoogleGeocoder(apiKey string, m *metrics.Metrics) *GoogleGeocoder {
	if apiKey != "" {
		googleKeyMu.Lock()
		geocoder.ApiKey = apiKey
		googleKeyMu.Unlock()
	}
	return &GoogleGeocoder{
		name:    "google",
		apiKey:  apiKey,
		metrics: m,
		geocode: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

type googleResult struct {
	loc weather.Location
	ok  bool
	err error
}

// Search geocodes query as a city name. The count argument is accepted for
// interface compatibility; Google answers with a single best match.
func (g *GoogleGeocoder) Search(ctx context.Context, query string, _ int) ([]weather.Location, error) {
	if g.apiKey == "" {
		return nil, errNoAPIKey
	}

	start := time.Now()
	done := make(chan googleResult, 1)

	// The client library has no context support.
	go func() {
		done <- g.lookup(query)
	}()

	select {
	case <-ctx.Done():
		g.metrics.ObserveUpstream(g.name, "geocoding", metrics.OutcomeError, time.Since(start))
		return nil, ctx.Err()
	case res := <-done:
		g.metrics.ObserveUpstream(g.name, "geocoding", outcomeOf(res.err), time.Since(start))
		if res.err != nil {
			return nil, res.err
		}
		if !res.ok {
			return []weather.Location{}, nil
		}
		return []weather.Location{res.loc}, nil
	}
}

func (g *GoogleGeocoder) lookup(query string) googleResult {
	point, err := g.geocode(geocoder.Address{City: query})
	if err != nil {
		return googleResult{err: err}
	}
	if point.Latitude == 0 && point.Longitude == 0 {
		return googleResult{}
	}

	loc := weather.Location{
		Name:      strings.TrimSpace(query),
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
	}

	// Reverse lookup only enriches the label; a failure keeps the bare match.
	if addrs, err := g.reverse(point); err == nil && len(addrs) > 0 {
		a := addrs[0]
		if a.City != "" {
			loc.Name = a.City
		}
		loc.Admin1 = a.State
		loc.Country = a.Country
	}
	return googleResult{loc: loc, ok: true}
}
