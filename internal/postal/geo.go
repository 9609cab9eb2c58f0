package postal

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"post-assist-bot/internal/errs"
	"post-assist-bot/internal/logger"
	"post-assist-bot/internal/metrics"

	"github.com/goccy/go-json"
)

const ENDPOINT_GEOCODE = "geocode"

// GeoResolver turns coordinates into a pincode with a reverse geocoding
// lookup. Coordinates are not cached.
type GeoResolver struct {
	cl      Invoker
	baseURL string
	metrics metrics.Recorder
}

func NewGeoResolver(cl Invoker, baseURL string, rec metrics.Recorder) *GeoResolver {
	return &GeoResolver{
		cl:      cl,
		baseURL: baseURL,
		metrics: rec,
	}
}

func (g *GeoResolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	var v = url.Values{}
	v.Add("format", "json")
	v.Add("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Add("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	v.Add("zoom", "18")
	v.Add("addressdetails", "1")

	body, err := g.cl.Invoke(ctx, g.baseURL, v)
	if err != nil {
		g.metrics.IncUpstreamCall(ENDPOINT_GEOCODE, metrics.OutcomeError)
		logger.Warning("Reverse geocoding request failed:", err)
		return "", err
	}

	var answer reverseAnswer
	if err := json.Unmarshal(body, &answer); err != nil {
		g.metrics.IncUpstreamCall(ENDPOINT_GEOCODE, metrics.OutcomeMalformed)
		logger.Warning("Error parsing reverse geocoding response:", err)
		return "", &errs.UpstreamMalformedError{Url: g.baseURL, Err: err}
	}

	if answer.Address == nil || answer.Address.Postcode == nil || strings.TrimSpace(*answer.Address.Postcode) == "" {
		g.metrics.IncUpstreamCall(ENDPOINT_GEOCODE, metrics.OutcomeNotFound)
		message := "no postcode for location"
		if answer.Error != "" {
			message = answer.Error
		}
		return "", &errs.NotFoundError{Message: message}
	}

	g.metrics.IncUpstreamCall(ENDPOINT_GEOCODE, metrics.OutcomeOK)
	return strings.TrimSpace(*answer.Address.Postcode), nil
}
