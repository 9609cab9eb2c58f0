package postal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"post-assist-bot/internal/errs"
	"post-assist-bot/internal/logger"
	"post-assist-bot/internal/metrics"

	"github.com/goccy/go-json"
)

const ENDPOINT_PINCODE = "pincode"

type PincodeResolver struct {
	cl      Invoker
	baseURL string
	cache   OfficeCache
	ttl     time.Duration
	metrics metrics.Recorder

	now func() time.Time
}

func NewPincodeResolver(cl Invoker, baseURL string, cache OfficeCache, ttl time.Duration, rec metrics.Recorder) *PincodeResolver {
	return &PincodeResolver{
		cl:      cl,
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		cache:   cache,
		ttl:     ttl,
		metrics: rec,
		now:     time.Now,
	}
}

// Resolve returns the offices of a 6-digit pincode. A fresh cache entry is
// returned without touching the network; failures are never cached.
func (r *PincodeResolver) Resolve(ctx context.Context, pincode string) ([]Office, error) {
	if entry, ok := r.cache.Get(pincode); ok && r.now().Sub(entry.FetchedAt) < r.ttl {
		r.metrics.IncPincodeCacheHit()
		logger.Debug("Pincode from cache:", pincode)
		return entry.Offices, nil
	}
	r.metrics.IncPincodeCacheMiss()

	reqUrl := r.baseURL + pincode
	body, err := r.cl.Invoke(ctx, reqUrl, nil)
	if err != nil {
		r.metrics.IncUpstreamCall(ENDPOINT_PINCODE, metrics.OutcomeError)
		logger.Warning("API request failed for pincode", pincode, err)
		return nil, err
	}

	var answers []pincodeAnswer
	if err := json.Unmarshal(body, &answers); err != nil {
		r.metrics.IncUpstreamCall(ENDPOINT_PINCODE, metrics.OutcomeMalformed)
		logger.Warning("Data parsing error for pincode", pincode, err)
		return nil, &errs.UpstreamMalformedError{Url: reqUrl, Err: err}
	}
	if len(answers) == 0 || answers[0].Status == nil {
		r.metrics.IncUpstreamCall(ENDPOINT_PINCODE, metrics.OutcomeMalformed)
		err := fmt.Errorf("expected a non-empty list with Status, got %d elements", len(answers))
		logger.Warning("Data parsing error for pincode", pincode, err)
		return nil, &errs.UpstreamMalformedError{Url: reqUrl, Err: err}
	}

	answer := answers[0]
	if *answer.Status != "Success" {
		r.metrics.IncUpstreamCall(ENDPOINT_PINCODE, metrics.OutcomeNotFound)
		message := answer.Message
		if message == "" {
			message = "Pincode not found"
		}
		logger.Info("Pincode not found:", pincode, message)
		return nil, &errs.NotFoundError{Message: message}
	}

	r.metrics.IncUpstreamCall(ENDPOINT_PINCODE, metrics.OutcomeOK)
	offices := answer.PostOffice
	if offices == nil {
		offices = []Office{}
	}

	r.cache.Set(CacheEntry{
		Pincode:   pincode,
		Offices:   offices,
		FetchedAt: r.now(),
	})

	return offices, nil
}
