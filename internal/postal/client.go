package postal

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"post-assist-bot/internal/errs"
	"post-assist-bot/internal/logger"
)

// Invoker performs a GET against a third-party API and returns the body of a 2xx answer.
type Invoker interface {
	Invoke(ctx context.Context, reqUrl string, urlParams url.Values) ([]byte, error)
}

type Client struct {
	userAgent string

	cl *http.Client
}

func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		userAgent: userAgent,

		cl: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 5,
			},
		},
	}
}

func (c *Client) Invoke(ctx context.Context, reqUrl string, urlParams url.Values) ([]byte, error) {
	if urlParams != nil {
		reqUrl += "?" + urlParams.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return nil, &errs.UpstreamUnavailableError{Url: reqUrl, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	logger.Debug("---> request", req.Method, reqUrl)

	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, &errs.UpstreamUnavailableError{Url: reqUrl, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	logger.Debug("<--- request", req.Method, reqUrl, "with code", resp.StatusCode)
	if err != nil {
		return nil, &errs.UpstreamUnavailableError{Url: reqUrl, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errs.UpstreamUnavailableError{
			Url:     reqUrl,
			Code:    resp.StatusCode,
			Message: string(bodyBytes),
		}
	}

	return bodyBytes, nil
}
