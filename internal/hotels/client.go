// Package hotels talks to the hotels4 inventory API. Every exported lookup
// fails soft: transport and shape errors are logged and turn into empty
// results or sentinel fields.
package hotels

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"hotel-bot/pkg/logger"
)

const (
	cityPath   = "locations/v3/search"
	listPath   = "properties/v2/list"
	detailPath = "properties/v2/detail"

	maxBodySize = 8 << 20
)

type Options struct {
	BaseURL         string
	Key             string
	Host            string
	Timeout         time.Duration
	MaxTries        int
	MaxElapsed      time.Duration
	InitialBackoff  time.Duration
	Parallelism     int
	ResultsSize     int
	SiteURLTemplate string
	DumpDir         string
}

func (o *Options) setDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = "https://hotels4.p.rapidapi.com"
	}
	if o.Host == "" {
		if u, err := url.Parse(o.BaseURL); err == nil {
			o.Host = u.Host
		}
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxTries <= 0 {
		o.MaxTries = 2
	}
	if o.MaxElapsed <= 0 {
		o.MaxElapsed = 20 * time.Second
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 4
	}
	if o.ResultsSize <= 0 {
		o.ResultsSize = 200
	}
}

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hotels api %s: unexpected status %d", e.Path, e.Code)
}

// Transient reports whether retrying may help.
func (e *StatusError) Transient() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

type Client struct {
	opts   Options
	http   *http.Client
	cache  Cache
	logger *logger.Logger
}

func New(opts Options, cache Cache, logger *logger.Logger) *Client {
	opts.setDefaults()
	if cache == nil {
		cache = NopCache{}
	}
	return &Client{
		opts:   opts,
		http:   &http.Client{},
		cache:  cache,
		logger: logger.Named("hotels"),
	}
}

// do sends one request with the retry policy: transport errors and 5xx/429
// are retried, anything else is final. Each attempt gets its own timeout.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", path, err)
		}
	}

	var result []byte
	op := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-RapidAPI-Key", c.opts.Key)
		req.Header.Set("X-RapidAPI-Host", c.opts.Host)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{Path: path, Code: resp.StatusCode}
			if serr.Transient() {
				return serr
			}
			return backoff.Permanent(serr)
		}
		result = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InitialBackoff
	policy.MaxElapsedTime = c.opts.MaxElapsed
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.opts.MaxTries-1)), ctx)

	err := backoff.RetryNotify(op, retry, func(err error, wait time.Duration) {
		c.logger.Warnw("Retrying hotels api call", "path", path, "wait", wait, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("hotels api %s: %w", path, err)
	}
	return result, nil
}
