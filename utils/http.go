package utils

import (
	"context"
	"net/http"
	"time"
)

// NewHTTPClient returns the client used for upstream catalog requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func NewUpstreamRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", GetEnv("USER_AGENT"))
	req.Header.Set("Accept", "application/json")

	return req, nil
}
