package fetcher

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/doyensec/safeurl"
)

// NewHTTPClient builds the client used for page downloads. With
// DenyPrivateIPs the dialer is provided by safeurl and only ports 80 and
// 443 are reachable.
func NewHTTPClient(cfg Config) *http.Client {
	var client *http.Client
	if cfg.DenyPrivateIPs {
		sc := safeurl.GetConfigBuilder().
			SetTimeout(cfg.Timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		client = safeurl.Client(sc).Client
	} else {
		client = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	prev := client.CheckRedirect
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > cfg.MaxRedirects {
			return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
		}
		if err := checkURL(req.URL); err != nil {
			return err
		}
		if prev != nil {
			return prev(req, via)
		}
		return nil
	}
	return client
}

// parseURL performs the static checks. Address checks happen at dial time.
func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if err := checkURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

func checkURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	return nil
}
