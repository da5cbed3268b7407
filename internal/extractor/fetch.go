package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxRedirectHops bounds the site-redirect chain. The catalog stores
	// site redirect URLs that hop through HTTP 3xx and JavaScript
	// location assignments before landing on the provider page.
	maxRedirectHops = 10

	maxBodyBytes = 4 << 20
)

// jsRedirectPatterns match JavaScript redirects embedded in otherwise
// status-200 pages.
var jsRedirectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)window\.location\.href\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)window\.location\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)location\.href\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)document\.location\s*=\s*["']([^"']+)["']`),
}

// Fetcher is the shared HTTP client for all extractors: bounded timeout,
// fixed user agent, per-host rate limiting, manual redirect handling.
type Fetcher struct {
	client    *http.Client
	userAgent string

	mu       sync.Mutex
	hosts    map[string]*rate.Limiter
	hostRate rate.Limit
	burst    int
}

// FetcherOptions configure the shared fetch client.
type FetcherOptions struct {
	Timeout        time.Duration // per-request timeout; default 20s
	UserAgent      string
	RequestsPerSec float64 // per-host; <= 0 disables limiting
	Burst          int
}

// NewFetcher builds the shared fetch client.
func NewFetcher(opts FetcherOptions) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			// Redirects are followed manually so JavaScript hops can be
			// handled in the same loop.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: ua,
		hosts:     make(map[string]*rate.Limiter),
		hostRate:  rate.Limit(opts.RequestsPerSec),
		burst:     burst,
	}
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	if f.hostRate <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.hosts[host]
	if !ok {
		l = rate.NewLimiter(f.hostRate, f.burst)
		f.hosts[host] = l
	}
	return l
}

// get performs one rate-limited request without following redirects.
func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad url %q: %v", ErrUpstreamUnavailable, rawURL, err)
	}
	if l := f.limiter(u.Host); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// Follow resolves a locator through HTTP 3xx and JavaScript redirects and
// returns the final URL plus the final page body.
func (f *Fetcher) Follow(ctx context.Context, rawURL string) (finalURL string, body []byte, err error) {
	current := rawURL
	for hop := 0; hop < maxRedirectHops; hop++ {
		resp, err := f.get(ctx, current)
		if err != nil {
			return "", nil, err
		}
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			loc := resp.Header.Get("Location")
			if loc == "" {
				return "", nil, fmt.Errorf("%w: redirect without location from %s", ErrUpstreamUnavailable, current)
			}
			next, err := absoluteURL(current, loc)
			if err != nil {
				return "", nil, err
			}
			current = next

		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return "", nil, fmt.Errorf("%w: read %s: %v", ErrUpstreamUnavailable, current, readErr)
			}
			if target := jsRedirect(string(data)); target != "" {
				next, err := absoluteURL(current, target)
				if err != nil {
					return "", nil, err
				}
				current = next
				continue
			}
			return current, data, nil

		default:
			return "", nil, fmt.Errorf("%w: status %d from %s", ErrUpstreamUnavailable, resp.StatusCode, current)
		}
	}
	return "", nil, fmt.Errorf("%w: too many redirects from %s", ErrUpstreamUnavailable, rawURL)
}

// jsRedirect extracts a JavaScript redirect target, if any. Targets may be
// relative; the caller resolves them against the page URL.
func jsRedirect(html string) string {
	for _, p := range jsRedirectPatterns {
		if m := p.FindStringSubmatch(html); m != nil {
			target := m[1]
			if target == "" || strings.HasPrefix(target, "javascript:") || strings.HasPrefix(target, "#") {
				continue
			}
			return target
		}
	}
	return ""
}

func absoluteURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return b.ResolveReference(r).String(), nil
}
