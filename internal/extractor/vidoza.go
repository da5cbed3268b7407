package extractor

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Vidoza extracts direct MP4 URLs from Vidoza embed pages. Unlike VOE the
// source URL sits in plain sight, either in a <source> element or in the
// player setup script.
type Vidoza struct {
	fetch *Fetcher
}

// NewVidoza builds the Vidoza extractor on the shared fetch client.
func NewVidoza(f *Fetcher) *Vidoza {
	return &Vidoza{fetch: f}
}

func (v *Vidoza) Name() string { return "Vidoza" }

var vidozaMP4Patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)file:\s*["']([^"']+\.mp4[^"']*)["']`),
	regexp.MustCompile(`(?i)src:\s*["']([^"']+\.mp4[^"']*)["']`),
	regexp.MustCompile(`(?i)videoUrl\s*=\s*["']([^"']+\.mp4[^"']*)["']`),
	regexp.MustCompile(`(?i)["']([^"']*cache\d+\.vidoza\.net[^"']*\.mp4[^"']*)["']`),
}

// Extract follows the locator to the embed page and returns the MP4 URL.
func (v *Vidoza) Extract(ctx context.Context, locator string) (string, error) {
	pageURL, body, err := v.fetch.Follow(ctx, locator)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	// Preferred: the player's <source> element.
	if src, ok := doc.Find("video source[src]").First().Attr("src"); ok && strings.Contains(src, ".mp4") {
		return resolveMP4(pageURL, src)
	}

	// Fallback: scan the player setup script.
	html := string(body)
	for _, p := range vidozaMP4Patterns {
		if m := p.FindStringSubmatch(html); m != nil {
			return resolveMP4(pageURL, m[1])
		}
	}
	return "", fmt.Errorf("%w: no mp4 source in embed page", ErrParseFailed)
}

func resolveMP4(pageURL, src string) (string, error) {
	if strings.HasPrefix(src, "http") {
		return src, nil
	}
	abs, err := absoluteURL(pageURL, src)
	if err != nil {
		return "", fmt.Errorf("%w: bad mp4 source %q", ErrParseFailed, src)
	}
	return abs, nil
}
