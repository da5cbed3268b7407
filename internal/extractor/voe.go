package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VOE extracts HLS master playlist URLs from VOE player pages. The player
// hides its source list in an obfuscated JSON blob inside a script tag;
// the deobfuscation chain is ROT13 -> junk-pattern strip -> base64 ->
// char shift -3 -> reverse -> base64 -> JSON.
type VOE struct {
	fetch *Fetcher
}

// NewVOE builds the VOE extractor on the shared fetch client.
func NewVOE(f *Fetcher) *VOE {
	return &VOE{fetch: f}
}

func (v *VOE) Name() string { return "VOE" }

// obfuscatedArray matches single-element JSON string arrays embedded in
// player scripts; short matches like ["an"] are option tables, not payloads.
var obfuscatedArray = regexp.MustCompile(`\["[^"]+"\]`)

// m3u8URL is the last-resort scan for playlist URLs left in plain text.
var m3u8URL = regexp.MustCompile(`https?://[^"'\s]+\.m3u8[^"'\s]*`)

// Extract follows the locator to the player page and returns the master
// playlist URL.
func (v *VOE) Extract(ctx context.Context, locator string) (string, error) {
	_, body, err := v.fetch.Follow(ctx, locator)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, match := range obfuscatedArray.FindAllString(s.Text(), -1) {
			if len(match) < 50 {
				continue
			}
			payload, ok := deobfuscateVOE(match)
			if !ok {
				continue
			}
			if u := findM3U8(payload); u != "" && strings.Contains(u, "master.m3u8") {
				found = u
				return false
			}
		}
		return true
	})
	if found != "" {
		return found, nil
	}

	// Some player variants leave the playlist URL unobfuscated.
	for _, u := range m3u8URL.FindAllString(string(body), -1) {
		if strings.Contains(u, "master.m3u8") {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: no master playlist in player page", ErrParseFailed)
}

// deobfuscateVOE unwraps one obfuscated payload candidate. The input is a
// JSON array with a single string element.
func deobfuscateVOE(arrayJSON string) (any, bool) {
	var wrapper []string
	if err := json.Unmarshal([]byte(arrayJSON), &wrapper); err != nil || len(wrapper) == 0 {
		return nil, false
	}

	step := rot13(wrapper[0])
	step = stripJunkPatterns(step)
	decoded, err := base64.StdEncoding.DecodeString(step)
	if err != nil {
		return nil, false
	}
	step = shiftRunes(string(decoded), -3)
	step = reverseString(step)
	decoded, err = base64.StdEncoding.DecodeString(step)
	if err != nil {
		return nil, false
	}

	var payload any
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

var voeJunkPatterns = []string{"@$", "^^", "~@", "%?", "*~", "!!", "#&"}

func stripJunkPatterns(s string) string {
	for _, p := range voeJunkPatterns {
		s = strings.ReplaceAll(s, p, "")
	}
	return s
}

func rot13(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'A' && r <= 'Z':
			out[i] = 'A' + (r-'A'+13)%26
		case r >= 'a' && r <= 'z':
			out[i] = 'a' + (r-'a'+13)%26
		}
	}
	return string(out)
}

func shiftRunes(s string, delta int) string {
	out := []rune(s)
	for i, r := range out {
		out[i] = rune(int(r) + delta)
	}
	return string(out)
}

func reverseString(s string) string {
	out := []rune(s)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// findM3U8 walks the decoded payload for the first .m3u8 URL.
func findM3U8(data any) string {
	switch v := data.(type) {
	case string:
		if strings.Contains(v, ".m3u8") {
			return v
		}
	case map[string]any:
		for _, item := range v {
			if u := findM3U8(item); u != "" {
				return u
			}
		}
	case []any:
		for _, item := range v {
			if u := findM3U8(item); u != "" {
				return u
			}
		}
	}
	return ""
}
