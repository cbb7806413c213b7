// Package normalize converts raw text pulled out of store result pages into
// canonical price, title and rating values.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// First currency amount in the text: Indian or western grouping, or a bare digit run.
	amountRegex = regexp.MustCompile(`\d{1,3}(?:,\d{2,3})+(?:\.\d+)?|\d+(?:\.\d+)?`)
	ratingRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)

	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)

	currencyMarkers = []string{"₹", "Rs.", "Rs", "INR"}
)

// boilerplate fragments that stores prepend or append to titles
var titleBoilerplate = []string{
	"Sponsored Ad -",
	"Sponsored",
	"Bestseller",
	"Best Seller",
	"Add to Compare",
	"Limited time deal",
	"Featured",
	"Assured",
}

// AdPhrases mark promotional cards that must never be reported as listings
var AdPhrases = []string{
	"sponsored",
	"based on your browsing",
	"you are seeing this ad",
	"advertisement",
}

// titleAdPhrases only disqualify a title; they are too generic for whole cards
var titleAdPhrases = []string{
	"based on the product",
	"relevance to your search",
	"let us know",
}

// Band is an inclusive range of plausible prices in major currency units
type Band struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// NewBand builds a band from whole-unit bounds
func NewBand(min, max int64) Band {
	return Band{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

// Contains reports whether price lies within the band
func (b Band) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(b.Min) && price.LessThanOrEqual(b.Max)
}

// HasCurrencyMarker reports whether text carries a rupee symbol or code
func HasCurrencyMarker(text string) bool {
	for _, marker := range currencyMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// ParsePrice extracts the first amount from text and drops minor units.
// The result must be positive and inside band.
func ParsePrice(text string, band Band) (decimal.Decimal, bool) {
	cleaned := text
	for _, marker := range currencyMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, " ")
	}

	match := amountRegex.FindString(cleaned)
	if match == "" {
		return decimal.Zero, false
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	value = value.Truncate(0)

	if !value.IsPositive() || !band.Contains(value) {
		return decimal.Zero, false
	}
	return value, true
}

// ParseRating reads the first number in text, e.g. "4.5 out of 5 stars" or
// "4.4\n12,345 Ratings". Ratings outside 0..5 are rejected.
func ParseRating(text string) (*decimal.Decimal, bool) {
	match := ratingRegex.FindString(text)
	if match == "" {
		return nil, false
	}
	value, err := decimal.NewFromString(match)
	if err != nil {
		return nil, false
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(5)) {
		return nil, false
	}
	return &value, true
}

// CleanTitle collapses whitespace and strips promotional prefixes and suffixes
func CleanTitle(text string) string {
	title := strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))

	for changed := true; changed; {
		changed = false
		for _, fragment := range titleBoilerplate {
			frag := strings.ToLower(fragment)
			// a title that is nothing but boilerplate is left alone
			if len(title) <= len(fragment) {
				continue
			}
			if strings.HasPrefix(strings.ToLower(title), frag) {
				title = strings.TrimSpace(title[len(fragment):])
				changed = true
				continue
			}
			if strings.HasSuffix(strings.ToLower(title), frag) {
				title = strings.TrimSpace(title[:len(title)-len(fragment)])
				changed = true
			}
		}
	}

	return strings.Trim(title, " -|:")
}

// ContainsAdText reports whether text contains any marketing phrase in AdPhrases
func ContainsAdText(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range AdPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsAdTitle reports whether an extracted title is really ad copy
func IsAdTitle(title string) bool {
	if ContainsAdText(title) {
		return true
	}
	lower := strings.ToLower(title)
	for _, phrase := range titleAdPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// NameKey lowercases a title, strips punctuation and collapses whitespace
func NameKey(title string) string {
	key := strings.ToLower(title)
	key = punctuationRegex.ReplaceAllString(key, "")
	key = whitespaceRegex.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// Words lowercases a title and splits it on whitespace and punctuation, so
// "iPhone-15 (Black)" gives [iphone 15 black]
func Words(title string) []string {
	return strings.Fields(punctuationRegex.ReplaceAllString(strings.ToLower(title), " "))
}

// Tokens splits a search term into lowercase, punctuation-free tokens
func Tokens(term string) []string {
	return Words(term)
}

// ResolveURL turns href into an absolute http(s) link against base
func ResolveURL(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || href == "#" {
		return "", false
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}
