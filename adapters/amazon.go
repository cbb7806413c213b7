package adapters

import (
	"regexp"
	"time"

	"dealhive/internal/types"
	"dealhive/normalize"
)

var asinRegex = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// AmazonAdapter handles search for amazon.in
type AmazonAdapter struct {
	*BaseAdapter
}

// NewAmazonAdapter creates a new Amazon adapter
func NewAmazonAdapter(config *types.Config, logger types.Logger) *AmazonAdapter {
	return &AmazonAdapter{
		BaseAdapter: NewBaseAdapter(config, logger, AmazonProfile()),
	}
}

// AmazonProfile returns the amazon.in selector tables and request profile
func AmazonProfile() StoreProfile {
	band := normalize.NewBand(1000, 1000000)

	return StoreProfile{
		Key:        "amazon",
		Name:       "Amazon",
		BaseURL:    "https://www.amazon.in",
		SearchPath: "/s?k=%s&ref=sr_pg_1",
		Suffixes:   []string{"64GB", "128GB", "256GB", "512GB", "1TB"},
		Headers: map[string]string{
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Connection":                "keep-alive",
			"Cache-Control":             "max-age=0",
			"Upgrade-Insecure-Requests": "1",
		},
		Timeout: 10 * time.Second,
		Pacing:  Pacing{Min: 500 * time.Millisecond, Max: 500 * time.Millisecond},

		CardSelectors: []string{`[data-component-type="s-search-result"]`},
		CardLimit:     20,

		Chains: Chains{
			FieldTitle: {
				Rules: []Rule{
					Text("h2 span"),
					Text("a h2 span"),
					Text("h2 a span"),
					Text(`[data-cy="title-recipe-title"]`),
					Attr("h2", "aria-label"),
				},
				Valid: MinLength(10),
			},
			FieldPrice: {
				Rules: []Rule{
					Text(".a-price-whole"),
					Text(".a-price .a-offscreen"),
					Text(".a-offscreen"),
					Text(".s-price-text"),
				},
				Valid: PlausiblePrice(band),
			},
			FieldURL: {
				Rules: []Rule{
					Attr("h2 a", "href"),
					Attr(`a[href*="/dp/"]`, "href"),
					Attr(`a[href*="/gp/product/"]`, "href"),
					// listing without a usable link: rebuild it from the ASIN
					{Attr: "data-asin", Pattern: asinRegex, Format: "/dp/%s"},
				},
				Valid: LinkContains("/dp/", "/gp/product/"),
			},
			FieldImage: {
				Rules: []Rule{Attr("img.s-image", "src"), Attr("img", "src")},
				Valid: NotEmpty,
			},
			FieldRating: {
				Rules: []Rule{Text(".a-icon-alt"), Attr(`[aria-label*="out of 5"]`, "aria-label")},
				Valid: Rating,
			},
		},
		Band:           band,
		MinTitleLength: 10,
		AdMarkers: []string{
			`[data-component-type="sp-sponsored-result"]`,
			".AdHolder",
			".s-sponsored-list-item",
		},
	}
}
