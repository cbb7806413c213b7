package adapters

import (
	"regexp"
	"time"

	"dealhive/internal/types"
	"dealhive/normalize"
)

var (
	rupeeAmountRegex = regexp.MustCompile(`₹\s?[\d,]+`)
	textBeforePrice  = regexp.MustCompile(`^(.+?)\s*₹`)
)

// CromaAdapter handles croma.com. Croma answers free-text search with 403,
// so queries are routed to static category listings instead.
type CromaAdapter struct {
	*BaseAdapter
}

// NewCromaAdapter creates a new Croma adapter
func NewCromaAdapter(config *types.Config, logger types.Logger) *CromaAdapter {
	return &CromaAdapter{
		BaseAdapter: NewBaseAdapter(config, logger, CromaProfile()),
	}
}

// CromaProfile returns the croma.com category routes, selector tables and request profile
func CromaProfile() StoreProfile {
	band := normalize.NewBand(5000, 500000)

	return StoreProfile{
		Key:     "croma",
		Name:    "Croma",
		BaseURL: "https://www.croma.com",
		Categories: []CategoryRoute{
			{
				Keywords: []string{"iphone"},
				Pages: []Variant{
					{Label: "Apple iPhones Category", URL: "/phones-wearables/mobile-phones/apple-iphones"},
					{Label: "All Mobile Phones", URL: "/phones-wearables/mobile-phones"},
				},
			},
			{
				Keywords: []string{"samsung"},
				Pages: []Variant{
					{Label: "Samsung Mobile Phones", URL: "/phones-wearables/mobile-phones/samsung-mobile-phones"},
				},
			},
		},
		DefaultCategories: []Variant{
			{Label: "Mobile Phones Category", URL: "/phones-wearables/mobile-phones"},
		},
		Headers: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
			"Accept-Language":           "en-US,en;q=0.9",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
			"Cache-Control":             "max-age=0",
			"Sec-Ch-Ua":                 `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        `"macOS"`,
			"Referer":                   "https://www.croma.com/",
		},
		Timeout: 25 * time.Second,
		Pacing:  Pacing{Min: 2 * time.Second, Max: 4 * time.Second},

		CardSelectors: []string{
			".product-item",
			".product-card",
			".product-tile",
			`[data-testid*="product"]`,
			".product",
			".item",
		},
		CardLimit: 8,
		TextScan:  &TextScan{Selector: "li, div, article", MinLength: 20, MaxLength: 200},

		Chains: Chains{
			FieldTitle: {
				Rules: []Rule{
					Text(".product-title"),
					Text(".product-name"),
					Text("h3"),
					Text("h4"),
					Text("h5"),
					Text("a[title]"),
					Text(".title"),
					Text(".name"),
					Attr("a", "title"),
					Attr("img", "alt"),
					{Pattern: textBeforePrice},
				},
				Valid: MinLength(5),
			},
			FieldPrice: {
				Rules: []Rule{
					Text(".amount"),
					Text(".new-price"),
					Text(".price"),
					Text(".cost"),
					Text(`[class*="price"]`),
					Text(".current-price"),
					{Pattern: rupeeAmountRegex},
				},
				Valid: All(ContainsAny("₹"), PlausiblePrice(band)),
			},
			FieldURL: {
				Rules: []Rule{
					Attr("a", "href"),
					{Selector: "a", Closest: true, Attr: "href"},
				},
				Valid: NotEmpty,
			},
			FieldImage: {
				Rules: []Rule{Attr("img", "src"), Attr("img", "data-src")},
				Valid: NotEmpty,
			},
		},
		Band:           band,
		MinTitleLength: 5,
	}
}
