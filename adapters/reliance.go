package adapters

import (
	"time"

	"dealhive/internal/types"
	"dealhive/normalize"
)

// RelianceDigitalAdapter handles search for reliancedigital.in
type RelianceDigitalAdapter struct {
	*BaseAdapter
}

// NewRelianceDigitalAdapter creates a new Reliance Digital adapter
func NewRelianceDigitalAdapter(config *types.Config, logger types.Logger) *RelianceDigitalAdapter {
	return &RelianceDigitalAdapter{
		BaseAdapter: NewBaseAdapter(config, logger, RelianceDigitalProfile()),
	}
}

// RelianceDigitalProfile returns the reliancedigital.in selector tables and request profile
func RelianceDigitalProfile() StoreProfile {
	band := normalize.NewBand(1000, 1000000)

	return StoreProfile{
		Key:        "reliance",
		Name:       "Reliance Digital",
		BaseURL:    "https://www.reliancedigital.in",
		SearchPath: "/search?q=%s",
		Suffixes:   []string{"128GB", "256GB", "512GB", "1TB"},
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		Timeout: 15 * time.Second,
		Pacing:  Pacing{Min: 500 * time.Millisecond, Max: 500 * time.Millisecond},

		CardSelectors: []string{
			".sp__product",
			".product-item",
			".ProductCard",
			".product-card",
			`[data-testid="product-card"]`,
			".product-tile",
			".pdp-product-card",
		},
		CardLimit: 5,

		Chains: Chains{
			FieldTitle: {
				Rules: []Rule{
					Text(".sp__name"),
					Text(".product-title"),
					Text(".product-name"),
					Text("h3"),
					Text("h4"),
					Text(".title"),
					Text(`[class*="title"]`),
					Text(`[class*="name"]`),
					Attr("a", "title"),
					Attr("img", "alt"),
				},
				Valid: MinLength(9),
			},
			FieldPrice: {
				Rules: []Rule{
					Text(".sp__price"),
					Text(".price"),
					Text(".amount"),
					Text(`[class*="price"]`),
					Text(`[class*="amount"]`),
				},
				Valid: PlausiblePrice(band),
			},
			FieldURL: {
				Rules: []Rule{Attr("a", "href")},
				Valid: NotEmpty,
			},
			FieldImage: {
				Rules: []Rule{Attr("img", "src"), Attr("img", "data-src")},
				Valid: NotEmpty,
			},
		},
		Band:           band,
		MinTitleLength: 10,
	}
}
