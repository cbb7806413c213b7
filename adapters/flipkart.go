package adapters

import (
	"time"

	"dealhive/internal/types"
	"dealhive/normalize"
)

// FlipkartAdapter handles search for flipkart.com
type FlipkartAdapter struct {
	*BaseAdapter
}

// NewFlipkartAdapter creates a new Flipkart adapter
func NewFlipkartAdapter(config *types.Config, logger types.Logger) *FlipkartAdapter {
	return &FlipkartAdapter{
		BaseAdapter: NewBaseAdapter(config, logger, FlipkartProfile()),
	}
}

// FlipkartProfile returns the flipkart.com selector tables and request profile.
// Flipkart rotates obfuscated class names, so every field carries the
// current and the previous generations of them.
func FlipkartProfile() StoreProfile {
	band := normalize.NewBand(1000, 500000)

	var titleRules []Rule
	for _, class := range []string{".KzDlHZ", ".IRpwTa", ".wjcEIp", ".s1Q9rs", "._4rR01T"} {
		titleRules = append(titleRules, Text(class), Attr("a"+class, "title"))
	}
	titleRules = append(titleRules, Attr("a[title]", "title"))

	return StoreProfile{
		Key:        "flipkart",
		Name:       "Flipkart",
		BaseURL:    "https://www.flipkart.com",
		SearchPath: "/search?q=%s",
		Suffixes:   []string{"mobile", "phone"},
		Headers: map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Connection":      "keep-alive",
			"Cache-Control":   "max-age=0",
		},
		Timeout: 15 * time.Second,
		Pacing:  Pacing{Min: 1200 * time.Millisecond, Max: 1200 * time.Millisecond},

		CardSelectors: []string{"[data-id]", "._1AtVbE", "._2kHMtA", "._1fQZEK", ".col-7-12", "._3pLy-c"},
		CardLimit:     15,

		Chains: Chains{
			FieldTitle: {
				Rules: titleRules,
				Valid: MinLength(5),
			},
			FieldPrice: {
				Rules: []Rule{
					Text(".Nx9bqj"),
					Text("._30jeq3"),
					Text("._1_WHN1"),
					Text("._25b18c"),
					Text("._1vC4OE"),
					Text(".hl05eU"),
				},
				Valid: PlausiblePrice(band),
			},
			FieldURL: {
				Rules: []Rule{
					Attr(`a[href*="/p/"]`, "href"),
					{Attr: "href"},
					Attr("._1fQZEK a", "href"),
					Attr(".s1Q9rs a", "href"),
					Attr("a", "href"),
				},
				Valid: LinkContains("/p/"),
			},
			FieldImage: {
				Rules: []Rule{Attr("img", "src")},
				Valid: NotEmpty,
			},
			FieldRating: {
				Rules: []Rule{Text(".XQDdHH"), Text("._3LWZlK")},
				Valid: Rating,
			},
		},
		Band:           band,
		MinTitleLength: 5,
		AdMarkers:      []string{"._2tfzpE", "._4HTuuX"},
	}
}
