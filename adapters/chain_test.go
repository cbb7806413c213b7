package adapters

import (
	"regexp"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealhive/normalize"
)

func cardFrom(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	card := doc.Find(".card").First()
	require.Equal(t, 1, card.Length(), "fixture must contain a .card")
	return card
}

func TestRule_Apply(t *testing.T) {
	card := cardFrom(t, `
		<section><a href="/outer">
			<div class="card" data-asin="B0CHX1W1XY">
				<h2>  Apple   iPhone 15 </h2>
				<img alt="iPhone photo">
				<span class="price">Deal: ₹79,900 today</span>
			</div>
		</a></section>`)

	tests := []struct {
		name  string
		rule  Rule
		want  string
		found bool
	}{
		{"text of selector", Text("h2"), "Apple   iPhone 15", true},
		{"attribute of selector", Attr("img", "alt"), "iPhone photo", true},
		{"missing attribute", Attr("img", "src"), "", false},
		{"missing selector", Text(".title"), "", false},
		{"card attribute", Rule{Attr: "data-asin"}, "B0CHX1W1XY", true},
		{"pattern whole match", Rule{Selector: ".price", Pattern: regexp.MustCompile(`₹[\d,]+`)}, "₹79,900", true},
		{"pattern group", Rule{Selector: ".price", Pattern: regexp.MustCompile(`₹([\d,]+)`)}, "79,900", true},
		{"pattern miss", Rule{Selector: "h2", Pattern: regexp.MustCompile(`₹`)}, "", false},
		{"format", Rule{Attr: "data-asin", Format: "/dp/%s"}, "/dp/B0CHX1W1XY", true},
		{"closest ancestor", Rule{Selector: "a", Closest: true, Attr: "href"}, "/outer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rule.Apply(card)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChain_PriceFallback(t *testing.T) {
	band := normalize.NewBand(1000, 1000000)
	chain := Chain{
		Rules: []Rule{Text(".a-price-whole"), Text(".a-offscreen")},
		Valid: PlausiblePrice(band),
	}

	t.Run("empty primary falls through", func(t *testing.T) {
		card := cardFrom(t, `<div class="card"><span class="a-price-whole"></span><span class="a-offscreen">₹79,900</span></div>`)

		value, ok := chain.Extract(card)
		require.True(t, ok)
		assert.Equal(t, "₹79,900", value)

		price, ok := normalize.ParsePrice(value, band)
		require.True(t, ok)
		assert.Equal(t, "79900", price.String())
	})

	t.Run("primary without an amount falls through", func(t *testing.T) {
		card := cardFrom(t, `<div class="card"><span class="a-price-whole">Currently unavailable</span><span class="a-offscreen">₹1,24,999</span></div>`)

		value, ok := chain.Extract(card)
		require.True(t, ok)
		assert.Equal(t, "₹1,24,999", value)
	})

	t.Run("out of band everywhere", func(t *testing.T) {
		card := cardFrom(t, `<div class="card"><span class="a-price-whole">499</span><span class="a-offscreen">₹499</span></div>`)

		_, ok := chain.Extract(card)
		assert.False(t, ok)
	})
}

func TestChains_ExtractAndTrace(t *testing.T) {
	chains := Chains{
		FieldTitle: {Rules: []Rule{Text(".name"), Attr("img", "alt")}, Valid: MinLength(5)},
		FieldURL:   {Rules: []Rule{Attr("a", "href")}, Valid: LinkContains("/p/")},
	}
	card := cardFrom(t, `<div class="card"><span class="name">TV</span><img alt="Samsung Crystal 4K TV"><a href="/tv/x">TV</a></div>`)

	title, ok := chains.Extract(FieldTitle, card)
	assert.True(t, ok)
	assert.Equal(t, "Samsung Crystal 4K TV", title)

	_, ok = chains.Extract(FieldURL, card)
	assert.False(t, ok)

	_, ok = chains.Extract(FieldRating, card)
	assert.False(t, ok, "fields without a chain are absent")

	assert.Equal(t, map[Field]int{FieldTitle: 1, FieldURL: -1}, chains.Trace(card))
}

func TestPredicates(t *testing.T) {
	band := normalize.NewBand(1000, 500000)

	assert.True(t, NotEmpty(" x "))
	assert.False(t, NotEmpty("   "))

	assert.True(t, MinLength(5)("Pixel 8"))
	assert.False(t, MinLength(5)("  Pixel  "))

	assert.True(t, ContainsAny("₹", "INR")("INR 500"))
	assert.False(t, ContainsAny("₹")("500"))

	plausible := PlausiblePrice(band)
	assert.True(t, plausible("₹69,999"))
	assert.True(t, plausible("69,999"))
	assert.True(t, plausible("79,900."))
	assert.True(t, plausible("Rs. 1,499.00"))
	assert.False(t, plausible("4.5 out of 5 stars"))
	assert.False(t, plausible("₹499"))
	assert.False(t, plausible("Save 20% today"))

	assert.True(t, LinkContains("/dp/", "/gp/product/")("/gp/product/B0C"))
	assert.False(t, LinkContains("/p/")("/search?q=x"))

	assert.True(t, Rating("4.6"))
	assert.False(t, Rating("12,345 Ratings"))

	both := All(ContainsAny("₹"), plausible)
	assert.True(t, both("₹79,900"))
	assert.False(t, both("79,900"))
}
