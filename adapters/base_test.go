package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealhive/internal/types"
	"dealhive/normalize"
)

func testProfile() StoreProfile {
	band := normalize.NewBand(1000, 500000)

	return StoreProfile{
		Key:        "test",
		Name:       "Test Store",
		BaseURL:    "https://shop.test",
		SearchPath: "/search?q=%s",
		Suffixes:   []string{"128GB"},
		Headers:    map[string]string{"Accept-Language": "en-IN"},
		Timeout:    3 * time.Second,

		CardSelectors: []string{".primary", ".secondary"},
		CardLimit:     10,

		Chains: Chains{
			FieldTitle:  {Rules: []Rule{Text(".title"), Attr("img", "alt")}, Valid: MinLength(5)},
			FieldPrice:  {Rules: []Rule{Text(".price"), Text(".offer")}, Valid: PlausiblePrice(band)},
			FieldURL:    {Rules: []Rule{Attr("a", "href")}, Valid: NotEmpty},
			FieldImage:  {Rules: []Rule{Attr("img", "src")}, Valid: NotEmpty},
			FieldRating: {Rules: []Rule{Text(".rating")}, Valid: Rating},
		},
		Band:           band,
		MinTitleLength: 5,
		AdMarkers:      []string{".ad-badge"},
	}
}

func card(class, title, price, href string) string {
	return `<div class="` + class + `"><span class="title">` + title + `</span><span class="price">` + price +
		`</span><a href="` + href + `">view</a></div>`
}

func names(products []types.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestNewBaseAdapter(t *testing.T) {
	config := types.DefaultConfig()
	adapter := NewBaseAdapter(config, logrus.New(), testProfile())
	defer adapter.Close()

	assert.Equal(t, "test", adapter.GetStoreKey())
	assert.Equal(t, "Test Store", adapter.GetStoreName())
	assert.NotNil(t, adapter.fetcher)
	assert.Equal(t, "https://shop.test", adapter.Profile().BaseURL)
}

func TestSetFetcher_ClosesPrevious(t *testing.T) {
	adapter, first := newTestAdapter(t, testProfile(), nil)
	second := &fakeFetcher{}

	adapter.SetFetcher(second)

	assert.True(t, first.closed)
	assert.False(t, second.closed)
}

func TestQueryVariants(t *testing.T) {
	adapter, _ := newTestAdapter(t, testProfile(), nil)

	variants := adapter.QueryVariants("iphone 15")

	require.Len(t, variants, 2)
	assert.Equal(t, Variant{Label: "iphone 15", URL: "https://shop.test/search?q=iphone+15"}, variants[0])
	assert.Equal(t, Variant{Label: "iphone 15 128GB", URL: "https://shop.test/search?q=iphone+15+128GB"}, variants[1])
}

func TestSearch_FullRecord(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.pages[searchURL(profile, "iphone 15")] = `<html><body>
		<div class="primary">
			<span class="title">  Apple iPhone 15 (128GB)   - Black </span>
			<span class="price">₹79,900.50</span>
			<span class="rating">4.5 out of 5</span>
			<img src="//cdn.shop.test/i/15.jpg">
			<a href="/p/iphone-15?ref=search">Apple iPhone 15</a>
		</div>
	</body></html>`

	products := adapter.Search(context.Background(), "iphone 15", 20)

	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "Apple iPhone 15 (128GB) - Black", p.Name)
	assert.Equal(t, "79900", p.Price.String())
	assert.Equal(t, "INR", p.Currency)
	assert.Equal(t, "Test Store", p.Store)
	assert.Equal(t, "https://shop.test/p/iphone-15?ref=search", p.URL)
	assert.Equal(t, "https://cdn.shop.test/i/15.jpg", p.ImageURL)
	require.NotNil(t, p.Rating)
	assert.Equal(t, "4.5", p.Rating.String())
	assert.True(t, p.Availability)
}

func TestSearch_SendsHeaderProfile(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)

	adapter.Search(context.Background(), "tv", 20)

	require.NotEmpty(t, fetcher.requests)
	req := fetcher.requests[0]
	assert.Equal(t, "en-IN", req.Headers["Accept-Language"])
	assert.Equal(t, types.DefaultUserAgent, req.Headers["User-Agent"])
	assert.Equal(t, 3*time.Second, req.Timeout)
}

func TestSearch_CardCascadeDoesNotUnion(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = `<html><body>` +
		card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/1") +
		card("primary", "Apple iPhone 15 256GB", "₹89,900", "/p/2") +
		card("secondary", "Apple iPhone 14 128GB", "₹69,900", "/p/3") +
		card("secondary", "Apple iPhone 13 128GB", "₹59,900", "/p/4") +
		card("secondary", "Apple iPhone 12 64GB", "₹49,900", "/p/5") +
		`</body></html>`

	products := adapter.Search(context.Background(), "iphone", 20)

	assert.Equal(t, []string{"Apple iPhone 15 128GB", "Apple iPhone 15 256GB"}, names(products))
}

func TestSearch_SecondarySelector(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = card("secondary", "Apple iPhone 14 128GB", "₹69,900", "/p/3")

	products := adapter.Search(context.Background(), "iphone", 20)

	assert.Equal(t, []string{"Apple iPhone 14 128GB"}, names(products))
}

func TestSearch_RejectsAdsAndBadCards(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = `<html><body>` +
		card("primary", "Sponsored Apple iPhone 15 Pro", "₹1,29,900", "/p/ad") +
		`<div class="primary"><span class="ad-badge">Ad</span><span class="title">Apple iPhone 15 Plus</span><span class="price">₹89,900</span><a href="/p/badge">x</a></div>` +
		card("primary", "Based on your browsing history", "₹9,999", "/p/history") +
		card("primary", "Apple iPhone 15 MagSafe Case", "₹499", "/p/case") +
		card("primary", "Apple iPhone 15 no link", "₹79,900", "javascript:void(0)") +
		card("primary", "iPh", "₹79,900", "/p/short") +
		card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/real") +
		`</body></html>`

	products := adapter.Search(context.Background(), "iphone 15", 20)

	assert.Equal(t, []string{"Apple iPhone 15 128GB"}, names(products))
}

func TestSearch_RejectsSponsoredAttributeTitle(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = `<html><body>` +
		`<div class="primary"><img alt="Sponsored Ad - Apple iPhone 15 Pro" src="/i/ad.jpg"><span class="price">₹1,29,900</span><a href="/p/ad">view</a></div>` +
		`<div class="primary"><img alt="Apple iPhone 15 128GB" src="/i/1.jpg"><span class="price">₹79,900</span><a href="/p/1">view</a></div>` +
		`</body></html>`

	products := adapter.Search(context.Background(), "iphone 15", 20)

	assert.Equal(t, []string{"Apple iPhone 15 128GB"}, names(products))
}

func TestSearch_PriceChainFallback(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = `<div class="primary"><span class="title">Apple iPhone 15 128GB</span>
		<span class="price">Price unavailable</span><span class="offer">₹79,900</span><a href="/p/1">x</a></div>`

	products := adapter.Search(context.Background(), "iphone", 20)

	require.Len(t, products, 1)
	assert.Equal(t, "79900", products[0].Price.String())
}

func TestSearch_DeduplicatesAcrossVariants(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/1") +
		card("primary", "Apple iPhone 15 (128GB)", "₹79,900", "/p/1b")

	products := adapter.Search(context.Background(), "iphone 15", 20)

	assert.Len(t, fetcher.urls(), 2)
	assert.Equal(t, []string{"Apple iPhone 15 128GB"}, names(products))
}

func TestSearch_StopsAtMaxResults(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/1") +
		card("primary", "Apple iPhone 15 256GB", "₹89,900", "/p/2") +
		card("primary", "Apple iPhone 15 512GB", "₹1,09,900", "/p/3")

	products := adapter.Search(context.Background(), "iphone 15", 2)

	assert.Len(t, products, 2)
	assert.Len(t, fetcher.urls(), 1, "no further variants once enough records are collected")
}

func TestSearch_CardLimit(t *testing.T) {
	profile := testProfile()
	profile.CardLimit = 2
	profile.Suffixes = nil
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/1") +
		card("primary", "Apple iPhone 15 256GB", "₹89,900", "/p/2") +
		card("primary", "Apple iPhone 15 512GB", "₹1,09,900", "/p/3")

	products := adapter.Search(context.Background(), "iphone 15", 20)

	assert.Len(t, products, 2)
}

func TestSearch_VariantFailureIsIsolated(t *testing.T) {
	profile := testProfile()
	logger, hook := test.NewNullLogger()
	adapter, fetcher := newTestAdapter(t, profile, logger)
	fetcher.errs[searchURL(profile, "iphone 15")] = errors.New("connection reset by peer")
	fetcher.pages[searchURL(profile, "iphone 15 128GB")] = card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/1")

	products := adapter.Search(context.Background(), "iphone 15", 20)

	assert.Equal(t, []string{"Apple iPhone 15 128GB"}, names(products))

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "connection reset by peer") {
			warned = true
			assert.Equal(t, "Test Store", entry.Data["store"])
		}
	}
	assert.True(t, warned)
}

func TestSearch_AllVariantsFail(t *testing.T) {
	adapter, _ := newTestAdapter(t, testProfile(), nil)

	products := adapter.Search(context.Background(), "iphone 15", 20)

	assert.Empty(t, products)
}

func TestSearch_EmptyTerm(t *testing.T) {
	adapter, fetcher := newTestAdapter(t, testProfile(), nil)

	assert.Nil(t, adapter.Search(context.Background(), "   ", 20))
	assert.Empty(t, fetcher.urls())
}

func TestSearch_CancelledContext(t *testing.T) {
	adapter, fetcher := newTestAdapter(t, testProfile(), nil)
	fetcher.fallback = card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, adapter.Search(ctx, "iphone", 20))
	assert.Empty(t, fetcher.urls())
}

func TestSearch_PanickingRuleRejectsOnlyThatCard(t *testing.T) {
	profile := testProfile()
	profile.Chains[FieldRating] = Chain{
		Rules: []Rule{Text(".rating")},
		Valid: func(value string) bool {
			if value == "boom" {
				panic("bad rating")
			}
			return Rating(value)
		},
	}
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = `<div class="primary"><span class="title">Apple iPhone 15 Plus</span><span class="price">₹89,900</span><span class="rating">boom</span><a href="/p/2">x</a></div>` +
		card("primary", "Apple iPhone 15 128GB", "₹79,900", "/p/1")

	products := adapter.Search(context.Background(), "iphone", 20)

	assert.Equal(t, []string{"Apple iPhone 15 128GB"}, names(products))
}

func TestSearch_PacedFetches(t *testing.T) {
	profile := testProfile()
	profile.Pacing = Pacing{Min: 50 * time.Millisecond, Max: 50 * time.Millisecond}
	adapter, fetcher := newTestAdapter(t, profile, nil)
	adapter.config.PaceRequests = true

	start := time.Now()
	adapter.Search(context.Background(), "iphone", 20)

	assert.Len(t, fetcher.urls(), 2)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestGetPageContent_WrapsErrors(t *testing.T) {
	adapter, _ := newTestAdapter(t, testProfile(), nil)

	_, err := adapter.GetPageContent(context.Background(), "https://shop.test/missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get page content")
	assert.Contains(t, err.Error(), "unexpected status code: 404")
}

func TestInspect(t *testing.T) {
	profile := testProfile()
	adapter, fetcher := newTestAdapter(t, profile, nil)
	fetcher.fallback = card("secondary", "Apple iPhone 15 128GB", "₹79,900", "/p/1") +
		card("secondary", "Sponsored Apple iPhone 15", "₹79,900", "/p/2")

	inspection, err := adapter.Inspect(context.Background(), "iphone 15", 5)
	require.NoError(t, err)

	assert.Equal(t, "iphone 15", inspection.Variant.Label)
	assert.Equal(t, []SelectorCount{{Selector: ".primary", Matches: 0}, {Selector: ".secondary", Matches: 2}}, inspection.Counts)
	assert.Equal(t, ".secondary", inspection.Selected)
	require.Len(t, inspection.Cards, 2)
	assert.True(t, inspection.Cards[0].Accepted)
	assert.Equal(t, 0, inspection.Cards[0].Rules[FieldTitle])
	assert.Equal(t, -1, inspection.Cards[0].Rules[FieldRating])
	assert.False(t, inspection.Cards[1].Accepted)
	assert.Equal(t, "advertisement", inspection.Cards[1].Reason)
}
