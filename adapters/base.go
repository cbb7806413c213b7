package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"dealhive/internal/types"
	"dealhive/normalize"
	"dealhive/utils"
)

// minTitleLength is the shortest title any store may report
const minTitleLength = 5

// Variant is one page fetched for a search: a query permutation or a static category page
type Variant struct {
	Label string
	URL   string
}

// CategoryRoute maps query keywords to static listing pages for stores whose
// free-text search is unreliable
type CategoryRoute struct {
	Keywords []string
	Pages    []Variant
}

// Pacing is the courtesy delay between two fetches of the same search.
// A delay is drawn uniformly from [Min, Max].
type Pacing struct {
	Min time.Duration
	Max time.Duration
}

// TextScan is the last-resort card finder used when no card selector matches.
// It keeps the innermost elements whose text mentions a query token and a
// currency marker and whose length is within [MinLength, MaxLength].
type TextScan struct {
	Selector  string
	MinLength int
	MaxLength int
}

// StoreProfile is everything that distinguishes one store from another
type StoreProfile struct {
	Key     string
	Name    string
	BaseURL string

	// SearchPath is a format string receiving the escaped query. Suffixes
	// are appended to the raw term to build extra variants.
	SearchPath string
	Suffixes   []string

	// Categories replace free-text search when set
	Categories        []CategoryRoute
	DefaultCategories []Variant

	Headers map[string]string
	Timeout time.Duration
	Pacing  Pacing

	CardSelectors []string
	CardLimit     int
	TextScan      *TextScan

	Chains         Chains
	Band           normalize.Band
	MinTitleLength int
	AdMarkers      []string
}

// BaseAdapter runs the search pipeline shared by every store: build query
// variants, fetch each page, pick result cards, extract fields through the
// profile's chains, reject bad cards, dedupe and truncate.
type BaseAdapter struct {
	config  *types.Config
	logger  types.Logger
	fetcher types.Fetcher
	profile StoreProfile
}

// NewBaseAdapter creates a base adapter with a fetcher chosen from the configuration
func NewBaseAdapter(config *types.Config, logger types.Logger, profile StoreProfile) *BaseAdapter {
	var fetcher types.Fetcher
	if config.UseHeadlessBrowser {
		fetcher = utils.NewBrowserClient(config, logger)
	} else {
		fetcher = utils.NewHTTPClient(config, logger)
	}

	return &BaseAdapter{
		config:  config,
		logger:  logger.WithField("store", profile.Name),
		fetcher: fetcher,
		profile: profile,
	}
}

// GetStoreKey returns the short store identifier
func (b *BaseAdapter) GetStoreKey() string {
	return b.profile.Key
}

// GetStoreName returns the human-presentable store name
func (b *BaseAdapter) GetStoreName() string {
	return b.profile.Name
}

// Profile returns the store profile
func (b *BaseAdapter) Profile() StoreProfile {
	return b.profile
}

// SetFetcher replaces the document fetcher, closing the previous one
func (b *BaseAdapter) SetFetcher(fetcher types.Fetcher) {
	if b.fetcher != nil {
		b.fetcher.Close()
	}
	b.fetcher = fetcher
}

// QueryVariants expands term into the pages this store should fetch
func (b *BaseAdapter) QueryVariants(term string) []Variant {
	p := b.profile

	if len(p.Categories) > 0 || len(p.DefaultCategories) > 0 {
		lower := strings.ToLower(term)
		for _, route := range p.Categories {
			for _, keyword := range route.Keywords {
				if strings.Contains(lower, keyword) {
					return b.resolveVariants(route.Pages)
				}
			}
		}
		return b.resolveVariants(p.DefaultCategories)
	}

	terms := []string{term}
	for _, suffix := range p.Suffixes {
		terms = append(terms, term+" "+suffix)
	}

	variants := make([]Variant, 0, len(terms))
	for _, t := range terms {
		variants = append(variants, Variant{
			Label: t,
			URL:   p.BaseURL + fmt.Sprintf(p.SearchPath, url.QueryEscape(t)),
		})
	}
	return variants
}

func (b *BaseAdapter) resolveVariants(pages []Variant) []Variant {
	variants := make([]Variant, 0, len(pages))
	for _, page := range pages {
		resolved, ok := normalize.ResolveURL(b.profile.BaseURL, page.URL)
		if !ok {
			b.logger.Warnf("Skipping category page with invalid URL %q", page.URL)
			continue
		}
		variants = append(variants, Variant{Label: page.Label, URL: resolved})
	}
	return variants
}

// Search fetches every query variant and returns at most maxResults unique
// products. Failures never escape: a variant that cannot be fetched or
// parsed contributes nothing.
func (b *BaseAdapter) Search(ctx context.Context, term string, maxResults int) []types.Product {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	if maxResults <= 0 {
		maxResults = b.config.MaxResultsPerStore
	}

	startTime := time.Now()
	b.logger.Infof("Searching for %q", term)

	variants := b.QueryVariants(term)
	pacer := b.newPacer()

	// Seen keys are local to this call so concurrent searches never share state
	seen := make(map[string]struct{})
	var products []types.Product

	for _, variant := range variants {
		if err := pacer.Wait(ctx); err != nil {
			b.logger.Warnf("Stopping before %q: %v", variant.Label, err)
			break
		}

		found, err := b.searchVariant(ctx, term, variant)
		if err != nil {
			b.logger.Warnf("Search failed for %q: %v", variant.Label, err)
			continue
		}

		for _, product := range found {
			key := dedupeKey(product)
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			products = append(products, product)
		}

		if len(products) >= maxResults {
			break
		}
	}

	if len(products) > maxResults {
		products = products[:maxResults]
	}

	b.logger.Infof("Found %d products for %q in %v", len(products), term, time.Since(startTime))
	return products
}

func dedupeKey(p types.Product) string {
	return p.Store + "|" + normalize.NameKey(p.Name) + "|" + p.Price.String()
}

// searchVariant fetches one page and parses its result cards
func (b *BaseAdapter) searchVariant(ctx context.Context, term string, variant Variant) ([]types.Product, error) {
	b.logger.Debugf("Fetching %q: %s", variant.Label, variant.URL)

	html, err := b.GetPageContent(ctx, variant.URL)
	if err != nil {
		return nil, err
	}

	doc, err := b.ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	cards, selector := b.SelectCards(doc, term)
	if cards.Length() == 0 {
		b.logger.Warnf("No products found for %q", variant.Label)
		return nil, nil
	}
	b.logger.Debugf("Found %d cards with selector %s", cards.Length(), selector)

	if b.profile.CardLimit > 0 && cards.Length() > b.profile.CardLimit {
		cards = cards.Slice(0, b.profile.CardLimit)
	}

	var products []types.Product
	cards.Each(func(i int, card *goquery.Selection) {
		product, reason, ok := b.parseCardSafe(card)
		if !ok {
			b.logger.Debugf("Skipping card %d for %q: %s", i, variant.Label, reason)
			return
		}
		products = append(products, product)
	})

	b.logger.Debugf("Parsed %d products for %q", len(products), variant.Label)
	return products, nil
}

// GetPageContent retrieves a page with the store's header profile and timeout
func (b *BaseAdapter) GetPageContent(ctx context.Context, pageURL string) (string, error) {
	timeout := b.profile.Timeout
	if timeout <= 0 {
		timeout = b.config.RequestTimeout
	}

	body, err := b.fetcher.Fetch(ctx, types.FetchRequest{
		URL:     pageURL,
		Headers: b.headers(),
		Timeout: timeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return string(body), nil
}

func (b *BaseAdapter) headers() map[string]string {
	headers := make(map[string]string, len(b.profile.Headers)+1)
	headers["User-Agent"] = b.config.UserAgent
	for key, value := range b.profile.Headers {
		headers[key] = value
	}
	return headers
}

// ParseHTML parses HTML content into a goquery document
func (b *BaseAdapter) ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// SelectCards returns the result cards matched by the first card selector
// with at least one match. Matches from later selectors are never merged in.
func (b *BaseAdapter) SelectCards(doc *goquery.Document, term string) (*goquery.Selection, string) {
	for _, selector := range b.profile.CardSelectors {
		cards := doc.Find(selector)
		if cards.Length() > 0 {
			return cards, selector
		}
	}

	if scan := b.profile.TextScan; scan != nil {
		cards := scan.find(doc, normalize.Tokens(term))
		if cards.Length() > 0 {
			return cards, "text scan"
		}
	}

	return doc.Selection.Slice(0, 0), ""
}

func (s *TextScan) find(doc *goquery.Document, tokens []string) *goquery.Selection {
	matches := func(_ int, el *goquery.Selection) bool {
		text := strings.TrimSpace(el.Text())
		length := len([]rune(text))
		if length < s.MinLength || length > s.MaxLength {
			return false
		}
		if !normalize.HasCurrencyMarker(text) {
			return false
		}
		lower := strings.ToLower(text)
		for _, token := range tokens {
			if strings.Contains(lower, token) {
				return true
			}
		}
		return false
	}

	candidates := doc.Find(s.Selector).FilterFunction(matches)
	return candidates.FilterFunction(func(_ int, el *goquery.Selection) bool {
		return el.Find(s.Selector).FilterFunction(matches).Length() == 0
	})
}

func (b *BaseAdapter) parseCardSafe(card *goquery.Selection) (product types.Product, reason string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			product, reason, ok = types.Product{}, fmt.Sprintf("panic: %v", r), false
		}
	}()
	return b.parseCard(card)
}

// parseCard turns one result card into a product, or explains why it was rejected
func (b *BaseAdapter) parseCard(card *goquery.Selection) (types.Product, string, bool) {
	p := b.profile

	if b.isAdvertisement(card) {
		return types.Product{}, "advertisement", false
	}

	rawTitle, ok := p.Chains.Extract(FieldTitle, card)
	if !ok {
		return types.Product{}, "no title", false
	}
	title := normalize.CleanTitle(rawTitle)
	floor := p.MinTitleLength
	if floor < minTitleLength {
		floor = minTitleLength
	}
	if len([]rune(title)) < floor {
		return types.Product{}, fmt.Sprintf("title too short: %q", title), false
	}
	if normalize.IsAdTitle(rawTitle) {
		return types.Product{}, "ad text in title", false
	}

	priceText, ok := p.Chains.Extract(FieldPrice, card)
	if !ok {
		return types.Product{}, "no price", false
	}
	price, ok := normalize.ParsePrice(priceText, p.Band)
	if !ok {
		return types.Product{}, fmt.Sprintf("implausible price: %q", priceText), false
	}

	href, ok := p.Chains.Extract(FieldURL, card)
	if !ok {
		return types.Product{}, "no link", false
	}
	productURL, ok := normalize.ResolveURL(p.BaseURL, href)
	if !ok {
		return types.Product{}, fmt.Sprintf("unresolvable link: %q", href), false
	}

	product := types.Product{
		Name:         title,
		Price:        price,
		Currency:     b.config.Currency,
		Store:        p.Name,
		URL:          productURL,
		Availability: true,
	}

	if src, ok := p.Chains.Extract(FieldImage, card); ok {
		if imageURL, ok := normalize.ResolveURL(p.BaseURL, src); ok {
			product.ImageURL = imageURL
		}
	}

	if ratingText, ok := p.Chains.Extract(FieldRating, card); ok {
		if rating, ok := normalize.ParseRating(ratingText); ok {
			product.Rating = rating
		}
	}

	return product, "", true
}

// isAdvertisement checks the store's sponsored markers and the generic ad phrases
func (b *BaseAdapter) isAdvertisement(card *goquery.Selection) bool {
	for _, marker := range b.profile.AdMarkers {
		if card.Is(marker) || card.Find(marker).Length() > 0 {
			return true
		}
	}
	return normalize.ContainsAdText(card.Text())
}

// Close cleans up resources
func (b *BaseAdapter) Close() {
	if b.fetcher != nil {
		b.fetcher.Close()
	}
}

// pacer spaces out fetches within one search
type pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

func (b *BaseAdapter) newPacer() *pacer {
	if !b.config.PaceRequests || b.profile.Pacing.Min <= 0 {
		return &pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	jitter := b.profile.Pacing.Max - b.profile.Pacing.Min
	if jitter < 0 {
		jitter = 0
	}
	return &pacer{
		limiter: rate.NewLimiter(rate.Every(b.profile.Pacing.Min), 1),
		jitter:  jitter,
	}
}

// Wait blocks until the next fetch may start
func (p *pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if p.jitter <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(time.Duration(rand.Int63n(int64(p.jitter) + 1)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Profiles returns the profiles of every supported store
func Profiles() []StoreProfile {
	return []StoreProfile{AmazonProfile(), FlipkartProfile(), RelianceDigitalProfile(), CromaProfile()}
}
