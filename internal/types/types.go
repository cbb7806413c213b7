package types

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func init() {
	// Prices and ratings are emitted as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	// ErrEmptyQuery is returned when a search is requested without a term
	ErrEmptyQuery = errors.New("search query is required")

	// ErrUnknownStore is returned when a single-store search names an unregistered store
	ErrUnknownStore = errors.New("no adapter found for store")
)

// Product is the canonical record produced by every store adapter
type Product struct {
	Name         string           `json:"name"`
	Price        decimal.Decimal  `json:"price"`
	Currency     string           `json:"currency"`
	Store        string           `json:"store"`
	URL          string           `json:"url"`
	ImageURL     string           `json:"imageUrl,omitempty"`
	Rating       *decimal.Decimal `json:"rating,omitempty"`
	Availability bool             `json:"availability"`
}

// PriceSummary holds statistics computed over a final result set
type PriceSummary struct {
	Lowest     decimal.Decimal `json:"lowest"`
	Highest    decimal.Decimal `json:"highest"`
	Average    decimal.Decimal `json:"average"`
	Difference decimal.Decimal `json:"difference"`
	StoreCount map[string]int  `json:"storeCount"`
	Stores     []string        `json:"stores"`
}

// Offer is one store's listing inside a comparison group
type Offer struct {
	Store string          `json:"store"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	URL   string          `json:"url"`
}

// ComparisonGroup collects listings from different stores that look like the same product
type ComparisonGroup struct {
	Name          string          `json:"name"`
	Offers        []Offer         `json:"offers"`
	CheapestStore string          `json:"cheapestStore"`
	Savings       decimal.Decimal `json:"savings"`
}

// AggregatedResult is the ordered output of a multi-store search
type AggregatedResult struct {
	Query       string            `json:"query"`
	Products    []Product         `json:"results"`
	Count       int               `json:"count"`
	Stores      []string          `json:"stores"`
	Summary     *PriceSummary     `json:"priceRange,omitempty"`
	Comparisons []ComparisonGroup `json:"comparisons,omitempty"`
	GeneratedAt time.Time         `json:"timestamp"`
}

// Config holds the configuration for the search engine and its adapters
type Config struct {
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	StoreTimeout       time.Duration `mapstructure:"store_timeout"`
	MaxResultsPerStore int           `mapstructure:"max_results_per_store"`
	MaxResults         int           `mapstructure:"max_results"`
	PaceRequests       bool          `mapstructure:"pace_requests"`
	UseHeadlessBrowser bool          `mapstructure:"use_headless_browser"`
	UserAgent          string        `mapstructure:"user_agent"`
	Currency           string        `mapstructure:"currency"`
	Stores             []string      `mapstructure:"stores"`
	GroupSimilarity    float64       `mapstructure:"group_similarity"`
}

// DefaultUserAgent is the browser identity sent when a store profile does not override it
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RequestTimeout:     15 * time.Second,
		StoreTimeout:       90 * time.Second,
		MaxResultsPerStore: 20,
		MaxResults:         0,
		PaceRequests:       true,
		UseHeadlessBrowser: false,
		UserAgent:          DefaultUserAgent,
		Currency:           "INR",
		Stores:             []string{"amazon", "flipkart", "reliance", "croma"},
		GroupSimilarity:    0.92,
	}
}

// StoreAdapter defines the interface for store-specific search logic
type StoreAdapter interface {
	// GetStoreKey returns the short identifier used to select the store
	GetStoreKey() string

	// GetStoreName returns the human-presentable store name
	GetStoreName() string

	// Search returns at most maxResults products for term. It never fails;
	// a store that cannot be reached yields an empty slice.
	Search(ctx context.Context, term string, maxResults int) []Product

	// Close releases fetch resources
	Close()
}

// FetchRequest describes a single document fetch
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// Fetcher retrieves raw documents. Non-2xx responses and timeouts are errors.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) ([]byte, error)
	Close()
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) *logrus.Entry
}
