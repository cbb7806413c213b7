package extractor

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/shopspring/decimal"

	"dealhive/internal/types"
	"dealhive/normalize"
)

// Summarize computes price statistics over products. Zero prices are ignored
// for the price figures but still counted per store.
// It returns nil when there is nothing to summarize.
func Summarize(products []types.Product) *types.PriceSummary {
	if len(products) == 0 {
		return nil
	}

	summary := &types.PriceSummary{StoreCount: make(map[string]int)}
	total := decimal.Zero
	priced := 0

	for _, product := range products {
		if summary.StoreCount[product.Store] == 0 {
			summary.Stores = append(summary.Stores, product.Store)
		}
		summary.StoreCount[product.Store]++

		if !product.Price.IsPositive() {
			continue
		}
		if priced == 0 || product.Price.LessThan(summary.Lowest) {
			summary.Lowest = product.Price
		}
		if priced == 0 || product.Price.GreaterThan(summary.Highest) {
			summary.Highest = product.Price
		}
		total = total.Add(product.Price)
		priced++
	}

	if priced > 0 {
		summary.Average = total.Div(decimal.NewFromInt(int64(priced))).Round(0)
		summary.Difference = summary.Highest.Sub(summary.Lowest)
	}
	return summary
}

// comparisonGroup is a group under construction
type comparisonGroup struct {
	key    string
	name   string
	offers map[string]types.Offer
	order  []string
}

// GroupComparisons clusters listings from different stores whose normalized
// names are at least threshold similar (Jaro-Winkler). Only groups spanning
// two or more stores are returned; each store keeps its cheapest listing.
// A threshold of zero or less disables grouping.
func GroupComparisons(products []types.Product, threshold float64) []types.ComparisonGroup {
	if threshold <= 0 || len(products) < 2 {
		return nil
	}

	var groups []*comparisonGroup
	for _, product := range products {
		if !product.Price.IsPositive() {
			continue
		}
		key := normalize.NameKey(product.Name)
		offer := types.Offer{
			Store: product.Store,
			Name:  product.Name,
			Price: product.Price,
			URL:   product.URL,
		}

		group := closestGroup(groups, key, threshold)
		if group == nil {
			groups = append(groups, &comparisonGroup{
				key:    key,
				name:   product.Name,
				offers: map[string]types.Offer{product.Store: offer},
				order:  []string{product.Store},
			})
			continue
		}

		existing, ok := group.offers[product.Store]
		if !ok {
			group.order = append(group.order, product.Store)
			group.offers[product.Store] = offer
		} else if offer.Price.LessThan(existing.Price) {
			group.offers[product.Store] = offer
		}
	}

	var comparisons []types.ComparisonGroup
	for _, group := range groups {
		if len(group.offers) < 2 {
			continue
		}

		offers := make([]types.Offer, 0, len(group.order))
		for _, store := range group.order {
			offers = append(offers, group.offers[store])
		}
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].Price.LessThan(offers[j].Price)
		})

		comparisons = append(comparisons, types.ComparisonGroup{
			Name:          group.name,
			Offers:        offers,
			CheapestStore: offers[0].Store,
			Savings:       offers[len(offers)-1].Price.Sub(offers[0].Price),
		})
	}
	return comparisons
}

func closestGroup(groups []*comparisonGroup, key string, threshold float64) *comparisonGroup {
	var best *comparisonGroup
	bestScore := threshold
	for _, group := range groups {
		similarity := matchr.JaroWinkler(group.key, key, false)
		if similarity >= bestScore {
			best = group
			bestScore = similarity
		}
	}
	return best
}

// SaveJSON writes result as indented JSON to filename
func SaveJSON(result *types.AggregatedResult, filename string) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}

	if err := writeToFile(filename, jsonData); err != nil {
		return fmt.Errorf("failed to write results to file: %w", err)
	}
	return nil
}

// writeToFile writes data to a file
func writeToFile(filename string, data []byte) error {
	return os.WriteFile(filename, data, 0644)
}
