package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"dealhive/extractor"
	"dealhive/internal/types"
)

var (
	storeFlag  string
	limitFlag  int
	jsonFlag   bool
	outputFlag string
)

func init() {
	searchCmd.Flags().StringVar(&storeFlag, "store", "", "Search a single store (amazon, flipkart, reliance, croma)")
	searchCmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum number of results to show (0 = all)")
	searchCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print results as JSON instead of a table")
	searchCmd.Flags().StringVar(&outputFlag, "output", "", "Also write results as JSON to this file")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search every enabled store and list offers by relevance and price.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.TrimSpace(strings.Join(args, " "))
		if term == "" {
			return types.ErrEmptyQuery
		}
		if limitFlag < 0 {
			return fmt.Errorf("--limit cannot be negative")
		}

		cfg, logger, engine, err := setup()
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Scraper.StoreTimeout+30*time.Second)
		defer cancel()

		startTime := time.Now()
		var result *types.AggregatedResult
		if storeFlag != "" {
			products, err := engine.SearchStore(ctx, storeFlag, term, limitFlag)
			if err != nil {
				return err
			}
			result = singleStoreResult(term, products)
		} else {
			result, err = engine.SearchAll(ctx, term)
			if err != nil {
				return err
			}
		}
		logger.Infof("Search completed in %v", time.Since(startTime))

		if limitFlag > 0 && len(result.Products) > limitFlag {
			result.Products = result.Products[:limitFlag]
			result.Count = limitFlag
			result.Summary = extractor.Summarize(result.Products)
		}

		if outputFlag != "" {
			if err := extractor.SaveJSON(result, outputFlag); err != nil {
				return err
			}
			logger.Infof("Results written to: %s", outputFlag)
		}

		if jsonFlag {
			jsonData, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal results: %w", err)
			}
			fmt.Println(string(jsonData))
			return nil
		}

		renderResult(result)
		return nil
	},
}

func singleStoreResult(term string, products []types.Product) *types.AggregatedResult {
	result := &types.AggregatedResult{
		Query:       term,
		Products:    products,
		Count:       len(products),
		Summary:     extractor.Summarize(products),
		GeneratedAt: time.Now(),
	}
	if result.Summary != nil {
		result.Stores = result.Summary.Stores
	}
	return result
}

func renderResult(result *types.AggregatedResult) {
	if result.Count == 0 {
		fmt.Printf("No offers found for %q\n", result.Query)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%d offers for %q", result.Count, result.Query))
	t.AppendHeader(table.Row{"#", "Store", "Product", "Price", "Rating"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 60},
		{Number: 4, Align: text.AlignRight},
	})

	for i, product := range result.Products {
		rating := "-"
		if product.Rating != nil {
			rating = product.Rating.StringFixed(1)
		}
		t.AppendRow(table.Row{i + 1, product.Store, product.Name, formatPrice(product), rating})
	}

	if s := result.Summary; s != nil {
		t.AppendFooter(table.Row{"", "", "Lowest / Highest / Average",
			fmt.Sprintf("%s / %s / %s", s.Lowest, s.Highest, s.Average), ""})
	}
	t.Render()

	if len(result.Comparisons) == 0 {
		return
	}

	c := table.NewWriter()
	c.SetOutputMirror(os.Stdout)
	c.SetStyle(table.StyleRounded)
	c.SetTitle("Same product across stores")
	c.AppendHeader(table.Row{"Product", "Cheapest", "Offers", "Savings"})
	c.SetColumnConfigs([]table.ColumnConfig{{Number: 1, WidthMax: 50}})
	for _, group := range result.Comparisons {
		offers := make([]string, 0, len(group.Offers))
		for _, offer := range group.Offers {
			offers = append(offers, fmt.Sprintf("%s %s", offer.Store, offer.Price))
		}
		c.AppendRow(table.Row{group.Name, group.CheapestStore, strings.Join(offers, "\n"), group.Savings.String()})
	}
	c.Render()
}

func formatPrice(p types.Product) string {
	if p.Currency == "INR" {
		return "₹" + p.Price.StringFixed(0)
	}
	return p.Price.StringFixed(0) + " " + p.Currency
}
