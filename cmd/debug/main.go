package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"dealhive/adapters"
	"dealhive/internal/types"
	"dealhive/utils"
)

func main() {
	var (
		storeFlag  = flag.String("store", "", "Store key to inspect (amazon, flipkart, reliance, croma); empty inspects all")
		termFlag   = flag.String("term", "iphone 15", "Search term")
		cardsFlag  = flag.Int("cards", 5, "Number of cards to trace")
		useBrowser = flag.Bool("browser", false, "Use headless browser to fetch JavaScript-rendered content")
	)
	flag.Parse()

	config := types.DefaultConfig()
	config.UseHeadlessBrowser = *useBrowser
	config.PaceRequests = false

	logger := utils.NewLogger("", true)

	found := false
	for _, profile := range adapters.Profiles() {
		if *storeFlag != "" && !strings.EqualFold(*storeFlag, profile.Key) {
			continue
		}
		found = true

		fmt.Printf("=== Testing %s ===\n", profile.Name)
		testStore(profile, *termFlag, *cardsFlag, config, logger)
		fmt.Println()
	}

	if !found {
		log.Printf("Unknown store: %s", *storeFlag)
		os.Exit(1)
	}
}

func testStore(profile adapters.StoreProfile, term string, cards int, config *types.Config, logger types.Logger) {
	adapter := adapters.NewBaseAdapter(config, logger, profile)
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	inspection, err := adapter.Inspect(ctx, term, cards)
	if err != nil {
		log.Printf("Failed to inspect %s: %v", profile.Name, err)
		return
	}

	fmt.Printf("Page: %s (%s), %d bytes\n", inspection.Variant.Label, inspection.Variant.URL, inspection.Bytes)

	fmt.Println("Card selectors:")
	for _, count := range inspection.Counts {
		fmt.Printf("  %-40s %d\n", count.Selector, count.Matches)
	}
	if inspection.Selected == "" {
		fmt.Println("No result cards found")
		return
	}
	fmt.Printf("Using: %s\n", inspection.Selected)

	for _, card := range inspection.Cards {
		status := "accepted"
		if !card.Accepted {
			status = "rejected: " + card.Reason
		}
		fmt.Printf("  %d: title='%s' [%s]\n", card.Index+1, card.Title, status)

		fields := make([]string, 0, len(card.Rules))
		for field := range card.Rules {
			fields = append(fields, string(field))
		}
		sort.Strings(fields)
		for _, field := range fields {
			rule := card.Rules[adapters.Field(field)]
			if rule < 0 {
				fmt.Printf("       %-6s no rule matched\n", field)
				continue
			}
			fmt.Printf("       %-6s rule %d\n", field, rule+1)
		}
	}
}
