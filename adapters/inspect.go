package adapters

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"dealhive/normalize"
)

// SelectorCount is how many elements one card selector matched
type SelectorCount struct {
	Selector string
	Matches  int
}

// CardTrace records which chain rule produced each field of one card
type CardTrace struct {
	Index    int
	Title    string
	Rules    map[Field]int
	Accepted bool
	Reason   string
}

// Inspection describes how a store's first query variant was parsed
type Inspection struct {
	Variant  Variant
	Bytes    int
	Counts   []SelectorCount
	Selected string
	Cards    []CardTrace
}

// Inspect fetches the first variant for term and reports selector and rule
// hits for up to maxCards cards. It is meant for diagnosing layout drift.
func (b *BaseAdapter) Inspect(ctx context.Context, term string, maxCards int) (*Inspection, error) {
	variants := b.QueryVariants(term)
	if len(variants) == 0 {
		return nil, fmt.Errorf("no query variants for %q", term)
	}
	variant := variants[0]

	html, err := b.GetPageContent(ctx, variant.URL)
	if err != nil {
		return nil, err
	}
	doc, err := b.ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	inspection := &Inspection{Variant: variant, Bytes: len(html)}
	for _, selector := range b.profile.CardSelectors {
		inspection.Counts = append(inspection.Counts, SelectorCount{
			Selector: selector,
			Matches:  doc.Find(selector).Length(),
		})
	}

	cards, selected := b.SelectCards(doc, term)
	inspection.Selected = selected

	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= maxCards {
			return false
		}
		title, _ := b.profile.Chains.Extract(FieldTitle, card)
		_, reason, ok := b.parseCardSafe(card)
		inspection.Cards = append(inspection.Cards, CardTrace{
			Index:    i,
			Title:    normalize.CleanTitle(title),
			Rules:    b.profile.Chains.Trace(card),
			Accepted: ok,
			Reason:   reason,
		})
		return true
	})

	return inspection, nil
}
