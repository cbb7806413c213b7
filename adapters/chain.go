package adapters

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dealhive/normalize"
)

// Field names a semantic value pulled out of a result card
type Field string

const (
	FieldTitle  Field = "title"
	FieldPrice  Field = "price"
	FieldURL    Field = "url"
	FieldImage  Field = "image"
	FieldRating Field = "rating"
)

// Rule is one extraction strategy for a field.
//
// Selector is evaluated relative to the card; an empty selector means the
// card itself. With Closest set the selector is matched against the card's
// ancestors instead. Attr selects an attribute; empty means element text.
// Pattern, when set, keeps its first group (or the whole match), and Format
// wraps the final value, e.g. "/dp/%s".
type Rule struct {
	Selector string
	Attr     string
	Closest  bool
	Pattern  *regexp.Regexp
	Format   string
}

// Predicate decides whether an extracted value is usable
type Predicate func(value string) bool

// Chain is the ordered list of rules for one field. The first rule whose
// value passes Valid wins.
type Chain struct {
	Rules []Rule
	Valid Predicate
}

// Chains maps every field to its chain
type Chains map[Field]Chain

// Text is a rule reading the trimmed text of selector
func Text(selector string) Rule {
	return Rule{Selector: selector}
}

// Attr is a rule reading an attribute of selector
func Attr(selector, attr string) Rule {
	return Rule{Selector: selector, Attr: attr}
}

// Apply evaluates the rule against card
func (r Rule) Apply(card *goquery.Selection) (string, bool) {
	var target *goquery.Selection
	switch {
	case r.Selector == "":
		target = card
	case r.Closest:
		target = card.Closest(r.Selector)
	default:
		target = card.Find(r.Selector)
	}
	if target.Length() == 0 {
		return "", false
	}
	target = target.First()

	var value string
	if r.Attr != "" {
		attr, exists := target.Attr(r.Attr)
		if !exists {
			return "", false
		}
		value = attr
	} else {
		value = target.Text()
	}
	value = strings.TrimSpace(value)

	if r.Pattern != nil {
		groups := r.Pattern.FindStringSubmatch(value)
		if groups == nil {
			return "", false
		}
		value = groups[0]
		if len(groups) > 1 {
			value = groups[1]
		}
	}

	if value == "" {
		return "", false
	}
	if r.Format != "" {
		value = fmt.Sprintf(r.Format, value)
	}
	return value, true
}

// Extract returns the first rule output that satisfies the chain's predicate
func (c Chain) Extract(card *goquery.Selection) (string, bool) {
	value, _, ok := c.extract(card)
	return value, ok
}

func (c Chain) extract(card *goquery.Selection) (string, int, bool) {
	for i, rule := range c.Rules {
		value, ok := rule.Apply(card)
		if !ok {
			continue
		}
		if c.Valid != nil && !c.Valid(value) {
			continue
		}
		return value, i, true
	}
	return "", -1, false
}

// Extract runs the chain registered for field. Fields without a chain are absent.
func (cs Chains) Extract(field Field, card *goquery.Selection) (string, bool) {
	chain, ok := cs[field]
	if !ok {
		return "", false
	}
	return chain.Extract(card)
}

// Trace reports which rule index produced each field; -1 means absent
func (cs Chains) Trace(card *goquery.Selection) map[Field]int {
	trace := make(map[Field]int, len(cs))
	for field, chain := range cs {
		_, idx, _ := chain.extract(card)
		trace[field] = idx
	}
	return trace
}

// NotEmpty accepts any non-blank value
func NotEmpty(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MinLength accepts values longer than n characters once whitespace is collapsed
func MinLength(n int) Predicate {
	return func(value string) bool {
		return len([]rune(normalize.CleanTitle(value))) > n
	}
}

// ContainsAny accepts values containing at least one of the markers
func ContainsAny(markers ...string) Predicate {
	return func(value string) bool {
		for _, marker := range markers {
			if strings.Contains(value, marker) {
				return true
			}
		}
		return false
	}
}

var bareAmountRegex = regexp.MustCompile(`^\d{1,3}(,\d{2,3})*\.?$|^\d{3,8}\.?$`)

// PlausiblePrice accepts text that carries a currency marker or is a bare
// grouped amount, and that parses to a price inside band
func PlausiblePrice(band normalize.Band) Predicate {
	return func(value string) bool {
		if !normalize.HasCurrencyMarker(value) && !bareAmountRegex.MatchString(strings.TrimSpace(value)) {
			return false
		}
		_, ok := normalize.ParsePrice(value, band)
		return ok
	}
}

// LinkContains accepts links containing any of the path fragments
func LinkContains(fragments ...string) Predicate {
	return ContainsAny(fragments...)
}

// Rating accepts values that parse to a rating in 0..5
func Rating(value string) bool {
	_, ok := normalize.ParseRating(value)
	return ok
}

// All combines predicates; every one must accept
func All(predicates ...Predicate) Predicate {
	return func(value string) bool {
		for _, p := range predicates {
			if !p(value) {
				return false
			}
		}
		return true
	}
}
