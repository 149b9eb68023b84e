// Package merchant classifies merchant names into a business type and the
// products they sell, for semantic receipt matching.
package merchant

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/recollect/internal/model"
)

// KnownMerchant is a built-in classification for a well-known merchant.
type KnownMerchant struct {
	Name     string
	Type     string
	Regex    string
	Products []string
	Priority int // Higher priority entries are checked first
}

type compiledMerchant struct {
	regex *regexp.Regexp
	KnownMerchant
}

// Detector matches merchant names against the known-merchant table.
type Detector struct {
	merchants []compiledMerchant
	mu        sync.RWMutex
}

// NewDetector compiles entries into a detector. Patterns are matched
// case-insensitively.
func NewDetector(entries []KnownMerchant) (*Detector, error) {
	d := &Detector{}
	if err := d.Update(entries); err != nil {
		return nil, err
	}
	return d, nil
}

// Update replaces the detector's table.
func (d *Detector) Update(entries []KnownMerchant) error {
	compiled := make([]compiledMerchant, 0, len(entries))
	for _, e := range entries {
		expr := e.Regex
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("failed to compile merchant pattern %s: %w", e.Name, err)
		}
		compiled = append(compiled, compiledMerchant{KnownMerchant: e, regex: re})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	d.mu.Lock()
	d.merchants = compiled
	d.mu.Unlock()
	return nil
}

// Match returns the built-in profile for name, if any.
func (d *Detector) Match(name string) (model.MerchantProfile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, m := range d.merchants {
		if m.regex.MatchString(name) {
			return model.MerchantProfile{
				Name:     name,
				Type:     m.Type,
				Products: append([]string(nil), m.Products...),
				Source:   model.SourceBuiltin,
			}, true
		}
	}
	return model.MerchantProfile{}, false
}

// Len returns the number of loaded entries.
func (d *Detector) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.merchants)
}

// DefaultMerchants returns the built-in table of well-known merchants.
func DefaultMerchants() []KnownMerchant {
	return []KnownMerchant{
		// Coffee
		{Name: "Starbucks", Type: "cafe", Regex: `\b(starbucks|sbux)\b`, Products: []string{"coffee", "tea", "pastries", "sandwiches"}, Priority: 100},
		{Name: "Blue Bottle", Type: "cafe", Regex: `\bblue\s*bottle\b`, Products: []string{"coffee", "pastries"}, Priority: 100},
		{Name: "Tim Hortons", Type: "cafe", Regex: `\btim\s*horton'?s?\b`, Products: []string{"coffee", "donuts", "breakfast"}, Priority: 100},
		{Name: "Dunkin", Type: "cafe", Regex: `\bdunkin\b`, Products: []string{"coffee", "donuts", "breakfast"}, Priority: 100},
		{Name: "Peet's", Type: "cafe", Regex: `\bpeet'?s\b`, Products: []string{"coffee", "tea"}, Priority: 100},

		// Groceries
		{Name: "Whole Foods", Type: "grocery store", Regex: `\bwhole\s*foods\b`, Products: []string{"groceries", "produce", "organic food", "prepared food"}, Priority: 90},
		{Name: "Trader Joe's", Type: "grocery store", Regex: `\btrader\s*joe'?s?\b`, Products: []string{"groceries", "snacks", "wine", "produce"}, Priority: 90},
		{Name: "Safeway", Type: "grocery store", Regex: `\bsafeway\b`, Products: []string{"groceries", "produce", "pharmacy"}, Priority: 90},
		{Name: "Kroger", Type: "grocery store", Regex: `\bkroger\b`, Products: []string{"groceries", "produce", "pharmacy"}, Priority: 90},
		{Name: "Loblaws", Type: "grocery store", Regex: `\bloblaws?\b`, Products: []string{"groceries", "produce"}, Priority: 90},

		// Big box
		{Name: "Costco", Type: "warehouse club", Regex: `\bcostco\b`, Products: []string{"groceries", "electronics", "household goods", "gas"}, Priority: 85},
		{Name: "Target", Type: "department store", Regex: `\btarget\b`, Products: []string{"household goods", "clothing", "groceries", "electronics"}, Priority: 80},
		{Name: "Walmart", Type: "department store", Regex: `\bwal-?mart\b`, Products: []string{"household goods", "groceries", "clothing", "electronics"}, Priority: 80},
		{Name: "Amazon", Type: "online retailer", Regex: `\b(amazon|amzn)\b`, Products: []string{"books", "electronics", "household goods", "clothing"}, Priority: 75},
		{Name: "Best Buy", Type: "electronics store", Regex: `\bbest\s*buy\b`, Products: []string{"electronics", "computers", "appliances"}, Priority: 80},
		{Name: "Apple", Type: "electronics store", Regex: `\bapple\s*(store|\.com)\b`, Products: []string{"electronics", "computers", "phones"}, Priority: 80},
		{Name: "IKEA", Type: "furniture store", Regex: `\bikea\b`, Products: []string{"furniture", "home decor", "household goods"}, Priority: 80},
		{Name: "Home Depot", Type: "hardware store", Regex: `\bhome\s*depot\b`, Products: []string{"tools", "hardware", "garden supplies"}, Priority: 80},

		// Pharmacy
		{Name: "CVS", Type: "pharmacy", Regex: `\bcvs\b`, Products: []string{"medicine", "toiletries", "snacks"}, Priority: 85},
		{Name: "Walgreens", Type: "pharmacy", Regex: `\bwalgreens\b`, Products: []string{"medicine", "toiletries", "snacks"}, Priority: 85},
		{Name: "Shoppers Drug Mart", Type: "pharmacy", Regex: `\bshoppers\s*drug\s*mart\b`, Products: []string{"medicine", "toiletries", "cosmetics"}, Priority: 85},

		// Restaurants
		{Name: "McDonald's", Type: "fast food restaurant", Regex: `\bmc\s*donald'?s?\b`, Products: []string{"burgers", "fries", "breakfast", "coffee"}, Priority: 80},
		{Name: "Chipotle", Type: "fast casual restaurant", Regex: `\bchipotle\b`, Products: []string{"burritos", "bowls", "tacos"}, Priority: 80},
		{Name: "Subway", Type: "fast food restaurant", Regex: `\bsubway\b`, Products: []string{"sandwiches", "salads"}, Priority: 70},

		// Transport and fuel
		{Name: "Uber", Type: "rideshare", Regex: `\buber\b`, Products: []string{"rides", "transportation"}, Priority: 75},
		{Name: "Uber Eats", Type: "food delivery", Regex: `\buber\s*eats\b`, Products: []string{"food delivery", "restaurant meals"}, Priority: 95},
		{Name: "Lyft", Type: "rideshare", Regex: `\blyft\b`, Products: []string{"rides", "transportation"}, Priority: 75},
		{Name: "Shell", Type: "gas station", Regex: `\bshell\b`, Products: []string{"gas", "fuel", "snacks"}, Priority: 70},
		{Name: "Chevron", Type: "gas station", Regex: `\bchevron\b`, Products: []string{"gas", "fuel", "snacks"}, Priority: 70},

		// Subscriptions
		{Name: "Netflix", Type: "streaming service", Regex: `\bnetflix\b`, Products: []string{"streaming", "movies", "tv shows"}, Priority: 90},
		{Name: "Spotify", Type: "streaming service", Regex: `\bspotify\b`, Products: []string{"music", "podcasts", "streaming"}, Priority: 90},
	}
}
