package model

import (
	"math"
	"sort"
)

// CategoryTotal is one category's share of receipt spending.
type CategoryTotal struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ReceiptStatistics summarizes a set of receipts.
type ReceiptStatistics struct {
	ByCategory    []CategoryTotal `json:"by_category"`
	TotalAmount   float64         `json:"total_amount"`
	AverageAmount float64         `json:"average_amount"`
	MinAmount     float64         `json:"min_amount"`
	MaxAmount     float64         `json:"max_amount"`
	TotalCount    int             `json:"total_count"`
}

// UncategorizedLabel is used for receipts without a category.
const UncategorizedLabel = "Uncategorized"

// SummarizeReceipts computes statistics over exactly the receipts given.
// Callers pass the filtered, in-range set; nothing is re-queried here.
func SummarizeReceipts(receipts []Receipt) ReceiptStatistics {
	stats := ReceiptStatistics{ByCategory: []CategoryTotal{}}
	if len(receipts) == 0 {
		return stats
	}

	stats.MinAmount = math.Inf(1)
	stats.MaxAmount = math.Inf(-1)
	byCategory := make(map[string]*CategoryTotal)

	for _, r := range receipts {
		stats.TotalAmount += r.Amount
		stats.TotalCount++
		stats.MinAmount = math.Min(stats.MinAmount, r.Amount)
		stats.MaxAmount = math.Max(stats.MaxAmount, r.Amount)

		category := r.Category
		if category == "" {
			category = UncategorizedLabel
		}
		ct, ok := byCategory[category]
		if !ok {
			ct = &CategoryTotal{Category: category}
			byCategory[category] = ct
		}
		ct.Amount += r.Amount
		ct.Count++
	}

	stats.TotalAmount = roundCents(stats.TotalAmount)
	stats.AverageAmount = roundCents(stats.TotalAmount / float64(stats.TotalCount))

	for _, ct := range byCategory {
		ct.Amount = roundCents(ct.Amount)
		if stats.TotalAmount != 0 {
			ct.Percentage = math.Round(ct.Amount/stats.TotalAmount*1000) / 10
		}
		stats.ByCategory = append(stats.ByCategory, *ct)
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		a, b := stats.ByCategory[i], stats.ByCategory[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Category < b.Category
	})

	return stats
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
