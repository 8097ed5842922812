package core

import "strings"

// Filter returns the transactions matching a free-text search term. A
// transaction matches when the case-insensitive term is a substring of its
// description, its category name, or the decimal string form of its amount.
// An empty or whitespace-only term returns the input unchanged, order
// preserved. This is a plain linear scan; list sizes are bounded by personal
// usage.
func Filter(txns []Transaction, term string) []Transaction {
	term = strings.TrimSpace(term)
	if term == "" {
		return txns
	}
	lower := strings.ToLower(term)
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if strings.Contains(strings.ToLower(t.Description), lower) ||
			strings.Contains(strings.ToLower(t.Category), lower) ||
			strings.Contains(t.Amount.DecimalString(), lower) {
			out = append(out, t)
		}
	}
	return out
}
