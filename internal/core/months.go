package core

import "sort"

// PartitionKey returns the "YYYY-MM" month key of a date, in UTC.
func (d Date) PartitionKey() string {
	return d.UTC().Format("2006-01")
}

// PartitionKeys returns the distinct month keys present in the list, sorted
// descending so the most recent month comes first.
func PartitionKeys(txns []Transaction) []string {
	seen := make(map[string]struct{}, len(txns))
	keys := make([]string, 0, len(txns))
	for _, t := range txns {
		k := t.Date.PartitionKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// FilterByPartition returns the transactions whose derived month key equals
// the selected key, by exact string comparison. An empty key returns the
// whole list.
func FilterByPartition(txns []Transaction, key string) []Transaction {
	if key == "" {
		return txns
	}
	out := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Date.PartitionKey() == key {
			out = append(out, t)
		}
	}
	return out
}

// DefaultPartition picks the key a fresh list view should select: the most
// recent key when the user has not chosen one yet, otherwise the existing
// selection untouched.
func DefaultPartition(keys []string, selected string) string {
	if selected != "" {
		return selected
	}
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
