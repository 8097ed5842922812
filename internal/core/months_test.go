package core

import (
	"reflect"
	"testing"
)

func TestPartitionKeys(t *testing.T) {
	txns := []Transaction{
		{Date: NewDate(2024, 1, 15)},
		{Date: NewDate(2024, 3, 2)},
		{Date: NewDate(2024, 1, 30)}, // duplicate month
		{Date: NewDate(2023, 12, 31)},
	}
	got := PartitionKeys(txns)
	want := []string{"2024-03", "2024-01", "2023-12"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPartitionKeysEmpty(t *testing.T) {
	if got := PartitionKeys(nil); len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}
}

func TestFilterByPartition(t *testing.T) {
	txns := []Transaction{
		{ID: "a", Date: NewDate(2024, 1, 15)},
		{ID: "b", Date: NewDate(2024, 3, 2)},
	}
	got := FilterByPartition(txns, "2024-01")
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only txn a, got %v", got)
	}
	// Empty key leaves the list unfiltered.
	if got := FilterByPartition(txns, ""); len(got) != 2 {
		t.Fatalf("expected full list, got %v", got)
	}
}

func TestDefaultPartition(t *testing.T) {
	keys := []string{"2024-03", "2024-01"}
	if got := DefaultPartition(keys, ""); got != "2024-03" {
		t.Fatalf("expected most recent key, got %q", got)
	}
	// A selection the user already made is never overridden.
	if got := DefaultPartition(keys, "2024-01"); got != "2024-01" {
		t.Fatalf("expected existing selection kept, got %q", got)
	}
	if got := DefaultPartition(nil, ""); got != "" {
		t.Fatalf("expected empty default, got %q", got)
	}
}
