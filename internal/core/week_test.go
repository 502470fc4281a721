package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func summaryOn(id string, d Date, profit int64) Summary {
	return NewSummary(id, Fields{Date: d, Sales: dec(profit)}, StoredTotals{})
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in, want Date
	}{
		{NewDate(2024, time.March, 4), NewDate(2024, time.March, 4)},  // Monday
		{NewDate(2024, time.March, 6), NewDate(2024, time.March, 4)},  // Wednesday
		{NewDate(2024, time.March, 10), NewDate(2024, time.March, 4)}, // Sunday
		{NewDate(2024, time.March, 11), NewDate(2024, time.March, 11)},
		{NewDate(2024, time.January, 1), NewDate(2024, time.January, 1)},
		{NewDate(2023, time.January, 1), NewDate(2022, time.December, 26)},
	}
	for _, tc := range cases {
		if got := WeekStart(tc.in); !got.Equal(tc.want.Time) {
			t.Fatalf("WeekStart(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestGroupByWeekMondayToSunday(t *testing.T) {
	groups := GroupByWeek([]Summary{
		summaryOn("sun", NewDate(2024, time.March, 10), 1),
		summaryOn("mon", NewDate(2024, time.March, 4), 1),
		summaryOn("next", NewDate(2024, time.March, 11), 1),
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(groups))
	}
	w, ok := groups["2024-03-04"]
	if !ok {
		t.Fatalf("missing week 2024-03-04: %v", groups)
	}
	if len(w.Summaries) != 2 || w.Summaries[0].ID != "mon" || w.Summaries[1].ID != "sun" {
		t.Fatalf("unexpected members %+v", w.Summaries)
	}
	if w.End.String() != "2024-03-10" {
		t.Fatalf("week end = %s", w.End)
	}
	if next := groups["2024-03-11"]; len(next.Summaries) != 1 || next.Summaries[0].ID != "next" {
		t.Fatalf("unexpected next week %+v", next)
	}
}

func TestGroupByWeekPartitions(t *testing.T) {
	input := []Summary{
		summaryOn("a", NewDate(2024, time.February, 29), 1),
		summaryOn("b", Date{}, 1),
		summaryOn("c", NewDate(2024, time.March, 1), 1),
		summaryOn("d", NewDate(2024, time.March, 3), 1),
		summaryOn("e", NewDate(2024, time.March, 4), 1),
		summaryOn("f", NewDate(2023, time.December, 31), 1),
		summaryOn("g", NewDate(2024, time.January, 1), 1),
	}
	seen := map[string]int{}
	for key, w := range GroupByWeek(input) {
		for _, s := range w.Summaries {
			seen[s.ID]++
			if KeyFor(s.Date) != key {
				t.Fatalf("%s placed in %s, belongs to %s", s.ID, key, KeyFor(s.Date))
			}
			if !w.Contains(s.Date) {
				t.Fatalf("%s outside its week range %s", s.ID, w.Label())
			}
		}
	}
	for _, s := range input {
		want := 1
		if s.Date.IsZero() {
			want = 0
		}
		if seen[s.ID] != want {
			t.Fatalf("%s seen %d times, want %d", s.ID, seen[s.ID], want)
		}
	}
}

func TestSortAndFilterWeeks(t *testing.T) {
	weeks := SortWeeksDescending(GroupByWeek([]Summary{
		summaryOn("a", NewDate(2024, time.February, 5), 1),
		summaryOn("b", NewDate(2024, time.March, 11), 1),
		summaryOn("c", NewDate(2023, time.December, 31), 1),
	}))
	keys := []WeekKey{"2024-03-11", "2024-02-05", "2023-12-25"}
	if len(weeks) != len(keys) {
		t.Fatalf("expected %d weeks, got %d", len(keys), len(weeks))
	}
	for i, k := range keys {
		if weeks[i].Key != k {
			t.Fatalf("position %d: got %s, want %s", i, weeks[i].Key, k)
		}
	}

	if got := FilterWeeks(weeks, AllWeeks); len(got) != 3 {
		t.Fatalf("all filter returned %d weeks", len(got))
	}
	if got := FilterWeeks(weeks, "2024-02-05"); len(got) != 1 || got[0].Key != "2024-02-05" {
		t.Fatalf("exact filter returned %+v", got)
	}
	got := FilterWeeks(weeks, "2024-02-06")
	if got == nil || len(got) != 0 {
		t.Fatalf("unmatched filter should be empty, got %+v", got)
	}
}

func TestComputeGroupTotals(t *testing.T) {
	stored := NewSummary("s", Fields{Date: NewDate(2024, 3, 5), Sales: dec(300)}, StoredTotals{
		TotalExpenses: decimal.NewNullDecimal(dec(100)),
		FinalProfit:   decimal.NewNullDecimal(dec(250)),
	})
	computed := NewSummary("c", Fields{Date: NewDate(2024, 3, 6), Sales: dec(500), Invoices: dec(200)}, StoredTotals{})
	w := GroupByWeek([]Summary{stored, computed})["2024-03-04"]

	totals := ComputeGroupTotals(w)
	if totals.Count != 2 {
		t.Fatalf("count = %d", totals.Count)
	}
	if !totals.Sales.Equal(dec(800)) || !totals.Expenses.Equal(dec(300)) || !totals.Profit.Equal(dec(550)) {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestOverallProfitIgnoresFilter(t *testing.T) {
	all := []Summary{
		summaryOn("a", NewDate(2024, time.March, 4), 100),
		summaryOn("b", NewDate(2024, time.March, 11), -20),
		summaryOn("c", NewDate(2024, time.March, 18), 50),
	}
	weeks := SortWeeksDescending(GroupByWeek(all))
	for _, sel := range []string{AllWeeks, "2024-03-11", "1999-01-04"} {
		_ = FilterWeeks(weeks, sel)
		if got := OverallProfit(all); !got.Equal(dec(130)) {
			t.Fatalf("filter %q: overall = %s, want 130", sel, got)
		}
	}
}

func TestWeekLabel(t *testing.T) {
	w := GroupByWeek([]Summary{summaryOn("a", NewDate(2024, time.February, 28), 1)})["2024-02-26"]
	if got := w.Label(); got != "26/02 al 03/03" {
		t.Fatalf("label = %q", got)
	}
}
