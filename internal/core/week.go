package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AllWeeks is the filter selector that keeps every week.
const AllWeeks = "all"

type (
	// WeekKey is the YYYY-MM-DD date of a week's Monday.
	WeekKey string

	// Week groups the summaries dated Monday through Sunday of one week.
	Week struct {
		Key       WeekKey
		Start     Date
		End       Date
		Summaries []Summary
	}

	// WeekTotals aggregates one week.
	WeekTotals struct {
		Count    int
		Sales    decimal.Decimal
		Expenses decimal.Decimal
		Profit   decimal.Decimal
	}
)

// WeekStart returns the Monday on or before d.
func WeekStart(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return Date{Time: d.AddDate(0, 0, -offset)}
}

// KeyFor returns the week key a date belongs to.
func KeyFor(d Date) WeekKey {
	return WeekKey(WeekStart(d).String())
}

// GroupByWeek partitions summaries into Monday-start weeks. Summaries
// without a date are skipped. Members of each week are ordered by date,
// keeping input order for equal dates.
func GroupByWeek(summaries []Summary) map[WeekKey]Week {
	groups := make(map[WeekKey]Week)
	for _, s := range summaries {
		if s.Date.IsZero() {
			continue
		}
		start := WeekStart(s.Date)
		key := WeekKey(start.String())
		w, ok := groups[key]
		if !ok {
			w = Week{
				Key:   key,
				Start: start,
				End:   Date{Time: start.AddDate(0, 0, 6)},
			}
		}
		w.Summaries = append(w.Summaries, s)
		groups[key] = w
	}

	for key, w := range groups {
		sort.SliceStable(w.Summaries, func(i, j int) bool {
			return w.Summaries[i].Date.Before(w.Summaries[j].Date.Time)
		})
		groups[key] = w
	}
	return groups
}

// SortWeeksDescending orders weeks most recent first.
func SortWeeksDescending(groups map[WeekKey]Week) []Week {
	weeks := make([]Week, 0, len(groups))
	for _, w := range groups {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].Key > weeks[j].Key
	})
	return weeks
}

// FilterWeeks keeps every week for AllWeeks (or an empty selector), and
// otherwise only the week whose key matches exactly. An unknown key yields
// an empty result.
func FilterWeeks(weeks []Week, selector string) []Week {
	if selector == "" || selector == AllWeeks {
		return weeks
	}
	out := []Week{}
	for _, w := range weeks {
		if string(w.Key) == selector {
			out = append(out, w)
		}
	}
	return out
}

// ComputeGroupTotals adds up a week using each summary's resolved totals.
func ComputeGroupTotals(w Week) WeekTotals {
	t := WeekTotals{Count: len(w.Summaries)}
	for _, s := range w.Summaries {
		t.Sales = t.Sales.Add(s.Sales)
		t.Expenses = t.Expenses.Add(s.TotalExpenses)
		t.Profit = t.Profit.Add(s.FinalProfit)
	}
	return t
}

// OverallProfit sums the final profit of every summary, dated or not.
func OverallProfit(summaries []Summary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range summaries {
		total = total.Add(s.FinalProfit)
	}
	return total
}

// Label renders the week range as "dd/MM al dd/MM".
func (w Week) Label() string {
	return w.Start.Format("02/01") + " al " + w.End.Format("02/01")
}

// Contains reports whether d falls inside the week.
func (w Week) Contains(d Date) bool {
	return !d.Before(w.Start.Time) && d.Before(w.End.Add(24*time.Hour))
}
