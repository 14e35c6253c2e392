// Package aggregate computes the derived figures shown on the dashboard,
// the insights views and export summaries. Every function is pure and
// returns zero values for an empty collection.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
)

// DefaultMonths is the length of the trailing monthly series.
const DefaultMonths = 6

// TotalSpent sums every amount.
func TotalSpent(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// MonthlySpent sums expenses dated in the calendar month of now.
func MonthlySpent(expenses []core.Expense, now time.Time) core.Money {
	key := now.Format(core.MonthLayout)
	var total core.Money
	for _, e := range expenses {
		if e.Date.MonthKey() == key {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// DailyAverage divides the total by the number of distinct dates.
func DailyAverage(expenses []core.Expense) core.Money {
	days := make(map[string]struct{})
	for _, e := range expenses {
		days[e.Date.String()] = struct{}{}
	}
	return TotalSpent(expenses).DivRound(len(days))
}

// TopCategory returns the category with the highest spend. Equal totals
// resolve alphabetically.
func TopCategory(expenses []core.Expense) core.Option[core.Category] {
	ranked := rankCategories(expenses)
	if len(ranked) == 0 {
		return core.None[core.Category]()
	}
	return core.Some(ranked[0].Category)
}

// CategoryBreakdown returns the categories with spend, largest first, each
// with its share of the total rounded to a whole percent.
func CategoryBreakdown(expenses []core.Expense) []core.CategoryAmount {
	ranked := rankCategories(expenses)
	total := TotalSpent(expenses)
	out := make([]core.CategoryAmount, 0, len(ranked))
	for _, ct := range ranked {
		out = append(out, core.CategoryAmount{
			Category: ct.Category,
			Amount:   ct.Amount,
			Percent:  Percent(ct.Amount.Cents, total.Cents),
		})
	}
	return out
}

// CategoryTotals returns every category in display order, zeroed when
// nothing was spent on it.
func CategoryTotals(expenses []core.Expense) []core.CategoryTotal {
	idx := make(map[core.Category]int)
	out := make([]core.CategoryTotal, 0, len(core.Categories()))
	for i, c := range core.Categories() {
		idx[c] = i
		out = append(out, core.CategoryTotal{Category: c})
	}
	for _, e := range expenses {
		i, ok := idx[e.Category]
		if !ok {
			continue
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

func rankCategories(expenses []core.Expense) []core.CategoryTotal {
	var ranked []core.CategoryTotal
	for _, ct := range CategoryTotals(expenses) {
		if ct.Amount.Cents > 0 {
			ranked = append(ranked, ct)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount.Cents != ranked[j].Amount.Cents {
			return ranked[i].Amount.Cents > ranked[j].Amount.Cents
		}
		return ranked[i].Category < ranked[j].Category
	})
	return ranked
}

// SentimentBreakdown aggregates labeled expenses per sentiment. Regret and
// "Skip next time" spend count as savings opportunity; the monthly estimate
// spreads it over the distinct months that carry any label.
func SentimentBreakdown(expenses []core.Expense) core.SentimentOverview {
	idx := make(map[core.Sentiment]int)
	by := make([]core.SentimentAmount, 0, len(core.Sentiments()))
	for i, s := range core.Sentiments() {
		idx[s] = i
		by = append(by, core.SentimentAmount{Sentiment: s})
	}

	ov := core.SentimentOverview{TotalCount: len(expenses)}
	months := make(map[string]struct{})
	for _, e := range expenses {
		s, ok := e.Sentiment.Get()
		if !ok {
			continue
		}
		i, known := idx[s]
		if !known {
			continue
		}
		by[i].Count++
		by[i].Amount = by[i].Amount.Add(e.Amount)
		ov.LabeledCount++
		ov.LabeledAmount = ov.LabeledAmount.Add(e.Amount)
		months[e.Date.MonthKey()] = struct{}{}
	}
	for i := range by {
		by[i].Percent = Percent(by[i].Amount.Cents, ov.LabeledAmount.Cents)
	}

	ov.BySentiment = by
	ov.TaggedPercent = Percent(int64(ov.LabeledCount), int64(ov.TotalCount))
	ov.SavingsOpportunity = by[idx[core.Regret]].Amount.Add(by[idx[core.SkipNextTime]].Amount)
	ov.MonthlySavingsEstimate = ov.SavingsOpportunity.DivRound(len(months))
	return ov
}

// MonthlySeries returns n consecutive months ending with now's month, oldest
// first. Months without expenses report zero.
func MonthlySeries(expenses []core.Expense, now time.Time, n int) []core.MonthTotal {
	if n <= 0 {
		return []core.MonthTotal{}
	}
	totals := make(map[string]core.Money)
	for _, e := range expenses {
		k := e.Date.MonthKey()
		totals[k] = totals[k].Add(e.Amount)
	}

	y, m, _ := now.Date()
	out := make([]core.MonthTotal, 0, n)
	for i := n - 1; i >= 0; i-- {
		month := time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		key := month.Format(core.MonthLayout)
		out = append(out, core.MonthTotal{
			Key:   key,
			Label: month.Format("Jan"),
			Total: totals[key],
		})
	}
	return out
}

// Summarize computes the dashboard cards.
func Summarize(expenses []core.Expense, now time.Time) core.Summary {
	return core.Summary{
		Count:        len(expenses),
		TotalSpent:   TotalSpent(expenses),
		MonthlySpent: MonthlySpent(expenses, now),
		DailyAverage: DailyAverage(expenses),
		TopCategory:  TopCategory(expenses),
	}
}

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole as a whole percent rounded half-up, 0 when
// whole is zero.
func Percent(part, whole int64) int {
	if whole == 0 {
		return 0
	}
	return int(decimal.NewFromInt(part).Mul(hundred).DivRound(decimal.NewFromInt(whole), 0).IntPart())
}
