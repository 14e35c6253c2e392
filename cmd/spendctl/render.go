package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"spendlog/internal/aggregate"
	"spendlog/internal/charts"
	"spendlog/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	labelStyle = lipgloss.NewStyle().Width(16)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1)
)

func categoryStyle(c core.Category) lipgloss.Style {
	col := charts.CategoryColor(c)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B)))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func renderSummary(expenses []core.Expense, now time.Time, months int) string {
	s := aggregate.Summarize(expenses, now)
	top := "-"
	if c, ok := s.TopCategory.Get(); ok {
		top = categoryStyle(c).Render(string(c))
	}

	cards := cardStyle.Render(strings.Join([]string{
		titleStyle.Render("Summary"),
		row("Expenses", fmt.Sprint(s.Count)),
		row("Total spent", s.TotalSpent.Dollars()),
		row("This month", s.MonthlySpent.Dollars()),
		row("Daily average", s.DailyAverage.Dollars()),
		row("Top category", top),
	}, "\n"))

	if len(expenses) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, cards, mutedStyle.Render("No expenses yet."))
	}

	cats := []string{titleStyle.Render("By category")}
	for _, c := range aggregate.CategoryBreakdown(expenses) {
		cats = append(cats, row(categoryStyle(c.Category).Render(string(c.Category)),
			fmt.Sprintf("%s %s", c.Amount.Dollars(), mutedStyle.Render(fmt.Sprintf("%d%%", c.Percent)))))
	}

	ov := aggregate.SentimentBreakdown(expenses)
	sent := []string{titleStyle.Render("Sentiment")}
	for _, b := range ov.BySentiment {
		sent = append(sent, row(string(b.Sentiment), fmt.Sprintf("%d · %s", b.Count, b.Amount.Dollars())))
	}
	sent = append(sent,
		row("Tagged", fmt.Sprintf("%d%%", ov.TaggedPercent)),
		row("Could save", ov.SavingsOpportunity.Dollars()+mutedStyle.Render(" (~"+ov.MonthlySavingsEstimate.Dollars()+"/mo)")))

	trend := []string{titleStyle.Render("Monthly")}
	for _, m := range aggregate.MonthlySeries(expenses, now, months) {
		trend = append(trend, row(m.Label+" "+m.Key[:4], m.Total.Dollars()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		cards,
		cardStyle.Render(strings.Join(cats, "\n")),
		cardStyle.Render(strings.Join(sent, "\n")),
		cardStyle.Render(strings.Join(trend, "\n")),
	)
}

func renderExpenses(expenses []core.Expense) string {
	if len(expenses) == 0 {
		return mutedStyle.Render("The share contains no expenses.")
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%d shared expenses", len(expenses)))}
	for _, e := range expenses {
		sentiment := ""
		if s, ok := e.Sentiment.Get(); ok {
			sentiment = mutedStyle.Render(" · " + string(s))
		}
		lines = append(lines, fmt.Sprintf("%s  %-9s %s  %s%s",
			e.Date, e.Amount.Dollars(),
			categoryStyle(e.Category).Width(14).Render(string(e.Category)),
			e.Description, sentiment))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}
