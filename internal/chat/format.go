package chat

import (
	"fmt"
	"strings"

	"economoney/internal/core"
	"economoney/internal/services"
)

var periodNames = map[core.Period]string{
	core.PeriodDay:   "the day",
	core.PeriodWeek:  "the week",
	core.PeriodMonth: "the month",
}

type formatter struct {
	currency string
}

func (f formatter) money(m core.Money) string {
	return m.String() + " " + f.currency
}

func (f formatter) greeting(balance core.Money) string {
	return "👋 Hi! I will help you keep track of your spending.\n" +
		fmt.Sprintf("You have %s for today.\n\n", f.money(balance)) +
		"Send the amount you spent and pick a category."
}

func (f formatter) expensePosted(amount core.Money, category string, balance core.Money) string {
	return fmt.Sprintf("💸 Spent %s on %s.\nLeft for today: %s",
		f.money(amount), core.CategoryOrDefault(category), f.money(balance))
}

func (f formatter) budgetAdjusted(delta, balance core.Money) string {
	verb := "increased"
	if delta.IsNegative() {
		verb = "decreased"
	}
	return fmt.Sprintf("✅ Budget %s by %s.\nCurrent balance: %s", verb, f.money(delta.Abs()), f.money(balance))
}

func (f formatter) periodTotals(t services.PeriodTotals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Stats for %s:\n\n", periodNames[t.Period])
	for _, c := range t.Categories {
		fmt.Fprintf(&b, "• %s — %s\n", c.Category, f.money(c.Amount))
	}
	fmt.Fprintf(&b, "\n💵 Spent: %s", f.money(t.Total))
	return b.String()
}

func (f formatter) dayReport(r services.DayReport) string {
	return f.periodTotals(r.Totals) + fmt.Sprintf("\n💰 End-of-day balance: %s", f.money(r.Balance))
}

// weekly lists the days that have expenses or a stored balance.
func (f formatter) weekly(w services.WeeklyBreakdown) string {
	var b strings.Builder
	b.WriteString("📆 Stats for the last week:\n\n")
	shown := 0
	for _, d := range w.Days {
		if len(d.Categories) == 0 && !d.HasBalance {
			continue
		}
		shown++
		fmt.Fprintf(&b, "📅 %s:\n", d.Day.Format("02.01.2006"))
		if len(d.Categories) == 0 {
			b.WriteString("   • No expenses\n")
		}
		for _, c := range d.Categories {
			fmt.Fprintf(&b, "   • %s: %s\n", c.Category, f.money(c.Amount))
		}
		fmt.Fprintf(&b, "   💵 Spent that day: %s\n", f.money(d.Total))
		if d.HasBalance {
			fmt.Fprintf(&b, "   💰 End-of-day balance: %s\n\n", f.money(d.Balance))
		} else {
			b.WriteString("   💰 Balance not found\n\n")
		}
	}
	if shown == 0 {
		return "📊 No expenses found for the week."
	}
	fmt.Fprintf(&b, "💵 Spent this week: %s", f.money(w.GrandTotal))
	return b.String()
}
