package chat

import "strings"

// Callback tags carried by menu buttons.
const (
	CallbackStatsDay   = "stats_day"
	CallbackStatsWeek  = "stats_week"
	CallbackStatsMonth = "stats_month"
	CallbackAddBudget  = "add_budget"
	categoryPrefix     = "cat_"
)

type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Menu is a keyboard of buttons laid out in rows.
type Menu struct {
	Rows [][]Button `json:"rows"`
}

type category struct {
	name  string
	emoji string
}

var categories = []category{
	{"Groceries", "🛒"},
	{"Entertainment", "🎉"},
	{"Delivery/Restaurants", "🍔"},
	{"Transport", "🚗"},
	{"Other", "🧾"},
}

// Categories returns the names offered in the category menu.
func Categories() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.name
	}
	return out
}

func MainMenu() *Menu {
	return &Menu{Rows: [][]Button{
		{
			{Text: "📅 Day", Data: CallbackStatsDay},
			{Text: "📈 Week", Data: CallbackStatsWeek},
			{Text: "📊 Month", Data: CallbackStatsMonth},
		},
		{
			{Text: "💰 Top up budget", Data: CallbackAddBudget},
		},
	}}
}

// CategoryMenu lays the categories out two per row.
func CategoryMenu() *Menu {
	m := &Menu{}
	var row []Button
	for _, c := range categories {
		row = append(row, Button{Text: c.emoji + " " + c.name, Data: categoryPrefix + c.name})
		if len(row) == 2 {
			m.Rows = append(m.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		m.Rows = append(m.Rows, row)
	}
	return m
}

// categoryFromCallback extracts the category of a cat_<name> tag.
func categoryFromCallback(data string) (string, bool) {
	if !strings.HasPrefix(data, categoryPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(data, categoryPrefix)), true
}
