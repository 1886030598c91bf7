// Package chat turns inbound chat events into ledger operations and
// formatted replies.
package chat

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"economoney/internal/core"
	"economoney/internal/log"
	"economoney/internal/services"
)

const (
	noticeNoPending      = "No pending amount 😅"
	noticeGeneric        = "Something went wrong, please try again later."
	noticeAmountPositive = "The amount must be greater than zero."
	promptCategory       = "Pick a category:"
	promptAdjustment     = "💰 Enter the amount to add to today's budget:"
	helpText             = "Send the amount you spent, for example 350 or 12.50, then pick a category.\n" +
		"Use the menu below for stats or to top up today's budget."
)

var numericPattern = regexp.MustCompile(`^-?\d+([.,]\d+)?$`)

// Event is one inbound message or button press.
type Event struct {
	UserID   int64  `json:"user_id"`
	Text     string `json:"text,omitempty"`
	Callback string `json:"callback,omitempty"`
}

// Reply is the text and menu sent back. Alert marks short notices that
// clients may show as a popup instead of a message.
type Reply struct {
	Text  string `json:"text"`
	Menu  *Menu  `json:"menu,omitempty"`
	Alert bool   `json:"alert,omitempty"`
}

type Ledger interface {
	Balance(ctx context.Context, userID int64, day core.Day) (core.Money, error)
	PostExpense(ctx context.Context, userID int64, amount core.Money, category string, day core.Day) (core.Money, error)
	AdjustBudget(ctx context.Context, userID int64, delta core.Money, day core.Day) (core.Money, error)
}

type Reports interface {
	PeriodTotals(ctx context.Context, userID int64, period core.Period, today core.Day) (services.PeriodTotals, error)
	WeeklyBreakdown(ctx context.Context, userID int64, today core.Day) (services.WeeklyBreakdown, error)
	DayReport(ctx context.Context, userID int64, today core.Day) (services.DayReport, error)
}

type Bot struct {
	ledger   Ledger
	reports  Reports
	sessions *services.SessionStore
	clock    core.Clock
	format   formatter
	logger   *log.Logger
}

func NewBot(ledger Ledger, reports Reports, sessions *services.SessionStore, clock core.Clock, currency string) *Bot {
	if sessions == nil {
		sessions = services.NewSessionStore()
	}
	if clock == nil {
		clock = core.LocalClock{}
	}
	return &Bot{
		ledger:   ledger,
		reports:  reports,
		sessions: sessions,
		clock:    clock,
		format:   formatter{currency: currency},
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentChat),
	}
}

// WithLogger replaces the bot's logger.
func (b *Bot) WithLogger(l *log.Logger) *Bot {
	b.logger = l.WithComponent(log.ComponentChat)
	return b
}

// Handle processes one event. Failures are reported as short notices and
// never carry internal details.
func (b *Bot) Handle(ctx context.Context, ev Event) Reply {
	if ev.UserID == 0 {
		return b.fail(ctx, ev, "handle", core.ErrInvalidUser)
	}
	today := b.clock.Today()

	if ev.Callback != "" {
		return b.handleCallback(ctx, ev, today)
	}

	text := strings.TrimSpace(ev.Text)
	switch {
	case text == "/start":
		return b.start(ctx, ev, today)
	case numericPattern.MatchString(text):
		return b.handleAmount(ctx, ev, text, today)
	default:
		return Reply{Text: helpText, Menu: MainMenu()}
	}
}

func (b *Bot) start(ctx context.Context, ev Event, today core.Day) Reply {
	b.sessions.Reset(ev.UserID)
	balance, err := b.ledger.Balance(ctx, ev.UserID, today)
	if err != nil {
		return b.fail(ctx, ev, "start", err)
	}
	return Reply{Text: b.format.greeting(balance), Menu: MainMenu()}
}

func (b *Bot) handleAmount(ctx context.Context, ev Event, text string, today core.Day) Reply {
	adjusting := b.sessions.TakeAdjustment(ev.UserID)
	amount, err := core.ParseAmount(text)
	if err != nil {
		return Reply{Text: helpText, Menu: MainMenu()}
	}

	if adjusting {
		balance, err := b.ledger.AdjustBudget(ctx, ev.UserID, amount, today)
		if err != nil {
			if !errors.Is(err, core.ErrInvalidAmount) {
				b.sessions.BeginAdjustment(ev.UserID)
			}
			return b.fail(ctx, ev, log.OpAdjustBudget, err)
		}
		return Reply{Text: b.format.budgetAdjusted(amount, balance), Menu: MainMenu()}
	}

	if !amount.IsPositive() {
		return Reply{Text: noticeAmountPositive, Alert: true}
	}
	b.sessions.SetPending(ev.UserID, amount)
	b.logger.DebugContext(ctx, "Pending amount recorded",
		log.FieldUserID, ev.UserID,
		log.FieldAmount, amount.String())
	return Reply{Text: promptCategory, Menu: CategoryMenu()}
}

func (b *Bot) handleCallback(ctx context.Context, ev Event, today core.Day) Reply {
	if category, ok := categoryFromCallback(ev.Callback); ok {
		return b.postExpense(ctx, ev, category, today)
	}

	switch ev.Callback {
	case CallbackAddBudget:
		b.sessions.BeginAdjustment(ev.UserID)
		return Reply{Text: promptAdjustment}
	case CallbackStatsDay:
		r, err := b.reports.DayReport(ctx, ev.UserID, today)
		if err != nil {
			return b.fail(ctx, ev, log.OpReport, err)
		}
		return Reply{Text: b.format.dayReport(r), Menu: MainMenu()}
	case CallbackStatsWeek:
		w, err := b.reports.WeeklyBreakdown(ctx, ev.UserID, today)
		if err != nil {
			return b.fail(ctx, ev, log.OpReport, err)
		}
		return Reply{Text: b.format.weekly(w), Menu: MainMenu()}
	case CallbackStatsMonth:
		t, err := b.reports.PeriodTotals(ctx, ev.UserID, core.PeriodMonth, today)
		if err != nil {
			return b.fail(ctx, ev, log.OpReport, err)
		}
		return Reply{Text: b.format.periodTotals(t), Menu: MainMenu()}
	}

	b.logger.WarnContext(ctx, "Unknown callback",
		log.FieldUserID, ev.UserID,
		"callback", ev.Callback)
	return Reply{Text: helpText, Menu: MainMenu()}
}

func (b *Bot) postExpense(ctx context.Context, ev Event, category string, today core.Day) Reply {
	amount, err := b.sessions.TakePending(ev.UserID)
	if err != nil {
		return b.fail(ctx, ev, log.OpPostExpense, err)
	}

	balance, err := b.ledger.PostExpense(ctx, ev.UserID, amount, category, today)
	if err != nil {
		// nothing was committed, keep the amount so the user can retry
		b.sessions.SetPending(ev.UserID, amount)
		return b.fail(ctx, ev, log.OpPostExpense, err)
	}
	return Reply{Text: b.format.expensePosted(amount, category, balance), Menu: MainMenu()}
}

// fail logs err and maps it to a user notice.
func (b *Bot) fail(ctx context.Context, ev Event, op string, err error) Reply {
	if errors.Is(err, core.ErrNoPendingAmount) {
		b.logger.InfoContext(ctx, "Category chosen without pending amount",
			log.FieldUserID, ev.UserID,
			log.FieldOperation, op)
		return Reply{Text: noticeNoPending, Alert: true}
	}

	b.logger.ErrorContext(ctx, "Chat operation failed",
		log.FieldUserID, ev.UserID,
		log.FieldOperation, op,
		log.FieldErrorType, log.ErrorType(err),
		log.FieldError, err)
	return Reply{Text: noticeGeneric, Menu: MainMenu()}
}
