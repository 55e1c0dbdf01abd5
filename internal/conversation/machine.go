package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"prihod/internal/core"
	"prihod/internal/session"
)

// Restart signals, accepted from any state.
const (
	RestartButton = "New entry"
	StartCommand  = "/start"
)

const (
	promptType        = "Choose the income type:"
	promptAmount      = "Enter the amount:"
	promptCategory    = "Choose the category:"
	promptFilmAmount  = "Choose the film amount:"
	promptKitAmount   = "Choose the kit amount:"
	errWrongType      = "❌ Pick an income type from the buttons."
	errWrongAmount    = "❌ Enter a whole number, digits only."
	errWrongCategory  = "❌ Pick a category from the buttons."
	errWrongCatAmount = "❌ Pick an amount from the buttons."
	msgSaveFailed     = "❌ Could not save your entry, please try again later."
)

var (
	typeReplies     = []string{string(core.Own), string(core.Studio)}
	categoryReplies = []string{string(core.Film), string(core.Kit), string(core.SelfCare)}
	restartReplies  = []string{RestartButton}
)

// Machine drives the per-reporter conversation: a fixed sequence of prompts
// with validation at every step, ending in exactly two ledger accumulations.
type Machine struct {
	sessions *session.Store
	ledger   Accumulator
	sender   Sender
	events   EventPublisher // optional
}

func NewMachine(sessions *session.Store, ledger Accumulator, sender Sender, events EventPublisher) *Machine {
	return &Machine{
		sessions: sessions,
		ledger:   ledger,
		sender:   sender,
		events:   events,
	}
}

// Handle processes one inbound message to completion, including any ledger
// updates it triggers. Per-identity session locking guarantees no two
// messages for the same reporter are handled concurrently. Every path sends
// exactly one reply; failures never propagate to the transport.
func (m *Machine) Handle(ctx context.Context, in Inbound) {
	text := strings.TrimSpace(in.Text)

	// The restart signal wins over normal state validation, from any state
	// including no active session.
	if text == RestartButton || text == StartCommand {
		sess, _, release := m.sessions.Acquire(in.ChatID)
		defer release()
		m.sessions.Reset(sess)
		m.reply(ctx, in.ChatID, promptType, typeReplies)
		return
	}

	sess, _, release := m.sessions.Acquire(in.ChatID)
	defer release()

	switch sess.State {
	case session.AwaitingType:
		t, ok := core.ParseIncomeType(text)
		if !ok {
			m.reply(ctx, in.ChatID, errWrongType, typeReplies)
			return
		}
		sess.Type = t
		sess.State = session.AwaitingAmount
		m.reply(ctx, in.ChatID, promptAmount, nil)

	case session.AwaitingAmount:
		if !core.ValidAmount(text) {
			m.reply(ctx, in.ChatID, errWrongAmount, nil)
			return
		}
		sess.Amount = text
		sess.State = session.AwaitingCategory
		m.reply(ctx, in.ChatID, promptCategory, categoryReplies)

	case session.AwaitingCategory:
		c, ok := core.ParseCategory(text)
		if !ok {
			m.reply(ctx, in.ChatID, errWrongCategory, categoryReplies)
			return
		}
		sess.Category = c
		if c == core.SelfCare {
			// Shortcut terminal path: no category amount to ask for.
			m.complete(ctx, in, core.Report{
				Reporter: in.DisplayName,
				Type:     sess.Type,
				Amount:   sess.Amount,
				Category: core.SelfCare,
			})
			return
		}
		sess.State = session.AwaitingCategoryAmount
		prompt := promptFilmAmount
		if c == core.Kit {
			prompt = promptKitAmount
		}
		m.reply(ctx, in.ChatID, prompt, c.AllowedAmounts())

	case session.AwaitingCategoryAmount:
		if !sess.Category.AcceptsAmount(text) {
			m.reply(ctx, in.ChatID, errWrongCatAmount, sess.Category.AllowedAmounts())
			return
		}
		m.complete(ctx, in, core.Report{
			Reporter:       in.DisplayName,
			Type:           sess.Type,
			Amount:         sess.Amount,
			Category:       sess.Category,
			CategoryAmount: text,
		})
	}
}

// complete issues the two ledger updates for a finished conversation,
// answers the reporter and destroys the session. The two updates are not
// one transaction; if the second fails after the first succeeded the ledger
// is left partially updated and the reporter is told the entry failed.
func (m *Machine) complete(ctx context.Context, in Inbound, r core.Report) {
	defer m.sessions.Remove(in.ChatID)

	catCol, catDelta := r.Category.Column(), r.CategoryAmount
	if r.Category == core.SelfCare {
		// Explicit zero film cost.
		catCol, catDelta = core.ColumnFilm, "0"
	}

	err1 := m.ledger.Accumulate(ctx, r.Reporter, r.Type.Column(), r.Amount)
	err2 := m.ledger.Accumulate(ctx, r.Reporter, catCol, catDelta)
	if err1 != nil || err2 != nil {
		slog.ErrorContext(ctx, "Ledger update failed",
			"reporter", r.Reporter,
			"base_error", err1,
			"category_error", err2)
		m.reply(ctx, in.ChatID, msgSaveFailed, restartReplies)
		return
	}

	if m.events != nil {
		if err := m.events.PublishReport(ctx, r); err != nil {
			// The ledger is already updated; losing the journal event is
			// logged, not surfaced.
			slog.WarnContext(ctx, "Report event not published", "reporter", r.Reporter, "error", err)
		}
	}

	m.reply(ctx, in.ChatID, confirmation(r), restartReplies)
	slog.InfoContext(ctx, "Report recorded",
		"reporter", r.Reporter,
		"type", string(r.Type),
		"amount", r.Amount,
		"category", string(r.Category),
		"category_amount", r.CategoryAmount)
}

func confirmation(r core.Report) string {
	if r.Category == core.SelfCare {
		return fmt.Sprintf("✅ Recorded!\nType: %s %s\nCategory: %s", r.Type, r.Amount, r.Category)
	}
	return fmt.Sprintf("✅ Recorded!\nType: %s %s\nCategory: %s %s", r.Type, r.Amount, r.Category, r.CategoryAmount)
}

func (m *Machine) reply(ctx context.Context, chat int64, text string, replies []string) {
	if err := m.sender.Send(ctx, chat, text, replies); err != nil {
		slog.ErrorContext(ctx, "Reply not delivered", "chat", chat, "error", err)
	}
}
