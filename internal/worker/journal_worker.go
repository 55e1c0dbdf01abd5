package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"prihod/internal/amqp"
	"prihod/internal/journal"
)

// JournalWorker persists report-recorded events into the journal.
type JournalWorker struct {
	journal *journal.Repository
}

func NewJournalWorker(journal *journal.Repository) *JournalWorker {
	return &JournalWorker{journal: journal}
}

// HandleReportEvent processes one report event from AMQP. Invalid events
// are logged and dropped; returning an error would only requeue them
// forever.
func (w *JournalWorker) HandleReportEvent(ctx context.Context, msg *amqp.ReportRecordedMessage) error {
	r := msg.Report()
	if err := r.Validate(); err != nil {
		slog.WarnContext(ctx, "Dropping invalid report event",
			"reporter", msg.Reporter,
			"error", err)
		return nil
	}

	amount, err := strconv.ParseInt(msg.Amount, 10, 64)
	if err != nil {
		slog.WarnContext(ctx, "Dropping report event with unparsable amount",
			"reporter", msg.Reporter,
			"amount", msg.Amount)
		return nil
	}
	var categoryAmount int64
	if msg.CategoryAmount != "" {
		categoryAmount, err = strconv.ParseInt(msg.CategoryAmount, 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "Dropping report event with unparsable category amount",
				"reporter", msg.Reporter,
				"category_amount", msg.CategoryAmount)
			return nil
		}
	}

	if _, err := w.journal.Insert(ctx, journal.Entry{
		Reporter:       msg.Reporter,
		IncomeType:     msg.IncomeType,
		Amount:         amount,
		Category:       msg.Category,
		CategoryAmount: categoryAmount,
	}); err != nil {
		// Transient storage failure: let the broker redeliver.
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}
