package conversation

import (
	"context"

	"prihod/internal/core"
)

// Inbound is one reporter message delivered by the transport.
type Inbound struct {
	// ChatID is the transport's opaque, stable reporter identity.
	ChatID int64
	// DisplayName keys the reporter's ledger row.
	DisplayName string
	Text        string
}

// Sender delivers a prompt back to the reporter. replies, when non-nil, is
// an ordered set of suggested answers the transport may render as buttons;
// nil means free-text input is expected.
type Sender interface {
	Send(ctx context.Context, chat int64, text string, replies []string) error
}

// Accumulator is the ledger update engine as seen by the state machine.
type Accumulator interface {
	Accumulate(ctx context.Context, identity string, col core.Column, delta string) error
}

// EventPublisher receives every completed report, for downstream consumers
// that want the per-entry history the accumulating ledger loses.
type EventPublisher interface {
	PublishReport(ctx context.Context, r core.Report) error
}
