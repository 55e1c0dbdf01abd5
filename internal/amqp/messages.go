package amqp

import (
	"encoding/json"
	"time"

	"prihod/internal/core"
)

// ReportRecordedMessage carries one completed report. The ledger only
// accumulates totals, so this event stream is what preserves the
// per-entry history.
type ReportRecordedMessage struct {
	Reporter       string    `json:"reporter"`
	IncomeType     string    `json:"income_type"`
	Amount         string    `json:"amount"`
	Category       string    `json:"category"`
	CategoryAmount string    `json:"category_amount,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewReportRecordedMessage(r core.Report) *ReportRecordedMessage {
	return &ReportRecordedMessage{
		Reporter:       r.Reporter,
		IncomeType:     string(r.Type),
		Amount:         r.Amount,
		Category:       string(r.Category),
		CategoryAmount: r.CategoryAmount,
		Timestamp:      time.Now(),
	}
}

// Report converts the message back to the domain type.
func (m *ReportRecordedMessage) Report() core.Report {
	return core.Report{
		Reporter:       m.Reporter,
		Type:           core.IncomeType(m.IncomeType),
		Amount:         m.Amount,
		Category:       core.Category(m.Category),
		CategoryAmount: m.CategoryAmount,
	}
}

func (m *ReportRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportRecordedMessageFromJSON(data []byte) (*ReportRecordedMessage, error) {
	var msg ReportRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
