package conversation

import (
	"context"
	"strings"
	"testing"

	"prihod/internal/core"
	"prihod/internal/ledger"
	"prihod/internal/ledger/memory"
	"prihod/internal/session"
)

type sent struct {
	chat    int64
	text    string
	replies []string
}

type fakeSender struct {
	msgs []sent
}

func (f *fakeSender) Send(_ context.Context, chat int64, text string, replies []string) error {
	f.msgs = append(f.msgs, sent{chat: chat, text: text, replies: replies})
	return nil
}

func (f *fakeSender) last(t *testing.T) sent {
	t.Helper()
	if len(f.msgs) == 0 {
		t.Fatalf("no message sent")
	}
	return f.msgs[len(f.msgs)-1]
}

type accCall struct {
	identity string
	col      core.Column
	delta    string
}

// recorder wraps an Accumulator, recording calls and optionally failing.
type recorder struct {
	inner Accumulator
	calls []accCall
	fail  bool
}

func (r *recorder) Accumulate(ctx context.Context, identity string, col core.Column, delta string) error {
	r.calls = append(r.calls, accCall{identity: identity, col: col, delta: delta})
	if r.fail {
		return ledger.ErrUnavailable
	}
	return r.inner.Accumulate(ctx, identity, col, delta)
}

type fakeEvents struct {
	reports []core.Report
}

func (f *fakeEvents) PublishReport(_ context.Context, r core.Report) error {
	f.reports = append(f.reports, r)
	return nil
}

func newTestMachine(fail bool) (*Machine, *session.Store, *fakeSender, *recorder, *memory.Store, *fakeEvents) {
	store := memory.New()
	rec := &recorder{inner: ledger.NewUpdater(store), fail: fail}
	sender := &fakeSender{}
	sessions := session.NewStore()
	events := &fakeEvents{}
	return NewMachine(sessions, rec, sender, events), sessions, sender, rec, store, events
}

func send(m *Machine, text string) {
	m.Handle(context.Background(), Inbound{ChatID: 42, DisplayName: "Anna B", Text: text})
}

func TestHappyPathFilm(t *testing.T) {
	m, sessions, sender, rec, store, events := newTestMachine(false)

	send(m, "Own")
	if got := sender.last(t); got.text != promptAmount || got.replies != nil {
		t.Fatalf("after type: %+v", got)
	}

	send(m, "750")
	if got := sender.last(t); got.text != promptCategory {
		t.Fatalf("after amount: %+v", got)
	}

	send(m, "Film")
	got := sender.last(t)
	if got.text != promptFilmAmount {
		t.Fatalf("after category: %+v", got)
	}
	if len(got.replies) != 3 || got.replies[0] != "500" || got.replies[2] != "1500" {
		t.Fatalf("film amount options: %v", got.replies)
	}

	send(m, "1000")
	got = sender.last(t)
	if !strings.Contains(got.text, "Own 750") || !strings.Contains(got.text, "Film 1000") {
		t.Fatalf("confirmation text: %q", got.text)
	}
	if len(got.replies) != 1 || got.replies[0] != RestartButton {
		t.Fatalf("confirmation replies: %v", got.replies)
	}

	want := []accCall{
		{identity: "Anna B", col: core.ColumnOwn, delta: "750"},
		{identity: "Anna B", col: core.ColumnFilm, delta: "1000"},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("accumulate calls: %+v", rec.calls)
	}
	for i, w := range want {
		if rec.calls[i] != w {
			t.Fatalf("call %d = %+v, want %+v", i, rec.calls[i], w)
		}
	}

	rows := store.Rows()
	if len(rows) != 1 || rows[0][1] != "750" || rows[0][3] != "1000" {
		t.Fatalf("ledger rows: %+v", rows)
	}
	if sessions.Len() != 0 {
		t.Fatalf("session not cleared")
	}
	if len(events.reports) != 1 || events.reports[0].CategoryAmount != "1000" {
		t.Fatalf("events: %+v", events.reports)
	}
}

func TestSelfCareShortcut(t *testing.T) {
	m, sessions, sender, rec, store, _ := newTestMachine(false)

	send(m, "Studio")
	send(m, "1200")
	send(m, "Self-care")

	want := []accCall{
		{identity: "Anna B", col: core.ColumnStudio, delta: "1200"},
		{identity: "Anna B", col: core.ColumnFilm, delta: "0"},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("accumulate calls: %+v", rec.calls)
	}
	for i, w := range want {
		if rec.calls[i] != w {
			t.Fatalf("call %d = %+v, want %+v", i, rec.calls[i], w)
		}
	}

	got := sender.last(t)
	if !strings.Contains(got.text, "Studio 1200") || !strings.Contains(got.text, "Self-care") {
		t.Fatalf("confirmation text: %q", got.text)
	}

	rows := store.Rows()
	if rows[0][2] != "1200" || rows[0][3] != "0" {
		t.Fatalf("ledger rows: %+v", rows)
	}
	if sessions.Len() != 0 {
		t.Fatalf("session not cleared")
	}
}

func TestInvalidInputSelfLoops(t *testing.T) {
	m, _, sender, rec, _, _ := newTestMachine(false)

	steps := []struct {
		bad     string
		errText string
		good    string
	}{
		{"Salary", errWrongType, "Own"},
		{"12.50", errWrongAmount, "750"},
		{"Other", errWrongCategory, "Kit"},
		{"1500", errWrongCatAmount, "1000"}, // 1500 is a film amount, not a kit amount
	}
	for _, st := range steps {
		send(m, st.bad)
		if got := sender.last(t); got.text != st.errText {
			t.Fatalf("after %q: got %q, want %q", st.bad, got.text, st.errText)
		}
		if len(rec.calls) != 0 {
			t.Fatalf("ledger touched on invalid input %q", st.bad)
		}
		send(m, st.good)
	}

	// The whole walk ends in a completed report.
	got := sender.last(t)
	if !strings.Contains(got.text, "Own 750") || !strings.Contains(got.text, "Kit 1000") {
		t.Fatalf("confirmation text: %q", got.text)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("accumulate calls: %+v", rec.calls)
	}
}

func TestRestartDiscardsPartialEntry(t *testing.T) {
	m, _, sender, rec, _, _ := newTestMachine(false)

	send(m, "Own")
	send(m, "750")
	send(m, RestartButton)
	if got := sender.last(t); got.text != promptType {
		t.Fatalf("after restart: %q", got.text)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("restart issued ledger calls: %+v", rec.calls)
	}

	// The discarded amount must be gone: a fresh walk is required.
	send(m, "Studio")
	if got := sender.last(t); got.text != promptAmount {
		t.Fatalf("after type post-restart: %q", got.text)
	}
}

func TestStartCommandWithNoSession(t *testing.T) {
	m, _, sender, _, _, _ := newTestMachine(false)

	send(m, StartCommand)
	got := sender.last(t)
	if got.text != promptType {
		t.Fatalf("start prompt: %q", got.text)
	}
	if len(got.replies) != 2 || got.replies[0] != "Own" || got.replies[1] != "Studio" {
		t.Fatalf("type replies: %v", got.replies)
	}
}

func TestFirstMessageCreatesSessionAndValidates(t *testing.T) {
	m, sessions, sender, _, _, _ := newTestMachine(false)

	send(m, "hello")
	if got := sender.last(t); got.text != errWrongType {
		t.Fatalf("first reply: %q", got.text)
	}
	if sessions.Len() != 1 {
		t.Fatalf("expected one active session")
	}
}

func TestStoreFailureReportsAndClearsSession(t *testing.T) {
	m, sessions, sender, rec, _, events := newTestMachine(true)

	send(m, "Own")
	send(m, "750")
	send(m, "Self-care")

	if got := sender.last(t); got.text != msgSaveFailed {
		t.Fatalf("failure reply: %q", got.text)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("both updates must still be attempted: %+v", rec.calls)
	}
	if sessions.Len() != 0 {
		t.Fatalf("session must be cleared on failure")
	}
	if len(events.reports) != 0 {
		t.Fatalf("no event on failure: %+v", events.reports)
	}

	// The reporter can start over right away.
	send(m, RestartButton)
	if got := sender.last(t); got.text != promptType {
		t.Fatalf("after restart: %q", got.text)
	}
}

func TestRepeatedReportsAccumulate(t *testing.T) {
	m, _, _, _, store, _ := newTestMachine(false)

	send(m, "Own")
	send(m, "500")
	send(m, "Film")
	send(m, "1000")

	send(m, "Own")
	send(m, "300")
	send(m, "Self-care")

	rows := store.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0][1] != "800" {
		t.Fatalf("Own = %q, want 800", rows[0][1])
	}
	if rows[0][3] != "1000" {
		t.Fatalf("Film = %q, want 1000", rows[0][3])
	}
}
