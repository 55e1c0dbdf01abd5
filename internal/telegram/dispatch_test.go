package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"prihod/internal/conversation"
)

func TestDispatchPreservesOrderPerChat(t *testing.T) {
	var mu sync.Mutex
	got := make(map[int64][]string)
	done := make(chan struct{}, 16)

	d := newDispatcher(func(_ context.Context, in conversation.Inbound) {
		// A slow handler widens the window for out-of-order delivery.
		time.Sleep(time.Millisecond)
		mu.Lock()
		got[in.ChatID] = append(got[in.ChatID], in.Text)
		mu.Unlock()
		done <- struct{}{}
	})

	ctx := context.Background()
	// A burst for one chat, as delivered after the bot was briefly offline.
	texts := []string{"Own", "750", "Film", "1000"}
	for _, text := range texts {
		d.enqueue(ctx, conversation.Inbound{ChatID: 42, Text: text})
	}
	for range texts {
		<-done
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got[42]) != len(texts) {
		t.Fatalf("handled %d messages, want %d", len(got[42]), len(texts))
	}
	for i, text := range texts {
		if got[42][i] != text {
			t.Fatalf("message %d = %q, want %q (full order %v)", i, got[42][i], text, got[42])
		}
	}
}

func TestDispatchKeepsChatsParallel(t *testing.T) {
	blocked := make(chan struct{})
	release := make(chan struct{})
	other := make(chan string, 1)

	d := newDispatcher(func(_ context.Context, in conversation.Inbound) {
		if in.ChatID == 1 {
			close(blocked)
			<-release
			return
		}
		other <- in.Text
	})

	ctx := context.Background()
	d.enqueue(ctx, conversation.Inbound{ChatID: 1, Text: "Own"})
	<-blocked
	d.enqueue(ctx, conversation.Inbound{ChatID: 2, Text: "Studio"})

	// Chat 2 must not wait for chat 1's handler.
	select {
	case text := <-other:
		if text != "Studio" {
			t.Fatalf("chat 2 handled %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("chat 2 blocked behind chat 1")
	}
	close(release)
}

func TestDispatchQueuesBehindBusyChat(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var handled []string
	done := make(chan struct{}, 2)

	d := newDispatcher(func(_ context.Context, in conversation.Inbound) {
		if in.Text == "Own" {
			close(started)
			<-release
		}
		mu.Lock()
		handled = append(handled, in.Text)
		mu.Unlock()
		done <- struct{}{}
	})

	ctx := context.Background()
	d.enqueue(ctx, conversation.Inbound{ChatID: 42, Text: "Own"})
	<-started
	// Arrives while the first message is still being processed.
	d.enqueue(ctx, conversation.Inbound{ChatID: 42, Text: "750"})

	mu.Lock()
	if len(handled) != 0 {
		mu.Unlock()
		t.Fatalf("second message handled while first was in flight: %v", handled)
	}
	mu.Unlock()

	close(release)
	<-done
	<-done

	mu.Lock()
	defer mu.Unlock()
	if handled[0] != "Own" || handled[1] != "750" {
		t.Fatalf("order = %v, want [Own 750]", handled)
	}
}
