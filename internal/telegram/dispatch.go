package telegram

import (
	"context"
	"sync"

	"prihod/internal/conversation"
)

// dispatcher hands messages to the handler strictly in arrival order per
// chat while keeping distinct chats parallel. A message for a busy chat
// queues behind the one being processed instead of racing it for the
// session lock.
type dispatcher struct {
	handle func(context.Context, conversation.Inbound)

	mu      sync.Mutex
	pending map[int64][]conversation.Inbound
	active  map[int64]bool
}

func newDispatcher(handle func(context.Context, conversation.Inbound)) *dispatcher {
	return &dispatcher{
		handle:  handle,
		pending: make(map[int64][]conversation.Inbound),
		active:  make(map[int64]bool),
	}
}

// enqueue appends the message to its chat's queue and starts a drain
// goroutine unless one is already running for that chat.
func (d *dispatcher) enqueue(ctx context.Context, in conversation.Inbound) {
	d.mu.Lock()
	d.pending[in.ChatID] = append(d.pending[in.ChatID], in)
	if d.active[in.ChatID] {
		d.mu.Unlock()
		return
	}
	d.active[in.ChatID] = true
	d.mu.Unlock()

	go d.drain(ctx, in.ChatID)
}

func (d *dispatcher) drain(ctx context.Context, chat int64) {
	for {
		d.mu.Lock()
		queue := d.pending[chat]
		if len(queue) == 0 || ctx.Err() != nil {
			delete(d.pending, chat)
			delete(d.active, chat)
			d.mu.Unlock()
			return
		}
		in := queue[0]
		d.pending[chat] = queue[1:]
		d.mu.Unlock()

		d.handle(ctx, in)
	}
}
