package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"prihod/internal/conversation"
)

// Bot binds the conversation machine to Telegram long polling. It is the
// only place that knows about the Telegram wire types.
type Bot struct {
	api  *tgbotapi.BotAPI
	disp *dispatcher
}

// New authorizes against the Telegram API. The conversation machine is
// attached afterwards because it needs the bot as its sender.
func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", api.Self.UserName)
	return &Bot{api: api}, nil
}

// Attach wires the conversation machine that handles inbound messages.
func (b *Bot) Attach(machine *conversation.Machine) {
	b.disp = newDispatcher(machine.Handle)
}

// Run polls for updates until ctx is cancelled. Messages for one chat are
// handled strictly in arrival order; distinct chats proceed in parallel.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			msg := update.Message
			in := conversation.Inbound{
				ChatID:      msg.Chat.ID,
				DisplayName: displayName(msg.From),
				Text:        msg.Text,
			}
			b.disp.enqueue(ctx, in)
		}
	}
}

// Send implements conversation.Sender. Suggested replies become a resized
// reply keyboard; nil replies remove the keyboard so the reporter types
// freely.
func (b *Bot) Send(_ context.Context, chat int64, text string, replies []string) error {
	msg := tgbotapi.NewMessage(chat, text)
	if len(replies) == 0 {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	} else {
		msg.ReplyMarkup = keyboard(replies)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

var _ conversation.Sender = (*Bot)(nil)

func keyboard(replies []string) tgbotapi.ReplyKeyboardMarkup {
	const perRow = 3
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(replies); i += perRow {
		end := i + perRow
		if end > len(replies) {
			end = len(replies)
		}
		var row []tgbotapi.KeyboardButton
		for _, r := range replies[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(r))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// displayName mirrors the ledger row key: the reporter's full name, which
// is stable enough for a small team sharing one sheet.
func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
