package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/tbourn/scooter-intake/internal/services"
)

// maxRetryAfter bounds how long a flood-control retry may wait.
const maxRetryAfter = 30 * time.Second

// Sender delivers messages through a global token bucket plus one bucket
// per chat. Telegram throttles both the bot as a whole and each chat.
//
// Safe for concurrent use.
type Sender struct {
	client Client
	global *rate.Limiter

	// PerChat is the sustained rate for a single chat.
	PerChat rate.Limit
	burst   int

	mu    sync.Mutex
	chats map[int64]*rate.Limiter
}

// NewSender builds a Sender allowing rps messages per second overall with
// the given burst, and one message per second per chat.
func NewSender(client Client, rps float64, burst int) *Sender {
	if burst < 1 {
		burst = 1
	}
	return &Sender{
		client:  client,
		global:  rate.NewLimiter(rate.Limit(rps), burst),
		PerChat: rate.Every(time.Second),
		burst:   burst,
		chats:   make(map[int64]*rate.Limiter),
	}
}

func (s *Sender) chat(id int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.chats[id]
	if !ok {
		l = rate.NewLimiter(s.PerChat, s.burst)
		s.chats[id] = l
	}
	return l
}

func (s *Sender) wait(ctx context.Context, chatID int64) error {
	if err := s.chat(chatID).Wait(ctx); err != nil {
		return err
	}
	return s.global.Wait(ctx)
}

// send waits for both buckets and sends c, retrying once when Telegram
// answers with a retry_after hint.
func (s *Sender) send(ctx context.Context, chatID int64, c tgbotapi.Chattable) error {
	if err := s.wait(ctx, chatID); err != nil {
		return err
	}
	_, err := s.client.Send(c)
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) || apiErr.RetryAfter <= 0 {
		return err
	}
	d := time.Duration(apiErr.RetryAfter) * time.Second
	if d > maxRetryAfter {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	_, err = s.client.Send(c)
	return err
}

// Text sends one HTML message, as a reply when replyTo is non-zero.
func (s *Sender) Text(ctx context.Context, chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = replyTo
	return s.send(ctx, chatID, msg)
}

// Plain sends text without markup.
func (s *Sender) Plain(ctx context.Context, chatID int64, replyTo int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	return s.send(ctx, chatID, msg)
}

// Texts sends pre-chunked HTML messages in order and stops at the first
// failure. Only the first chunk is sent as a reply.
func (s *Sender) Texts(ctx context.Context, chatID int64, replyTo int, chunks []string) error {
	for i, c := range chunks {
		if i > 0 {
			replyTo = 0
		}
		if err := s.Text(ctx, chatID, replyTo, c); err != nil {
			return err
		}
	}
	return nil
}

// Document uploads doc as a file with its caption.
func (s *Sender) Document(ctx context.Context, chatID int64, doc services.Document) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Filename, Bytes: doc.Data})
	msg.Caption = doc.Caption
	return s.send(ctx, chatID, msg)
}
