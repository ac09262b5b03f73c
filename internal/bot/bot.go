package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/scooter-intake/internal/config"
	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/report"
	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/sysutil"
)

// DedupScope is the idempotency scope of handled Telegram messages.
const DedupScope = "tg"

// pollTimeout is the long-polling timeout in seconds.
const pollTimeout = 60

const unsupportedText = "Sorry, I can only process text messages and photos with a caption."

// IntakeService records acceptances from chat messages.
type IntakeService interface {
	Accept(ctx context.Context, text string, from intake.Sender, chatID int64, source string) (intake.Result, error)
	AcceptBulk(ctx context.Context, service, quantity string, from intake.Sender, chatID int64, source string) (intake.Result, error)
	MarkProcessed(ctx context.Context, scope, key string) error
	Aliases() []string
}

// ReportService builds the admin reports.
type ReportService interface {
	ShiftStatsText(ctx context.Context) ([]string, error)
	ExportShift(ctx context.Context) (services.Document, error)
	ExportAll(ctx context.Context) (services.Document, error)
	ExportMonthly(ctx context.Context, year int, month time.Month) (services.Document, error)
	PeriodText(ctx context.Context, from, to time.Time) ([]string, error)
	FindText(ctx context.Context, identifier string) ([]string, error)
	Delete(ctx context.Context, identifier, username string) (int64, error)
}

// Bot dispatches Telegram updates.
type Bot struct {
	client  Client
	send    *Sender
	access  Access
	cfg     config.BotConfig
	loc     *time.Location
	intake  IntakeService
	reports ReportService
	workers int
	cmds    []command
}

// New wires a Bot. loc is the civil timezone used to parse command dates.
func New(client Client, cfg config.BotConfig, loc *time.Location, in IntakeService, rep ReportService) *Bot {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	b := &Bot{
		client:  client,
		send:    NewSender(client, cfg.SendRPS, cfg.SendBurst),
		access:  NewAccess(cfg),
		cfg:     cfg,
		loc:     loc,
		intake:  in,
		reports: rep,
		workers: workers,
	}
	b.cmds = b.commands()
	return b
}

// Sender exposes the rate-limited delivery path, shared with the scheduler.
func (b *Bot) Sender() *Sender { return b.send }

// Run installs the command menu and handles updates until ctx is done,
// at most cfg.Workers at a time. In-flight handlers are awaited on return.
func (b *Bot) Run(ctx context.Context) error {
	b.setCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.client.GetUpdatesChan(u)

	g := new(errgroup.Group)
	g.SetLimit(b.workers)
	// handlers already started finish their replies after shutdown begins
	hctx := context.WithoutCancel(ctx)

	log.Info().Int("workers", b.workers).Msg("bot polling started")
	defer log.Info().Msg("bot polling stopped")
	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			return g.Wait()
		case upd, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				b.handle(hctx, upd)
				return nil
			})
		}
	}
}

func (b *Bot) setCommands() {
	menu := make([]tgbotapi.BotCommand, 0, len(b.cmds))
	for _, c := range b.cmds {
		if c.menu {
			menu = append(menu, tgbotapi.BotCommand{Command: c.name, Description: c.desc})
		}
	}
	if _, err := b.client.Request(tgbotapi.NewSetMyCommands(menu...)); err != nil {
		log.Warn().Str("err", sysutil.RedactErr(err)).Msg("set command menu failed")
		return
	}
	log.Info().Int("commands", len(menu)).Msg("command menu updated")
}

// handle processes one update. Failures are logged; nothing propagates.
func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	m := upd.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return
	}
	start := time.Now()
	logger := log.With().
		Int("update_id", upd.UpdateID).
		Int64("chat_id", m.Chat.ID).
		Int64("user_id", m.From.ID).
		Logger()

	key := fmt.Sprintf("%d:%d", m.Chat.ID, m.MessageID)
	if err := b.intake.MarkProcessed(ctx, DedupScope, key); err != nil {
		if errors.Is(err, services.ErrDuplicateUpdate) {
			logger.Debug().Msg("redelivered update ignored")
			return
		}
		logger.Warn().Err(err).Msg("update dedup unavailable")
	}

	var (
		kind    string
		outcome string
	)
	if m.IsCommand() {
		kind = "/" + m.Command()
		outcome = b.command(ctx, m)
	} else {
		kind = "message"
		outcome = b.message(ctx, m)
	}
	logger.Info().
		Str("kind", kind).
		Str("outcome", outcome).
		Dur("took", time.Since(start)).
		Msg("update handled")
}

// message runs intake over free text or a caption.
func (b *Bot) message(ctx context.Context, m *tgbotapi.Message) string {
	if !b.access.ChatAllowed(m) {
		return "denied"
	}
	text := m.Text
	if text == "" {
		text = m.Caption
	}
	if strings.TrimSpace(text) == "" {
		if len(m.Photo) > 0 {
			return "ignored"
		}
		b.reply(ctx, m, unsupportedText)
		return "unsupported"
	}

	from := senderOf(m.From)
	res, err := b.intake.Accept(ctx, text, from, m.Chat.ID, services.SourceTelegram)
	for _, rj := range res.Rejected {
		log.Debug().Int64("chat_id", m.Chat.ID).Str("entry", rj.Text).Str("reason", rj.Reason).Msg("bulk entry skipped")
	}
	switch {
	case errors.Is(err, intake.ErrNothingRecognized):
		return "nothing_recognized"
	case err != nil:
		b.fail(ctx, m, err)
		return "error"
	}
	b.replyHTML(ctx, m, report.AcceptedReply(from.UserID, displayOf(from), res.Summary.Sorted()))
	return "accepted"
}

// senderOf leaves FullName empty when Telegram has no name, so stored
// records fall back to @username or ID:<n> in reports.
func senderOf(u *tgbotapi.User) intake.Sender {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return intake.Sender{
		UserID:   u.ID,
		Username: u.UserName,
		FullName: full,
	}
}

func displayOf(s intake.Sender) string {
	return report.DisplayName(s.FullName, s.Username, s.UserID)
}

func (b *Bot) reply(ctx context.Context, m *tgbotapi.Message, text string) {
	if err := b.send.Plain(ctx, m.Chat.ID, m.MessageID, text); err != nil {
		log.Error().Int64("chat_id", m.Chat.ID).Str("err", sysutil.RedactErr(err)).Msg("reply failed")
	}
}

func (b *Bot) replyHTML(ctx context.Context, m *tgbotapi.Message, chunks ...string) {
	if err := b.send.Texts(ctx, m.Chat.ID, m.MessageID, chunks); err != nil {
		log.Error().Int64("chat_id", m.Chat.ID).Str("err", sysutil.RedactErr(err)).Msg("reply failed")
	}
}

func (b *Bot) replyDocument(ctx context.Context, m *tgbotapi.Message, doc services.Document) error {
	return b.send.Document(ctx, m.Chat.ID, doc)
}

// fail logs err and tells the user something went wrong.
func (b *Bot) fail(ctx context.Context, m *tgbotapi.Message, err error) {
	log.Error().Int64("chat_id", m.Chat.ID).Str("err", sysutil.RedactErr(err)).Msg("update failed")
	b.reply(ctx, m, "Something went wrong, please try again later.")
}
