package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/report"
	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/shift"
	"github.com/tbourn/scooter-intake/internal/utils"
)

// Who may run a command.
type audience int

const (
	audienceChat  audience = iota // ChatAllowed
	audienceAdmin                 // Admin
)

type command struct {
	name string
	desc string
	who  audience
	menu bool
	run  func(ctx context.Context, m *tgbotapi.Message, args []string) error
}

const (
	batchUsage   = "Usage: /batch_accept <service> <quantity>\nExample: /batch_accept whoosh 20"
	periodUsage  = "Usage: /service_report <from> <to>\nDates as YYYY-MM-DD, e.g. /service_report 2025-07-01 2025-07-31"
	monthlyUsage = "Usage: /monthly_report <MM> <YYYY>\nExample: /monthly_report 07 2025"
	findUsage    = "Usage: /find_scooter <number>\nExample: /find_scooter AB1234"
	deleteUsage  = "Usage: /delete_scooter <number> <username>\nExamples:\n/delete_scooter 12345678 @whoosh_master\n/delete_scooter AB1234 nobody"
)

func (b *Bot) commands() []command {
	return []command{
		{"start", "Getting started", audienceChat, true, b.cmdStart},
		{"help", "List commands", audienceChat, false, b.cmdHelp},
		{"batch_accept", "Accept a batch: <service> <quantity>", audienceChat, false, b.cmdBatchAccept},
		{"today_stats", "Stats for the current shift", audienceAdmin, true, b.cmdTodayStats},
		{"export_today_excel", "Excel export for the current shift", audienceAdmin, true, b.cmdExportShift},
		{"export_all_excel", "Excel export for all time", audienceAdmin, true, b.cmdExportAll},
		{"service_report", "Service report for a period", audienceAdmin, true, b.cmdServiceReport},
		{"monthly_report", "Monthly leaderboard: <MM> <YYYY>", audienceAdmin, true, b.cmdMonthlyReport},
		{"delete_scooter", "Delete a number by username", audienceAdmin, true, b.cmdDelete},
		{"find_scooter", "History of a scooter number", audienceAdmin, true, b.cmdFind},
	}
}

func (b *Bot) permitted(c command, m *tgbotapi.Message) bool {
	if c.who == audienceAdmin {
		return b.access.Admin(m)
	}
	return b.access.ChatAllowed(m)
}

// command dispatches m and returns the outcome for logging. Commands the
// sender may not run are ignored silently.
func (b *Bot) command(ctx context.Context, m *tgbotapi.Message) string {
	name := strings.ToLower(m.Command())
	for _, c := range b.cmds {
		if c.name != name {
			continue
		}
		if !b.permitted(c, m) {
			return "denied"
		}
		if err := c.run(ctx, m, strings.Fields(m.CommandArguments())); err != nil {
			b.fail(ctx, m, err)
			return "error"
		}
		return "ok"
	}
	return "unknown"
}

func (b *Bot) cmdStart(ctx context.Context, m *tgbotapi.Message, _ []string) error {
	chats := "not set"
	if len(b.cfg.AllowedChatIDs) > 0 {
		ids := make([]string, len(b.cfg.AllowedChatIDs))
		for i, id := range b.cfg.AllowedChatIDs {
			ids[i] = fmt.Sprint(id)
		}
		chats = strings.Join(ids, ", ")
	}
	b.reply(ctx, m, fmt.Sprintf(
		"Hello, %s! I record accepted scooters.\n\n"+
			"Send a scooter number as text, or a photo with the number in the caption.\n"+
			"For a batch use \"service quantity\", e.g. \"whoosh 20\".\n\n"+
			"I work in groups with ID: %s and in private chats with administrators.\n"+
			"Your chat ID: %d",
		displayOf(senderOf(m.From)), chats, m.Chat.ID))
	return nil
}

func (b *Bot) cmdHelp(ctx context.Context, m *tgbotapi.Message, _ []string) error {
	lines := []string{"Commands:"}
	for _, c := range b.cmds {
		if b.permitted(c, m) {
			lines = append(lines, fmt.Sprintf("/%s - %s", c.name, c.desc))
		}
	}
	b.reply(ctx, m, strings.Join(lines, "\n"))
	return nil
}

func (b *Bot) cmdBatchAccept(ctx context.Context, m *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		b.reply(ctx, m, batchUsage)
		return nil
	}
	from := senderOf(m.From)
	res, err := b.intake.AcceptBulk(ctx, args[0], args[1], from, m.Chat.ID, services.SourceTelegram)
	switch {
	case errors.Is(err, intake.ErrUnknownService):
		b.reply(ctx, m, "Unknown service. Available: "+strings.Join(b.intake.Aliases(), ", "))
		return nil
	case errors.Is(err, intake.ErrInvalidQuantity):
		b.reply(ctx, m, fmt.Sprintf("Quantity %s.\n%s", strings.TrimPrefix(err.Error(), intake.ErrInvalidQuantity.Error()+": "), batchUsage))
		return nil
	case err != nil:
		return err
	}
	b.replyHTML(ctx, m, report.AcceptedReply(from.UserID, displayOf(from), res.Summary.Sorted()))
	return nil
}

func (b *Bot) cmdTodayStats(ctx context.Context, m *tgbotapi.Message, _ []string) error {
	chunks, err := b.reports.ShiftStatsText(ctx)
	if err != nil {
		return err
	}
	b.replyHTML(ctx, m, chunks...)
	return nil
}

func (b *Bot) cmdExportShift(ctx context.Context, m *tgbotapi.Message, _ []string) error {
	doc, err := b.reports.ExportShift(ctx)
	if errors.Is(err, report.ErrEmptyWindow) {
		b.reply(ctx, m, "Nothing accepted during the current shift yet.")
		return nil
	}
	if err != nil {
		return err
	}
	return b.replyDocument(ctx, m, doc)
}

func (b *Bot) cmdExportAll(ctx context.Context, m *tgbotapi.Message, _ []string) error {
	doc, err := b.reports.ExportAll(ctx)
	if errors.Is(err, report.ErrEmptyWindow) {
		b.reply(ctx, m, "Nothing accepted yet.")
		return nil
	}
	if err != nil {
		return err
	}
	return b.replyDocument(ctx, m, doc)
}

func (b *Bot) cmdServiceReport(ctx context.Context, m *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		b.reply(ctx, m, periodUsage)
		return nil
	}
	from, err := utils.ParseDay(args[0], b.loc)
	if err != nil {
		b.reply(ctx, m, periodUsage)
		return nil
	}
	to, err := utils.ParseDay(args[1], b.loc)
	if err != nil {
		b.reply(ctx, m, periodUsage)
		return nil
	}
	chunks, err := b.reports.PeriodText(ctx, from, to)
	if errors.Is(err, services.ErrInvalidArgs) {
		b.reply(ctx, m, fmt.Sprintf("The start date must not be after the end date, and a period spans at most %d days.\n%s", shift.MaxPeriodDays, periodUsage))
		return nil
	}
	if err != nil {
		return err
	}
	b.replyHTML(ctx, m, chunks...)
	return nil
}

func (b *Bot) cmdMonthlyReport(ctx context.Context, m *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		b.reply(ctx, m, monthlyUsage)
		return nil
	}
	year, month, err := utils.ParseMonthYear(args[0], args[1])
	if err != nil {
		b.reply(ctx, m, monthlyUsage)
		return nil
	}
	doc, err := b.reports.ExportMonthly(ctx, year, month)
	switch {
	case errors.Is(err, report.ErrEmptyWindow):
		b.reply(ctx, m, fmt.Sprintf("Nothing accepted in %s.", time.Date(year, month, 1, 0, 0, 0, 0, b.loc).Format("January 2006")))
		return nil
	case errors.Is(err, services.ErrInvalidArgs):
		b.reply(ctx, m, monthlyUsage)
		return nil
	case err != nil:
		return err
	}
	return b.replyDocument(ctx, m, doc)
}

func (b *Bot) cmdFind(ctx context.Context, m *tgbotapi.Message, args []string) error {
	if len(args) < 1 {
		b.reply(ctx, m, findUsage)
		return nil
	}
	chunks, err := b.reports.FindText(ctx, args[0])
	if errors.Is(err, services.ErrInvalidArgs) {
		b.reply(ctx, m, findUsage)
		return nil
	}
	if err != nil {
		return err
	}
	b.replyHTML(ctx, m, chunks...)
	return nil
}

func (b *Bot) cmdDelete(ctx context.Context, m *tgbotapi.Message, args []string) error {
	if len(args) < 2 {
		b.reply(ctx, m, deleteUsage)
		return nil
	}
	id := html.EscapeString(intake.NormalizeIdentifier(args[0]))
	user := html.EscapeString(strings.TrimPrefix(args[1], "@"))
	n, err := b.reports.Delete(ctx, args[0], args[1])
	switch {
	case errors.Is(err, services.ErrInvalidArgs):
		b.reply(ctx, m, "Give a valid number and username (e.g. @user or user).\n"+deleteUsage)
		return nil
	case errors.Is(err, services.ErrNoRecords):
		b.replyHTML(ctx, m, fmt.Sprintf("Record <code>%s</code> from @%s not found.", id, user))
		return nil
	case err != nil:
		return err
	}
	b.replyHTML(ctx, m, fmt.Sprintf("Deleted %d records:\n<code>%s</code> from user <code>%s</code>", n, id, user))
	return nil
}
