package report

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tbourn/scooter-intake/internal/domain"
	"github.com/tbourn/scooter-intake/internal/shift"
)

// DefaultChunkLimit is the largest chat message, in characters.
const DefaultChunkLimit = 4000

// Chunk joins lines with "\n" into messages of at most limit characters.
// A line is never split: the buffer is flushed before a line that would
// overflow it. A single line longer than limit is emitted on its own.
func Chunk(lines []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	var (
		out  []string
		buf  []string
		size int
	)
	for _, l := range lines {
		n := utf8.RuneCountInString(l)
		if len(buf) > 0 && size+1+n > limit {
			out = append(out, strings.Join(buf, "\n"))
			buf, size = nil, 0
		}
		if len(buf) > 0 {
			size++
		}
		buf = append(buf, l)
		size += n
	}
	if len(buf) > 0 {
		out = append(out, strings.Join(buf, "\n"))
	}
	return out
}

// Mention renders an HTML link to a Telegram user.
func Mention(userID int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}

// AcceptedReply is the confirmation sent after a message was recorded.
func AcceptedReply(userID int64, name string, counts []domain.ServiceCount) string {
	lines := []string{fmt.Sprintf("%s, accepted %d:", Mention(userID, name), Total(counts))}
	for _, sc := range counts {
		if sc.Count > 0 {
			lines = append(lines, fmt.Sprintf("  - <b>%s</b>: %d", sc.Service, sc.Count))
		}
	}
	return strings.Join(lines, "\n")
}

// EmptyWindowText is the reply for a window with no records.
func EmptyWindowText(w shift.Window) string {
	return fmt.Sprintf("Nothing accepted during the %s (%s) yet.", w.Label(), w.Span())
}

// ShiftStatsLines renders per-user and per-service counts for one window.
func ShiftStatsLines(w shift.Window, recs []domain.Acceptance) ([]string, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyWindow
	}
	lines := []string{fmt.Sprintf("<b>Stats for the %s (%s):</b>", w.Label(), w.Span())}
	for _, u := range SummarizeByUser(recs) {
		lines = append(lines, "", fmt.Sprintf("<b>%s</b> - total: %d", html.EscapeString(u.DisplayName), u.Total))
		for _, sc := range u.Services {
			lines = append(lines, fmt.Sprintf("  - %s: %d", sc.Service, sc.Count))
		}
	}
	byService := SummarizeByService(recs)
	lines = append(lines, "", "<b>By service:</b>")
	for _, sc := range byService {
		lines = append(lines, fmt.Sprintf("<b>%s</b>: %d", sc.Service, sc.Count))
	}
	lines = append(lines, "", fmt.Sprintf("<b>Grand total: %d</b>", Total(byService)))
	return lines, nil
}

// DayReport holds one day's per-shift counts.
type DayReport struct {
	Date    time.Time             `json:"date"`
	Morning []domain.ServiceCount `json:"morning"`
	Evening []domain.ServiceCount `json:"evening"`
	Total   int                   `json:"total"`
}

// PeriodReport aggregates a multi-day range shift by shift.
type PeriodReport struct {
	Days     []DayReport           `json:"days"`
	Services []domain.ServiceCount `json:"services"`
	Total    int                   `json:"total"`
}

// BuildPeriod buckets records into each day's morning and evening window.
// Records outside every window (04:00-07:00) are not counted.
func BuildPeriod(days []shift.Day, recs []domain.Acceptance) (PeriodReport, error) {
	var (
		rep     PeriodReport
		counted []domain.Acceptance
	)
	for _, d := range days {
		var morning, evening []domain.Acceptance
		for _, r := range recs {
			switch {
			case d.Morning.Contains(r.AcceptedAt):
				morning = append(morning, r)
			case d.Evening.Contains(r.AcceptedAt):
				evening = append(evening, r)
			}
		}
		counted = append(counted, morning...)
		counted = append(counted, evening...)
		rep.Days = append(rep.Days, DayReport{
			Date:    d.Date,
			Morning: SummarizeByService(morning),
			Evening: SummarizeByService(evening),
			Total:   len(morning) + len(evening),
		})
	}
	if len(counted) == 0 {
		return PeriodReport{}, ErrEmptyWindow
	}
	rep.Services = SummarizeByService(counted)
	rep.Total = len(counted)
	return rep, nil
}

// Lines renders the period report for chat delivery.
func (p PeriodReport) Lines() []string {
	var lines []string
	for _, d := range p.Days {
		lines = append(lines, fmt.Sprintf("<b>%s</b>", d.Date.Format("02.01")), "Morning shift (07:00-15:00):")
		for _, sc := range d.Morning {
			lines = append(lines, fmt.Sprintf("%s: %d", sc.Service, sc.Count))
		}
		lines = append(lines, "Evening shift (15:00-04:00):")
		for _, sc := range d.Evening {
			lines = append(lines, fmt.Sprintf("%s: %d", sc.Service, sc.Count))
		}
		lines = append(lines, fmt.Sprintf("<b>Day total: %d</b>", d.Total), "")
	}
	lines = append(lines, "<b>By service for the period:</b>")
	for _, sc := range p.Services {
		lines = append(lines, fmt.Sprintf("%s: %d", sc.Service, sc.Count))
	}
	lines = append(lines, "", fmt.Sprintf("<b>Grand total: %d</b>", p.Total))
	return lines
}

// FindLines renders the history of one identifier, newest first.
func FindLines(identifier string, recs []domain.Acceptance, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	id := html.EscapeString(identifier)
	if len(recs) == 0 {
		return []string{fmt.Sprintf("No records for <code>%s</code>.", id)}
	}
	sorted := SortRecords(recs)
	lines := []string{fmt.Sprintf("<b>History of <code>%s</code>:</b>", id)}
	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i]
		who := DisplayName("", r.Username, r.UserID)
		if r.Username == "" && r.FullName != "" {
			who = r.FullName
		}
		lines = append(lines, fmt.Sprintf("• %s - %s (%s) - chat: %d",
			r.Service, html.EscapeString(who), r.AcceptedAt.In(loc).Format("02.01 15:04"), r.ChatID))
	}
	return lines
}
