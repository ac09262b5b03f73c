package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tbourn/scooter-intake/internal/domain"
)

// Sheet names used by every export.
const (
	SheetAllData = "All data"
	SheetTotals  = "Totals"

	// MaxSheetName is the spreadsheet limit on sheet name length, in runes.
	MaxSheetName = 31
)

// TimeLayout is how timestamps are rendered in exports and chat text.
const TimeLayout = "2006-01-02 15:04:05"

// Table is one named sheet of an export.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
	// Emphasis holds indexes into Rows that should be rendered bold.
	Emphasis []int
}

// Export is an ordered set of tables.
type Export struct {
	Tables []Table
}

// Table returns the table called name.
func (e Export) Table(name string) (Table, bool) {
	for _, t := range e.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// SortRecords orders records by time, then id.
func SortRecords(recs []domain.Acceptance) []domain.Acceptance {
	out := make([]domain.Acceptance, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AcceptedAt.Equal(out[j].AcceptedAt) {
			return out[i].AcceptedAt.Before(out[j].AcceptedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// BuildExport produces the full listing, the per-user totals and one sheet
// per user with that user's records and a per-service breakdown.
// Timestamps are rendered in loc.
func BuildExport(recs []domain.Acceptance, loc *time.Location) (Export, error) {
	if len(recs) == 0 {
		return Export{}, ErrEmptyWindow
	}
	if loc == nil {
		loc = time.UTC
	}
	sorted := SortRecords(recs)

	all := Table{
		Name:   SheetAllData,
		Header: []string{"ID", "Scooter number", "Service", "User ID", "Username", "Full name", "Accepted at", "Chat ID"},
	}
	for _, r := range sorted {
		all.Rows = append(all.Rows, []any{
			r.ID, r.Identifier, string(r.Service), r.UserID, r.Username, r.FullName,
			r.AcceptedAt.In(loc).Format(TimeLayout), r.ChatID,
		})
	}

	users := SummarizeByUser(sorted)
	totals := Table{Name: SheetTotals, Header: []string{"User", "Total scooters"}}
	for i, u := range users {
		totals.Rows = append(totals.Rows, []any{u.DisplayName, u.Total})
		totals.Emphasis = append(totals.Emphasis, i)
	}

	ex := Export{Tables: []Table{all, totals}}
	names := newSheetNamer(SheetAllData, SheetTotals)
	for _, u := range users {
		source := u.DisplayName
		if source == DisplayName("", "", u.UserID) {
			source = ""
		}
		ex.Tables = append(ex.Tables, userTable(names.name(source, u.UserID), u, sorted, loc))
	}
	return ex, nil
}

func userTable(name string, u UserSummary, sorted []domain.Acceptance, loc *time.Location) Table {
	t := Table{
		Name:   name,
		Header: []string{"ID", "Scooter number", "Service", "Accepted at", "Chat ID"},
	}
	for _, r := range sorted {
		if r.UserID != u.UserID {
			continue
		}
		t.Rows = append(t.Rows, []any{r.ID, r.Identifier, string(r.Service), r.AcceptedAt.In(loc).Format(TimeLayout), r.ChatID})
	}
	t.Rows = append(t.Rows, []any{})
	t.Emphasis = append(t.Emphasis, len(t.Rows))
	t.Rows = append(t.Rows, []any{"Service", "Count"})
	for _, sc := range u.Services {
		t.Rows = append(t.Rows, []any{string(sc.Service), sc.Count})
	}
	t.Emphasis = append(t.Emphasis, len(t.Rows))
	t.Rows = append(t.Rows, []any{"Total", u.Total})
	return t
}

// BuildMonthly produces a leaderboard: one row per user with a column per
// known service and a total, highest total first, followed by a totals row.
func BuildMonthly(recs []domain.Acceptance, month time.Time) (Export, error) {
	if len(recs) == 0 {
		return Export{}, ErrEmptyWindow
	}
	users := SummarizeByUser(recs)
	sort.SliceStable(users, func(i, j int) bool { return users[i].Total > users[j].Total })

	services := domain.Services()
	header := []string{"User"}
	for _, s := range services {
		header = append(header, string(s))
	}
	header = append(header, "Total")

	t := Table{Name: month.Format("2006-01"), Header: header}
	colTotals := make([]int, len(services))
	grand := 0
	for _, u := range users {
		row := []any{u.DisplayName}
		for i, s := range services {
			n := u.Count(s)
			colTotals[i] += n
			row = append(row, n)
		}
		grand += u.Total
		t.Rows = append(t.Rows, append(row, u.Total))
	}
	last := []any{"Total"}
	for _, n := range colTotals {
		last = append(last, n)
	}
	t.Emphasis = []int{len(t.Rows)}
	t.Rows = append(t.Rows, append(last, grand))
	return Export{Tables: []Table{t}}, nil
}

// sheetNamer hands out unique, valid sheet names.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[fold.String(r)] = true
	}
	return n
}

func (n *sheetNamer) name(display string, userID int64) string {
	base := SanitizeSheetName(display)
	if utf8.RuneCountInString(base) < 2 {
		base = fmt.Sprintf("ID_%d", userID)
	}
	candidate := base
	for i := 2; n.used[fold.String(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(base, MaxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	n.used[fold.String(candidate)] = true
	return candidate
}

// SanitizeSheetName strips characters spreadsheets reject in sheet names,
// trims surrounding apostrophes and spaces and truncates to MaxSheetName.
func SanitizeSheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, "' ")
	return strings.Trim(truncateRunes(s, MaxSheetName), "' ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
