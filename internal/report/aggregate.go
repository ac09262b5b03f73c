// Package report groups acceptance records into summaries for chat replies
// and into format-neutral tables for spreadsheet export.
//
// Everything here is a pure function of its inputs: output order never
// depends on input order.
package report

import (
	"errors"
	"sort"
	"strconv"

	"golang.org/x/text/cases"

	"github.com/tbourn/scooter-intake/internal/domain"
)

// ErrEmptyWindow signals that there is nothing to report for a window.
var ErrEmptyWindow = errors.New("no acceptances in this window")

var fold = cases.Fold()

// DisplayName prefers the full name, then "@username", then "ID:<n>".
func DisplayName(fullName, username string, userID int64) string {
	switch {
	case fullName != "":
		return fullName
	case username != "":
		return "@" + username
	default:
		return "ID:" + strconv.FormatInt(userID, 10)
	}
}

// UserSummary is one user's counts.
type UserSummary struct {
	UserID      int64                 `json:"user_id"`
	DisplayName string                `json:"display_name"`
	Username    string                `json:"username,omitempty"`
	Services    []domain.ServiceCount `json:"services"`
	Total       int                   `json:"total"`
}

// Count returns the number of units for svc.
func (u UserSummary) Count(svc domain.Service) int {
	for _, sc := range u.Services {
		if sc.Service == svc {
			return sc.Count
		}
	}
	return 0
}

type userAcc struct {
	latest domain.Acceptance
	counts map[domain.Service]int
	total  int
}

// newer orders records for picking the name a user is shown under.
func newer(a, b domain.Acceptance) bool {
	if !a.AcceptedAt.Equal(b.AcceptedAt) {
		return a.AcceptedAt.After(b.AcceptedAt)
	}
	return a.ID > b.ID
}

// SummarizeByUser groups records by user id. A user's display name comes
// from their most recent record. Users are ordered by case-folded display
// name, then id; services within a user by name.
func SummarizeByUser(recs []domain.Acceptance) []UserSummary {
	byUser := make(map[int64]*userAcc)
	for _, r := range recs {
		acc, ok := byUser[r.UserID]
		if !ok {
			acc = &userAcc{latest: r, counts: make(map[domain.Service]int)}
			byUser[r.UserID] = acc
		} else if newer(r, acc.latest) {
			acc.latest = r
		}
		acc.counts[r.Service]++
		acc.total++
	}

	out := make([]UserSummary, 0, len(byUser))
	for id, acc := range byUser {
		out = append(out, UserSummary{
			UserID:      id,
			DisplayName: DisplayName(acc.latest.FullName, acc.latest.Username, id),
			Username:    acc.latest.Username,
			Services:    sortedCounts(acc.counts),
			Total:       acc.total,
		})
	}
	sort.Slice(out, func(i, j int) bool { return lessByName(out[i], out[j]) })
	return out
}

func lessByName(a, b UserSummary) bool {
	ka, kb := fold.String(a.DisplayName), fold.String(b.DisplayName)
	if ka != kb {
		return ka < kb
	}
	return a.UserID < b.UserID
}

// SummarizeByService counts records per service, ordered by service name.
func SummarizeByService(recs []domain.Acceptance) []domain.ServiceCount {
	counts := make(map[domain.Service]int)
	for _, r := range recs {
		counts[r.Service]++
	}
	return sortedCounts(counts)
}

func sortedCounts(m map[domain.Service]int) []domain.ServiceCount {
	out := make([]domain.ServiceCount, 0, len(m))
	for s, n := range m {
		out = append(out, domain.ServiceCount{Service: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Total sums the counts.
func Total(counts []domain.ServiceCount) int {
	n := 0
	for _, c := range counts {
		n += c.Count
	}
	return n
}
