package intake

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/scooter-intake/internal/domain"
)

var (
	// ErrNothingRecognized is returned when a message yields no records.
	ErrNothingRecognized = errors.New("no scooter identifiers recognized")
	// ErrInvalidQuantity is returned for a bulk quantity outside 1..max.
	ErrInvalidQuantity = errors.New("invalid bulk quantity")
	// ErrUnknownService is returned when an alias does not resolve.
	ErrUnknownService = errors.New("unknown service")
)

// DefaultMaxBulk caps a single "<service> <quantity>" entry.
const DefaultMaxBulk = 200

// Sender identifies who sent a message.
type Sender struct {
	UserID   int64
	Username string
	FullName string
}

// Rejection describes a bulk entry that was recognized but not accepted.
type Rejection struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Summary counts extracted records per service.
type Summary map[domain.Service]int

// Sorted returns the non-zero counts ordered by service name.
func (s Summary) Sorted() []domain.ServiceCount {
	out := make([]domain.ServiceCount, 0, len(s))
	for svc, n := range s {
		if n > 0 {
			out = append(out, domain.ServiceCount{Service: svc, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Total is the sum of all counts.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Result is the outcome of one extraction.
type Result struct {
	Records  []domain.Acceptance
	Summary  Summary
	Rejected []Rejection
}

// Engine extracts acceptance records from message text.
type Engine struct {
	registry *Registry
	maxBulk  int
	loc      *time.Location
	token    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxBulk sets the largest accepted bulk quantity. Non-positive values are ignored.
func WithMaxBulk(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBulk = n
		}
	}
}

// WithLocation sets the zone timestamps are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithTokenSource replaces the generator of the per-entry placeholder token.
func WithTokenSource(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.token = fn
		}
	}
}

// NewEngine returns an Engine backed by reg (DefaultRegistry when nil).
func NewEngine(reg *Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = DefaultRegistry()
	}
	e := &Engine{
		registry: reg,
		maxBulk:  DefaultMaxBulk,
		loc:      time.UTC,
		token:    func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry exposes the rules the engine uses.
func (e *Engine) Registry() *Registry { return e.registry }

// MaxBulk returns the configured bulk cap.
func (e *Engine) MaxBulk() int { return e.maxBulk }

// NormalizeIdentifier is the canonical stored form of a public number:
// dashes removed, letters uppercased.
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
}

// Extract runs the bulk pass and then the per-service identifier pass over
// text. All records share one timestamp derived from now. It returns
// ErrNothingRecognized (with any rejections still populated) when nothing
// could be accepted.
func (e *Engine) Extract(text string, from Sender, chatID int64, now time.Time) (Result, error) {
	res := Result{Summary: Summary{}}
	at := now.In(e.loc).Truncate(time.Second)
	work := []byte(strings.Join(strings.Fields(text), " "))

	claimed := make(map[string]struct{})

	for _, bm := range e.registry.BulkMatches(string(work)) {
		svc, ok := e.registry.ResolveAlias(bm.Token)
		if ok && e.namesIdentifier(svc, bm.Quantity) {
			// "yandex 12345678" labels an identifier, not a quantity.
			continue
		}
		blank(work, bm.Start, bm.End)
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{Text: bm.Text, Reason: ErrUnknownService.Error()})
			continue
		}
		qty, err := e.parseQuantity(bm.Quantity)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Text: bm.Text, Reason: err.Error()})
			continue
		}
		for _, rec := range e.expand(svc, qty, from, chatID, at) {
			claimed[rec.Identifier] = struct{}{}
			res.Records = append(res.Records, rec)
		}
		res.Summary[svc] += qty
	}

	for _, m := range e.registry.matchers {
		for _, sp := range m.FindAll(string(work)) {
			blank(work, sp.Start, sp.End)
			id := NormalizeIdentifier(sp.Text)
			if _, dup := claimed[id]; dup {
				continue
			}
			claimed[id] = struct{}{}
			res.Records = append(res.Records, newRecord(id, m.Service, from, chatID, at))
			res.Summary[m.Service]++
		}
	}

	if len(res.Records) == 0 {
		return res, ErrNothingRecognized
	}
	return res, nil
}

// Bulk expands an explicit service token and quantity, as used by the
// batch command. The token may be any alias or canonical name.
func (e *Engine) Bulk(token, quantity string, from Sender, chatID int64, now time.Time) (Result, error) {
	svc, ok := e.registry.ResolveAlias(token)
	if !ok {
		if svc, ok = serviceByName(token); !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownService, token)
		}
	}
	qty, err := e.parseQuantity(quantity)
	if err != nil {
		return Result{}, err
	}
	at := now.In(e.loc).Truncate(time.Second)
	return Result{
		Records: e.expand(svc, qty, from, chatID, at),
		Summary: Summary{svc: qty},
	}, nil
}

// namesIdentifier reports whether qty is, in full, an identifier of svc.
func (e *Engine) namesIdentifier(svc domain.Service, qty string) bool {
	m, ok := e.registry.IdentifierPatternFor(svc)
	if !ok {
		return false
	}
	spans := m.FindAll(qty)
	return len(spans) == 1 && spans[0].Start == 0 && spans[0].End == len(qty)
}

func (e *Engine) parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > e.maxBulk {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidQuantity, e.maxBulk)
	}
	return n, nil
}

func (e *Engine) expand(svc domain.Service, qty int, from Sender, chatID int64, at time.Time) []domain.Acceptance {
	tok := e.token()
	out := make([]domain.Acceptance, 0, qty)
	for i := 1; i <= qty; i++ {
		id := fmt.Sprintf("%s_BATCH_%s_%d", svc.PlaceholderPrefix(), tok, i)
		out = append(out, newRecord(id, svc, from, chatID, at))
	}
	return out
}

func newRecord(id string, svc domain.Service, from Sender, chatID int64, at time.Time) domain.Acceptance {
	return domain.Acceptance{
		Identifier: id,
		Service:    svc,
		UserID:     from.UserID,
		Username:   from.Username,
		FullName:   from.FullName,
		AcceptedAt: at,
		ChatID:     chatID,
	}
}

func blank(b []byte, start, end int) {
	for i := start; i < end; i++ {
		b[i] = ' '
	}
}
