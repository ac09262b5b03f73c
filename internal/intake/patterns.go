// Package intake turns free-form operator messages into acceptance records.
//
// Recognition is driven by a Registry: one boundary-aware matcher per service,
// evaluated in a fixed priority order, plus an alias table that maps
// free-text service tokens (English, Russian and one-letter forms) to
// canonical services for the "<service> <quantity>" bulk shorthand.
//
// The Registry is immutable after construction and safe for concurrent use.
package intake

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tbourn/scooter-intake/internal/domain"
)

// Matcher recognizes one service's identifier format.
type Matcher struct {
	Service domain.Service
	re      *regexp.Regexp
}

// Span is a recognized substring of a message with its byte offsets.
type Span struct {
	Start, End int
	Text       string
}

// FindAll returns all non-overlapping matches in text that are delimited by
// non-word runes (or the text edges) on both sides.
func (m Matcher) FindAll(text string) []Span {
	locs := findBounded(m.re, text)
	out := make([]Span, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Span{Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]})
	}
	return out
}

// BulkMatch is one "<service> <quantity>" occurrence.
type BulkMatch struct {
	Span
	Token    string
	Quantity string
}

// identifier formats, in evaluation priority. The bare 4-digit Bolt format is
// a subset of longer digit runs and must stay last.
var defaultFormats = []struct {
	service domain.Service
	pattern string
}{
	{domain.ServiceYandex, `\d{8}`},
	{domain.ServiceWhoosh, `(?i)[A-ZА-ЯЁ]{2}\d{4}`},
	{domain.ServiceJet, `\d{3}-?\d{3}`},
	{domain.ServiceBolt, `\d{4}`},
}

var defaultAliases = map[string]domain.Service{
	"yandex": domain.ServiceYandex, "яндекс": domain.ServiceYandex, "y": domain.ServiceYandex,
	"whoosh": domain.ServiceWhoosh, "вуш": domain.ServiceWhoosh, "w": domain.ServiceWhoosh,
	"jet": domain.ServiceJet, "джет": domain.ServiceJet, "j": domain.ServiceJet,
	"bolt": domain.ServiceBolt, "болт": domain.ServiceBolt, "b": domain.ServiceBolt,
}

// Registry holds the per-service recognition rules and the alias table.
type Registry struct {
	matchers []Matcher
	aliases  map[string]domain.Service
	bulk     *regexp.Regexp
}

// DefaultRegistry returns the built-in rules with no extra aliases.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(nil)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry builds a Registry from the built-in rules, merging extra alias
// tokens (token -> service name). Extra tokens are case-insensitive and may
// not contain whitespace.
func NewRegistry(extra map[string]string) (*Registry, error) {
	r := &Registry{aliases: make(map[string]domain.Service, len(defaultAliases)+len(extra))}
	for _, f := range defaultFormats {
		r.matchers = append(r.matchers, Matcher{Service: f.service, re: regexp.MustCompile(f.pattern)})
	}
	for tok, svc := range defaultAliases {
		r.aliases[tok] = svc
	}
	for tok, name := range extra {
		key := foldToken(tok)
		if key == "" || strings.ContainsFunc(key, unicode.IsSpace) {
			return nil, fmt.Errorf("alias %q: must be a single non-empty token", tok)
		}
		svc, ok := serviceByName(name)
		if !ok {
			return nil, fmt.Errorf("alias %q: %w: %q", tok, ErrUnknownService, name)
		}
		r.aliases[key] = svc
	}

	tokens := r.Aliases()
	// Longest first so "yandex" wins over "y" in the alternation.
	sort.SliceStable(tokens, func(i, j int) bool {
		return utf8.RuneCountInString(tokens[i]) > utf8.RuneCountInString(tokens[j])
	})
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	r.bulk = regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)\s+(\d+)`)
	return r, nil
}

// Matchers returns the identifier matchers in priority order.
func (r *Registry) Matchers() []Matcher {
	out := make([]Matcher, len(r.matchers))
	copy(out, r.matchers)
	return out
}

// IdentifierPatternFor returns the matcher for service s.
func (r *Registry) IdentifierPatternFor(s domain.Service) (Matcher, bool) {
	for _, m := range r.matchers {
		if m.Service == s {
			return m, true
		}
	}
	return Matcher{}, false
}

// ResolveAlias maps a free-text service token to its canonical service.
func (r *Registry) ResolveAlias(token string) (domain.Service, bool) {
	s, ok := r.aliases[foldToken(token)]
	return s, ok
}

// Aliases returns every known alias token, sorted.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.aliases))
	for t := range r.aliases {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// BulkMatches finds every "<service> <quantity>" occurrence in text.
func (r *Registry) BulkMatches(text string) []BulkMatch {
	locs := findBounded(r.bulk, text)
	out := make([]BulkMatch, 0, len(locs))
	for _, loc := range locs {
		out = append(out, BulkMatch{
			Span:     Span{Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]},
			Token:    text[loc[2]:loc[3]],
			Quantity: text[loc[4]:loc[5]],
		})
	}
	return out
}

func serviceByName(name string) (domain.Service, bool) {
	for _, s := range domain.Services() {
		if strings.EqualFold(string(s), strings.TrimSpace(name)) {
			return s, true
		}
	}
	return "", false
}

func foldToken(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// findBounded is FindAllStringSubmatchIndex with word-boundary semantics that
// treat Cyrillic letters as word runes. A candidate failing the boundary
// check is retried one rune further so a valid later match is not lost.
func findBounded(re *regexp.Regexp, text string) [][]int {
	var out [][]int
	pos := 0
	for pos < len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		start, end := loc[0], loc[1]
		if end > start && bounded(text, start, end) {
			out = append(out, loc)
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			size = 1
		}
		pos = start + size
	}
	return out
}

func bounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
