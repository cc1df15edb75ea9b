// Package match evaluates an expanded query against a snapshot: AND across
// token groups, OR within a group's forms, word-boundary rules for short
// forms, and a post-match negative filter for ambiguous tokens.
package match

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/internal/tokenize"
	apperrors "github.com/senirlioglu/Ara/pkg/errors"
)

// shortFormLimit is the maximum form length (in runes) that still requires a
// whole-word occurrence. Longer forms match as plain substrings.
const shortFormLimit = 3

// Result is a de-duplicated set of matched rows. Fuzzy rows are never mixed
// with deterministic ones in the same result.
type Result struct {
	Rows    []inventory.NormalizedRecord
	IsFuzzy bool
}

// Engine holds the negative-filter table.
type Engine struct {
	exclusions map[string][]string
}

// NewEngine builds an Engine with the given exclusion table; nil means
// DefaultExclusions.
func NewEngine(exclusions map[string][]string) *Engine {
	if exclusions == nil {
		exclusions = DefaultExclusions()
	}
	return &Engine{exclusions: exclusions}
}

// Match evaluates the token groups against the snapshot. A stale snapshot or
// a query with no usable tokens yields an unavailable error, never an empty
// result: callers must be able to tell "found nothing" from "could not
// search".
func (e *Engine) Match(snap *inventory.Snapshot, groups []tokenize.TokenGroup) (*Result, error) {
	if snap == nil {
		return nil, apperrors.New(apperrors.ErrSearchUnavailable, http.StatusServiceUnavailable,
			"no snapshot loaded")
	}
	if len(groups) == 0 {
		return nil, apperrors.New(apperrors.ErrSearchUnavailable, http.StatusServiceUnavailable,
			"query produced no tokens")
	}

	selected := make([]bool, len(snap.Records))
	for i := range selected {
		selected[i] = true
	}

	for _, group := range groups {
		for i := range snap.Records {
			if !selected[i] {
				continue
			}
			selected[i] = recordMatchesGroup(&snap.Records[i], group)
		}
	}

	rows := make([]inventory.NormalizedRecord, 0)
	for i, ok := range selected {
		if ok {
			rows = append(rows, snap.Records[i])
		}
	}

	rows = e.applyExclusions(rows, groups)
	return &Result{Rows: Dedup(rows)}, nil
}

// Filter applies the negative filter and de-duplication to rows that were
// matched outside the engine (the server-side evaluation path).
func (e *Engine) Filter(rows []inventory.NormalizedRecord, groups []tokenize.TokenGroup) []inventory.NormalizedRecord {
	return Dedup(e.applyExclusions(rows, groups))
}

// applyExclusions removes records whose product name contains one of the
// exclusion words declared for an ambiguous query token. "tv" substring
// matches covers, brackets, and remotes; the exclusion list prunes those.
func (e *Engine) applyExclusions(rows []inventory.NormalizedRecord, groups []tokenize.TokenGroup) []inventory.NormalizedRecord {
	var words []string
	for _, group := range groups {
		for _, form := range group.Forms {
			if excl, ok := e.exclusions[form.ASCII]; ok {
				words = append(words, excl...)
			}
		}
	}
	if len(words) == 0 {
		return rows
	}

	kept := rows[:0]
	for _, row := range rows {
		excluded := false
		for _, w := range words {
			if strings.Contains(row.NameASCII, w) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, row)
		}
	}
	return kept
}

// Dedup drops duplicate (store, product) rows, keeping the first occurrence
// so a backing-store relevance order survives.
func Dedup(rows []inventory.NormalizedRecord) []inventory.NormalizedRecord {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, row := range rows {
		key := row.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

// recordMatchesGroup reports whether any form in the group matches the
// record's product code or name, checked against both derived variants.
func recordMatchesGroup(rec *inventory.NormalizedRecord, group tokenize.TokenGroup) bool {
	for _, form := range group.Forms {
		if form.Upper != "" &&
			(contains(rec.CodeUpper, form.Upper) || contains(rec.NameUpper, form.Upper)) {
			return true
		}
		if form.ASCII != "" &&
			(contains(rec.CodeASCII, form.ASCII) || contains(rec.NameASCII, form.ASCII)) {
			return true
		}
	}
	return false
}

// contains applies the length-dependent matching rule: short forms must
// occur as whole words so "tv" cannot hide inside "atv"; longer forms match
// anywhere.
func contains(haystack, needle string) bool {
	if utf8.RuneCountInString(needle) > shortFormLimit {
		return strings.Contains(haystack, needle)
	}
	return containsWord(haystack, needle)
}

// containsWord reports whether needle occurs in haystack bounded by
// start-of-string or a space on the left, and end-of-string, a space, or a
// digit on the right. The right boundary admits digits so "tv55" style
// listings still match.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for from := 0; ; {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(needle)
		leftOK := start == 0 || haystack[start-1] == ' '
		rightOK := end == len(haystack) || haystack[end] == ' ' || isDigit(haystack[end])
		if leftOK && rightOK {
			return true
		}
		from = start + 1
		if from >= len(haystack) {
			return false
		}
	}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
