// Package tokenize splits a query into whitespace tokens and expands each
// token into its set of equivalent search forms: the literal token, suffix
// stripped stems, and declared synonyms. Every form carries a Turkish-upper
// and an ASCII-normalized variant for matching against the corresponding
// derived record fields.
package tokenize

import (
	"strings"
	"unicode/utf8"

	"github.com/senirlioglu/Ara/internal/normalize"
)

// Form is one matchable variant of a surface form.
type Form struct {
	Upper string
	ASCII string
}

// TokenGroup holds all equivalent forms for one query token. A record
// matches the group when any form matches (OR within the group); the query
// matches when every group matches (AND across groups).
type TokenGroup struct {
	Token string
	Forms []Form
}

// Options controls optional expansion stages.
type Options struct {
	// Stemming toggles the suffix-stripping stage. It can mis-strip short
	// unrelated words ("terlik" loses "lik"), so it is guarded by
	// MinRootLen and can be disabled outright.
	Stemming   bool
	MinRootLen int
}

// Expander owns the static expansion dictionaries.
type Expander struct {
	norm   *normalize.Normalizer
	tables Tables
	opts   Options
}

// NewExpander builds an Expander. MinRootLen below 3 is raised to 3.
func NewExpander(n *normalize.Normalizer, tables Tables, opts Options) *Expander {
	if opts.MinRootLen < 3 {
		opts.MinRootLen = 3
	}
	return &Expander{norm: n, tables: tables, opts: opts}
}

// Expand produces one TokenGroup per whitespace token, in token order.
// The whole query is normalized first so that multi-word canonicalizations
// (compound-variant rewrites) take effect before tokenization; the raw
// tokens stay available for the Turkish-upper forms. The dictionaries
// preserve word counts, so raw and normalized tokens line up; if a future
// entry breaks that, expansion degrades to per-token normalization.
func (e *Expander) Expand(query string) []TokenGroup {
	raw := strings.Fields(query)
	ascii := strings.Fields(e.norm.Normalize(query))

	groups := make([]TokenGroup, 0, len(raw))
	if len(raw) == len(ascii) {
		for i, token := range raw {
			if group := e.expandToken(token, ascii[i]); len(group.Forms) > 0 {
				groups = append(groups, group)
			}
		}
		return groups
	}
	for _, token := range raw {
		// A token that normalizes away entirely (quote artifacts and the
		// like) carries no matchable content and produces no group; the
		// engine treats a query with zero groups as unavailable.
		if group := e.expandToken(token, e.norm.Normalize(token)); len(group.Forms) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// expandToken builds the form set for one token. The ascii argument is the
// token's normalized form (already folded, corrected, canonicalized); stem
// and synonym surfaces are derived from it and are fixed points of the
// normalization pipeline. A token with an empty normalized form yields a
// group with no forms.
func (e *Expander) expandToken(token, ascii string) TokenGroup {
	if ascii == "" {
		return TokenGroup{Token: token}
	}
	forms := []Form{{Upper: normalize.Upper(token), ASCII: ascii}}
	formSeen := map[Form]struct{}{forms[0]: {}}
	add := func(s string) {
		if s == "" {
			return
		}
		f := Form{Upper: normalize.Upper(s), ASCII: s}
		if _, dup := formSeen[f]; dup {
			return
		}
		formSeen[f] = struct{}{}
		forms = append(forms, f)
	}

	if e.opts.Stemming {
		for _, root := range e.stems(ascii) {
			add(root)
		}
	}
	for _, syn := range e.tables.Synonyms[ascii] {
		add(syn)
	}

	return TokenGroup{Token: token, Forms: forms}
}

// stems tests the token against the suffix list, longest first, and returns
// every accepted candidate root. A root is accepted only if it keeps at
// least MinRootLen runes and the token is strictly longer than the suffix.
func (e *Expander) stems(token string) []string {
	var roots []string
	tokenLen := utf8.RuneCountInString(token)
	for _, suffix := range e.tables.Suffixes {
		if !strings.HasSuffix(token, suffix) {
			continue
		}
		if tokenLen <= utf8.RuneCountInString(suffix) {
			continue
		}
		root := strings.TrimSuffix(token, suffix)
		if utf8.RuneCountInString(root) < e.opts.MinRootLen {
			continue
		}
		roots = append(roots, root)
	}
	return roots
}
