// Package normalize implements the language-aware text normalization
// pipeline used for matching: Turkish character folding, diacritic
// stripping, compound-word canonicalization, artifact cleanup, and
// dictionary-based misspelling correction.
//
// The pipeline is idempotent: Normalize(Normalize(s)) == Normalize(s).
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkishFold maps the six Turkish accented letters (both cases) to their
// closest ASCII letter. Both members of the dotted/dotless i pair fold to
// plain i. Applied before the generic lowercase step so that İ never goes
// through Unicode lowercasing (which would produce i + combining dot).
var turkishFold = map[rune]rune{
	'ı': 'i', 'İ': 'i',
	'ğ': 'g', 'Ğ': 'g',
	'ü': 'u', 'Ü': 'u',
	'ş': 's', 'Ş': 's',
	'ö': 'o', 'Ö': 'o',
	'ç': 'c', 'Ç': 'c',
}

// artifactReplacer strips smart-quote artifacts and turns non-breaking
// spaces into plain spaces.
var artifactReplacer = strings.NewReplacer(
	"‘", "", // ‘
	"’", "", // ’
	"“", "", // “
	"”", "", // ”
	"´", "", // ´
	"`", "",
	" ", " ",
)

// Normalizer applies the full normalization pipeline. The misspelling and
// compound tables are injected at construction so they can grow without
// touching the pipeline itself.
type Normalizer struct {
	tables    Tables
	compounds *strings.Replacer
	glued     *regexp.Regexp
}

// New builds a Normalizer from the given tables. Table values must already
// be in normalized form or idempotence breaks; DefaultTables satisfies this.
func New(tables Tables) *Normalizer {
	n := &Normalizer{tables: tables}

	// Longest key first so overlapping compound variants resolve
	// deterministically.
	keys := make([]string, 0, len(tables.Compounds))
	for k := range tables.Compounds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, tables.Compounds[k])
	}
	n.compounds = strings.NewReplacer(pairs...)

	if len(tables.GluedPrefixes) > 0 {
		n.glued = regexp.MustCompile(`\b(` + strings.Join(tables.GluedPrefixes, "|") + `)(\d)`)
	}
	return n
}

// Normalize runs the pipeline. The step order is load-bearing: each step
// assumes the earlier ones already ran (e.g. compound canonicalization only
// sees folded lowercase ASCII).
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	// 1. Fold the core Turkish letters.
	text = strings.Map(func(r rune) rune {
		if folded, ok := turkishFold[r]; ok {
			return folded
		}
		return r
	}, text)

	// 2. Strip remaining combining marks (accents outside the core set).
	text = stripMarks(text)

	// 3. Lowercase.
	text = strings.ToLower(text)

	// 4. Canonicalize known compound-word variants.
	text = n.compounds.Replace(text)

	// 5. Drop smart-quote and non-breaking-space artifacts.
	text = artifactReplacer.Replace(text)

	// 6. Separate a glued brand prefix from a trailing model number.
	if n.glued != nil {
		text = n.glued.ReplaceAllString(text, "$1 $2")
	}

	// 7. Collapse whitespace runs and trim.
	words := strings.Fields(text)

	// 8. Per-word misspelling correction; unknown words pass through.
	for i, w := range words {
		if fixed, ok := n.tables.Misspellings[w]; ok {
			words[i] = fixed
		}
	}
	return strings.Join(words, " ")
}

// stripMarks decomposes the text and removes combining marks. The
// transformer chain is stateful, so a fresh one is built per call to stay
// safe under concurrent searches.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
