package tokenize

// Tables holds the static expansion dictionaries. Keys and suffixes are in
// ASCII-normalized form.
type Tables struct {
	// Synonyms maps a normalized token to declared equivalent terms.
	Synonyms map[string][]string
	// Suffixes is the inflectional suffix list, longest first so the
	// greediest strip wins.
	Suffixes []string
}

// DefaultTables returns the production expansion dictionaries.
func DefaultTables() Tables {
	return Tables{
		Synonyms: map[string][]string{
			"tv":         {"televizyon"},
			"televizyon": {"tv"},
			"pc":         {"bilgisayar"},
			"bilgisayar": {"pc"},
			"makine":     {"makinesi"},
		},
		Suffixes: []string{
			"lerinden", "larindan",
			"lerine", "larina",
			"lerini", "larini",
			"lerin", "larin",
			"leri", "lari",
			"ligi", "lugu",
			"ler", "lar",
			"lik", "luk",
			"si", "su",
		},
	}
}
