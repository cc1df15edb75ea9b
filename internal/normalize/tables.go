package normalize

// Tables holds the dictionary-driven parts of the pipeline. Keys and values
// are folded lowercase ASCII (the form the pipeline produces by the time the
// tables are consulted); values must be fixed points of the pipeline.
type Tables struct {
	// Misspellings maps a commonly mistyped word to its corrected form.
	// Lookup is per whole word, after folding and lowercasing.
	Misspellings map[string]string
	// Compounds maps inflected compound-word variants to one canonical
	// spelling, applied as substring replacement on the folded text.
	Compounds map[string]string
	// GluedPrefixes lists brand tokens that customers type glued to a
	// model number ("tv55"); a space is inserted before the digit.
	GluedPrefixes []string
}

// DefaultTables returns the production dictionaries. Grown from search-log
// review; extend here, not in the pipeline.
func DefaultTables() Tables {
	return Tables{
		Misspellings: map[string]string{
			"makina":     "makine",
			"telvizyon":  "televizyon",
			"televizon":  "televizyon",
			"buzdolobi":  "buzdolabi",
			"buzdalabi":  "buzdolabi",
			"kolltuk":    "koltuk",
			"supurga":    "supurge",
			"mikradalga": "mikrodalga",
			"bilgisayer": "bilgisayar",
		},
		Compounds: map[string]string{
			"camasir makinasi":   "camasir makinesi",
			"camasir makineleri": "camasir makinesi",
			"camasir makinalari": "camasir makinesi",
			"bulasik makinasi":   "bulasik makinesi",
			"bulasik makineleri": "bulasik makinesi",
			"kahve makinasi":     "kahve makinesi",
			"kahve makineleri":   "kahve makinesi",
		},
		GluedPrefixes: []string{"tv"},
	}
}
