package match

// DefaultExclusions maps an ambiguous query token (ASCII-normalized) to the
// product-name words that disqualify a match. Grown from search-log review.
func DefaultExclusions() map[string][]string {
	return map[string][]string{
		"tv": {
			"kilif",
			"kumanda",
			"aski aparati",
			"sehpasi",
			"duvar askisi",
		},
		"televizyon": {
			"kilif",
			"kumanda",
			"aski aparati",
			"sehpasi",
			"duvar askisi",
		},
	}
}
