package normalize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Upper converts s to uppercase with Turkish casing rules (i → İ, ı → I).
// A fresh caser is built per call; cases.Caser carries transform state and
// is not safe for concurrent reuse.
func Upper(s string) string {
	return cases.Upper(language.Turkish).String(s)
}

// Lower converts s to lowercase with Turkish casing rules (I → ı, İ → i).
func Lower(s string) string {
	return cases.Lower(language.Turkish).String(s)
}
