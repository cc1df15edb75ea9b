package normalize

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	n := New(DefaultTables())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain ascii", "kedi mama", "kedi mama"},
		{"turkish letters fold", "ÇAMAŞIR MAKİNESİ", "camasir makinesi"},
		{"dotless i folds", "kılıf", "kilif"},
		{"dotted capital I folds", "İstanbul", "istanbul"},
		{"accents stripped", "café", "cafe"},
		{"compound variant", "çamaşır makinası", "camasir makinesi"},
		{"compound plural", "bulaşık makineleri", "bulasik makinesi"},
		{"smart quotes dropped", "55’’ televizyon", "55 televizyon"},
		{"nbsp collapses", "kedi mama", "kedi mama"},
		{"glued model number", "tv55 inc", "tv 55 inc"},
		{"whitespace runs", "  kedi   mama  ", "kedi mama"},
		{"misspelling fixed", "telvizyon", "televizyon"},
		{"misspelling mid phrase", "samsung telvizyon 55", "samsung televizyon 55"},
		{"unknown word passes", "zzyzx", "zzyzx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(DefaultTables())

	inputs := []string{
		"ÇAMAŞIR MAKİNASI",
		"tv55",
		"telvizyon  55’’",
		"BULAŞIK MAKİNELERİ café",
		"kedi mama",
		"",
	}
	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalizeDictionaryValuesAreFixedPoints(t *testing.T) {
	tables := DefaultTables()
	n := New(tables)

	for _, v := range tables.Misspellings {
		if got := n.Normalize(v); got != v {
			t.Errorf("misspelling value %q is not a fixed point: normalized to %q", v, got)
		}
	}
	for _, v := range tables.Compounds {
		if got := n.Normalize(v); got != v {
			t.Errorf("compound value %q is not a fixed point: normalized to %q", v, got)
		}
	}
}

func TestUpper(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"istanbul", "İSTANBUL"},
		{"kılıf", "KILIF"},
		{"televizyon", "TELEVİZYON"},
	}
	for _, tt := range tests {
		if got := Upper(tt.input); got != tt.want {
			t.Errorf("Upper(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLower(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ISPARTA", "ısparta"},
		{"İSTANBUL", "istanbul"},
	}
	for _, tt := range tests {
		if got := Lower(tt.input); got != tt.want {
			t.Errorf("Lower(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	n := New(DefaultTables())
	query := "SAMSUNG ÇAMAŞIR MAKİNASI 9 KG İNOX"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = n.Normalize(query)
	}
}
