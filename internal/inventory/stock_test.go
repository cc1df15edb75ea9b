package inventory

import "testing"

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		quantity int
		want     StockLevel
	}{
		{-5, LevelOut},
		{0, LevelOut},
		{1, LevelCritical},
		{2, LevelLow},
		{5, LevelLow},
		{6, LevelNormal},
		{10, LevelNormal},
		{11, LevelHigh},
		{500, LevelHigh},
	}
	for _, tt := range tests {
		if got := ClassifyStock(tt.quantity); got != tt.want {
			t.Errorf("ClassifyStock(%d) = %v, want %v", tt.quantity, got, tt.want)
		}
	}
}

func TestStockLevelString(t *testing.T) {
	tests := []struct {
		level StockLevel
		want  string
	}{
		{LevelOut, "Out"},
		{LevelCritical, "Critical"},
		{LevelLow, "Low"},
		{LevelNormal, "Normal"},
		{LevelHigh, "High"},
		{StockLevel(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestStockLevelColor(t *testing.T) {
	tests := []struct {
		level StockLevel
		want  string
	}{
		{LevelOut, "#9e9e9e"},
		{LevelCritical, "#ff4444"},
		{LevelLow, "#ff9800"},
		{LevelNormal, "#4caf50"},
		{LevelHigh, "#2196f3"},
	}
	for _, tt := range tests {
		if got := tt.level.Color(); got != tt.want {
			t.Errorf("%v.Color() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestRecordKey(t *testing.T) {
	a := Record{StoreCode: "M1", ProductCode: "P1"}
	b := Record{StoreCode: "M1", ProductCode: "P1"}
	c := Record{StoreCode: "M1P", ProductCode: "1"}

	if a.Key() != b.Key() {
		t.Error("identical identities should produce the same key")
	}
	if a.Key() == c.Key() {
		t.Error("distinct identities must not collide")
	}
}
