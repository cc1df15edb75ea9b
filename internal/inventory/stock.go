package inventory

// StockLevel is a named severity tier derived from on-hand quantity.
type StockLevel int

const (
	LevelOut StockLevel = iota
	LevelCritical
	LevelLow
	LevelNormal
	LevelHigh
)

// ClassifyStock maps a quantity to its tier: ≤0 Out, 1 Critical, 2–5 Low,
// 6–10 Normal, above 10 High.
func ClassifyStock(quantity int) StockLevel {
	switch {
	case quantity <= 0:
		return LevelOut
	case quantity == 1:
		return LevelCritical
	case quantity <= 5:
		return LevelLow
	case quantity <= 10:
		return LevelNormal
	default:
		return LevelHigh
	}
}

func (l StockLevel) String() string {
	switch l {
	case LevelOut:
		return "Out"
	case LevelCritical:
		return "Critical"
	case LevelLow:
		return "Low"
	case LevelNormal:
		return "Normal"
	case LevelHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// Color returns the display color associated with the tier.
func (l StockLevel) Color() string {
	switch l {
	case LevelCritical:
		return "#ff4444"
	case LevelLow:
		return "#ff9800"
	case LevelNormal:
		return "#4caf50"
	case LevelHigh:
		return "#2196f3"
	default:
		return "#9e9e9e"
	}
}

// MarshalText makes the tier serialise as its name in JSON responses.
func (l StockLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
