package technicals

import "time"

// Bar is a single trading session. Sequences of bars are expected to be
// chronological with no duplicate dates; callers filter incomplete rows
// before handing them to the engine.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Float is a nullable float64. Indicator cells inside their warm-up window
// are invalid instead of carrying NaN, so callers never have to guess
// whether a zero is a value or missing data.
type Float struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

func valid(v float64) Float { return Float{Value: v, Valid: true} }

// Or returns the cell value, or def when the cell is still warming up.
func (f Float) Or(def float64) float64 {
	if f.Valid {
		return f.Value
	}
	return def
}
