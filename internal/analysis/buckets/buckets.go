// Package buckets provides ordered threshold tables used to classify
// indicator readings into labels and scores.
package buckets

import "math"

// Op selects how a value is compared against a threshold.
type Op int

const (
	// AtLeast matches when value >= threshold.
	AtLeast Op = iota
	// Above matches when value > threshold.
	Above
	// Below matches when value < threshold.
	Below
	// AtMost matches when value <= threshold.
	AtMost
)

func (o Op) match(value, threshold float64) bool {
	switch o {
	case AtLeast:
		return value >= threshold
	case Above:
		return value > threshold
	case Below:
		return value < threshold
	case AtMost:
		return value <= threshold
	default:
		return false
	}
}

func (o Op) String() string {
	switch o {
	case AtLeast:
		return ">="
	case Above:
		return ">"
	case Below:
		return "<"
	case AtMost:
		return "<="
	default:
		return "?"
	}
}

// Rule pairs a comparison with the result returned when it matches.
type Rule[T any] struct {
	Op        Op
	Threshold float64
	Result    T
}

// Ge builds a rule matching value >= threshold.
func Ge[T any](threshold float64, result T) Rule[T] {
	return Rule[T]{Op: AtLeast, Threshold: threshold, Result: result}
}

// Gt builds a rule matching value > threshold.
func Gt[T any](threshold float64, result T) Rule[T] {
	return Rule[T]{Op: Above, Threshold: threshold, Result: result}
}

// Lt builds a rule matching value < threshold.
func Lt[T any](threshold float64, result T) Rule[T] {
	return Rule[T]{Op: Below, Threshold: threshold, Result: result}
}

// Le builds a rule matching value <= threshold.
func Le[T any](threshold float64, result T) Rule[T] {
	return Rule[T]{Op: AtMost, Threshold: threshold, Result: result}
}

// Table is an ordered list of rules evaluated top to bottom. The first
// matching rule wins; Default is returned when none match or the value is NaN.
type Table[T any] struct {
	Name    string
	Rules   []Rule[T]
	Default T
}

// New creates a table. Rules must already be in evaluation order.
func New[T any](name string, def T, rules ...Rule[T]) Table[T] {
	return Table[T]{Name: name, Rules: rules, Default: def}
}

// Lookup returns the result of the first matching rule.
func (t Table[T]) Lookup(value float64) T {
	if math.IsNaN(value) {
		return t.Default
	}
	for _, r := range t.Rules {
		if r.Op.match(value, r.Threshold) {
			return r.Result
		}
	}
	return t.Default
}
