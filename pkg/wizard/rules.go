package wizard

import (
	"regexp"
	"time"
	"unicode/utf8"
)

// Rule kinds reported by the built-in constructors.
const (
	RuleKindLength     = "length"
	RuleKindMaxLength  = "maxLength"
	RuleKindPattern    = "pattern"
	RuleKindRange      = "range"
	RuleKindYearWindow = "yearWindow"
	RuleKindAge        = "age"
)

// Predicate reports whether a non-empty value satisfies a rule. now is the
// wizard clock reading for the current validation pass.
type Predicate func(value Value, now time.Time) bool

// Rule pairs a predicate with the message emitted when it fails.
type Rule struct {
	Kind    string
	Message string
	Check   Predicate
}

// Passes evaluates the rule. A rule without predicate always passes.
func (r Rule) Passes(value Value, now time.Time) bool {
	if r.Check == nil {
		return true
	}
	return r.Check(value, now)
}

// RuleTable maps field keys to ordered rules.
type RuleTable map[string][]Rule

// Length requires the trimmed value to hold between min and max runes,
// inclusive.
func Length(min, max int, message string) Rule {
	return Rule{
		Kind:    RuleKindLength,
		Message: message,
		Check: func(value Value, _ time.Time) bool {
			n := utf8.RuneCountInString(value.String())
			return n >= min && n <= max
		},
	}
}

// MaxLength requires the trimmed value to hold at most max runes.
func MaxLength(max int, message string) Rule {
	return Rule{
		Kind:    RuleKindMaxLength,
		Message: message,
		Check: func(value Value, _ time.Time) bool {
			return utf8.RuneCountInString(value.String()) <= max
		},
	}
}

// Pattern requires the trimmed value to match re.
func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{
		Kind:    RuleKindPattern,
		Message: message,
		Check: func(value Value, _ time.Time) bool {
			if re == nil {
				return true
			}
			return re.MatchString(value.String())
		},
	}
}

// Range requires a numeric value within [min, max]. Non-numeric values fail.
func Range(min, max float64, message string) Rule {
	return Rule{
		Kind:    RuleKindRange,
		Message: message,
		Check: func(value Value, _ time.Time) bool {
			f, ok := value.Float()
			return ok && f >= min && f <= max
		},
	}
}

// YearWindow requires an integer year within [now-before, now+after].
func YearWindow(before, after int, message string) Rule {
	return Rule{
		Kind:    RuleKindYearWindow,
		Message: message,
		Check: func(value Value, now time.Time) bool {
			year, ok := value.Int()
			if !ok {
				return false
			}
			current := now.Year()
			return year >= current-before && year <= current+after
		},
	}
}

// AgeBetween requires a date whose age in calendar years (current year minus
// birth year) lies within [min, max]. Unparseable dates fail.
func AgeBetween(min, max int, message string) Rule {
	return Rule{
		Kind:    RuleKindAge,
		Message: message,
		Check: func(value Value, now time.Time) bool {
			born, ok := value.Time()
			if !ok {
				return false
			}
			age := CalendarAge(born, now)
			return age >= min && age <= max
		},
	}
}

// CalendarAge subtracts birth year from the current year, ignoring month and
// day.
func CalendarAge(born, now time.Time) int {
	return now.Year() - born.Year()
}
