package password

import (
	"fmt"
	"strings"
	"unicode"
)

// Symbols is the punctuation set accepted as the symbol character class.
const Symbols = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"

// baseline deny list; PolicyConfig.ExtraWeak extends it.
var defaultWeak = []string{
	"password",
	"passw0rd",
	"qwerty",
	"letmein",
	"welcome",
	"iloveyou",
	"admin",
	"monkey",
	"dragon",
	"sunshine",
	"football",
	"baseball",
	"master",
	"secret",
	"trustno1",
}

// StrengthLabel buckets a Score result for display.
type StrengthLabel string

const (
	// LabelWeak is the label for scores below 40.
	LabelWeak StrengthLabel = "Weak"
	// LabelFair is the label for scores in [40, 60).
	LabelFair StrengthLabel = "Fair"
	// LabelGood is the label for scores in [60, 80).
	LabelGood StrengthLabel = "Good"
	// LabelStrong is the label for scores of 80 and above.
	LabelStrong StrengthLabel = "Strong"
)

// PolicyConfig controls the composition rules enforced by a Policy.
type PolicyConfig struct {
	MinLength int
	MaxLength int
	// ExtraWeak adds entries to the built-in weak-password deny list.
	// Entries are matched after case and punctuation normalization.
	ExtraWeak []string
}

// Policy checks candidate passwords against composition rules and scores
// their strength. A Policy is immutable after construction and safe for
// concurrent use.
type Policy struct {
	minLength int
	maxLength int
	weak      []string
}

// NewPolicy builds a Policy from cfg. Zero Min/MaxLength fall back to 12
// and 128.
func NewPolicy(cfg PolicyConfig) *Policy {
	if cfg.MinLength <= 0 {
		cfg.MinLength = 12
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 128
	}
	weak := make([]string, 0, len(defaultWeak)+len(cfg.ExtraWeak))
	weak = append(weak, defaultWeak...)
	for _, w := range cfg.ExtraWeak {
		if n := Normalize(w); n != "" {
			weak = append(weak, n)
		}
	}
	return &Policy{
		minLength: cfg.MinLength,
		maxLength: cfg.MaxLength,
		weak:      weak,
	}
}

// Normalize lowercases s and strips punctuation and whitespace. Weak-list
// comparisons run against this form so "P@ssword!!" still matches
// "password".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Validate checks candidate against every rule and returns the full list
// of violations. It never short-circuits: callers show the complete list
// to the user. An empty slice means the password is acceptable.
func (p *Policy) Validate(candidate string) []string {
	var violations []string

	if len(candidate) < p.minLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters", p.minLength))
	}
	if len(candidate) > p.maxLength {
		violations = append(violations, fmt.Sprintf("must be at most %d characters", p.maxLength))
	}

	classes := classify(candidate)
	if !classes.upper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !classes.lower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !classes.digit {
		violations = append(violations, "must contain a digit")
	}
	if !classes.symbol {
		violations = append(violations, "must contain a symbol")
	}

	if p.matchesWeak(candidate) {
		violations = append(violations, "is too close to a commonly used password")
	}
	if hasSequentialRun(candidate, 4) {
		violations = append(violations, "must not contain sequential characters such as \"1234\" or \"abcd\"")
	}
	if hasRepeatRun(candidate, 3) {
		violations = append(violations, "must not repeat the same character three or more times in a row")
	}

	return violations
}

// Score rates candidate on a 0..100 scale. Length contributes up to 40
// points, character-class coverage up to 40, and absence of weak patterns
// the remaining 20. Labels switch at 40/60/80.
func (p *Policy) Score(candidate string) (int, StrengthLabel) {
	score := len(candidate) * 3
	if score > 40 {
		score = 40
	}

	classes := classify(candidate)
	for _, present := range []bool{classes.upper, classes.lower, classes.digit, classes.symbol} {
		if present {
			score += 10
		}
	}

	if !hasSequentialRun(candidate, 4) {
		score += 10
	}
	if !hasRepeatRun(candidate, 3) {
		score += 5
	}
	if !p.matchesWeak(candidate) {
		score += 5
	}

	switch {
	case score >= 80:
		return score, LabelStrong
	case score >= 60:
		return score, LabelGood
	case score >= 40:
		return score, LabelFair
	default:
		return score, LabelWeak
	}
}

func (p *Policy) matchesWeak(candidate string) bool {
	norm := Normalize(candidate)
	if norm == "" {
		return false
	}
	for _, w := range p.weak {
		if norm == w || strings.HasPrefix(norm, w) || strings.HasPrefix(w, norm) {
			return true
		}
	}
	return false
}

type charClasses struct {
	upper  bool
	lower  bool
	digit  bool
	symbol bool
}

func classify(s string) charClasses {
	var c charClasses
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case strings.ContainsRune(Symbols, r):
			c.symbol = true
		}
	}
	return c
}

// hasSequentialRun reports whether s contains a run of n or more
// consecutive ascending or descending digits or letters.
func hasSequentialRun(s string, n int) bool {
	runes := []rune(strings.ToLower(s))
	asc, desc := 1, 1
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		// Both neighbors must be alphanumeric; an adjacent symbol such
		// as '/' before '0' must not extend a run.
		alnum := isSeqRune(prev) && isSeqRune(cur)
		if alnum && cur == prev+1 {
			asc++
		} else {
			asc = 1
		}
		if alnum && cur == prev-1 {
			desc++
		} else {
			desc = 1
		}
		if asc >= n || desc >= n {
			return true
		}
	}
	return false
}

func isSeqRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// hasRepeatRun reports whether s contains the same character n or more
// times in a row.
func hasRepeatRun(s string, n int) bool {
	runes := []rune(s)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
