package password

import (
	"strings"
	"testing"
)

func defaultPolicy() *Policy {
	return NewPolicy(PolicyConfig{MinLength: 12, MaxLength: 128})
}

func TestValidate_AcceptsStrongPassword(t *testing.T) {
	p := defaultPolicy()
	if v := p.Validate("Tr!ckyHorse#9Blue"); len(v) != 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestValidate_RejectsShortPassword(t *testing.T) {
	p := defaultPolicy()
	v := p.Validate("Sh0rt!x")
	if len(v) == 0 {
		t.Fatal("expected a length violation")
	}
	if !containsSubstring(v, "at least 12") {
		t.Fatalf("expected minimum-length violation, got %v", v)
	}
}

func TestValidate_RejectsOverlongPassword(t *testing.T) {
	p := defaultPolicy()
	long := "Aa1!" + strings.Repeat("xQ9#", 40)
	if v := p.Validate(long); !containsSubstring(v, "at most 128") {
		t.Fatalf("expected maximum-length violation, got %v", v)
	}
}

func TestValidate_RequiresEachCharacterClass(t *testing.T) {
	p := defaultPolicy()
	cases := []struct {
		name     string
		password string
		want     string
	}{
		{"missing upper", "tr!ckyhorse#9blue", "uppercase"},
		{"missing lower", "TR!CKYHORSE#9BLUE", "lowercase"},
		{"missing digit", "Tr!ckyHorse#Blue", "digit"},
		{"missing symbol", "TrickyHorse9Blue", "symbol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if v := p.Validate(tc.password); !containsSubstring(v, tc.want) {
				t.Fatalf("expected %q violation, got %v", tc.want, v)
			}
		})
	}
}

func TestValidate_RejectsWeakPasswordsUnderNormalization(t *testing.T) {
	p := defaultPolicy()
	for _, pw := range []string{"Password!!2024", "QWERTY!!qwerty9", "Passw0rd#Extra"} {
		if v := p.Validate(pw); !containsSubstring(v, "commonly used") {
			t.Fatalf("expected weak-list violation for %q, got %v", pw, v)
		}
	}
}

func TestValidate_ExtraWeakEntries(t *testing.T) {
	p := NewPolicy(PolicyConfig{ExtraWeak: []string{"CropLink"}})
	if v := p.Validate("Cr0pL!nk-Farm"); containsSubstring(v, "commonly used") {
		t.Fatalf("normalized form differs from entry, should not match: %v", v)
	}
	if v := p.Validate("CropLink!!A9zz"); !containsSubstring(v, "commonly used") {
		t.Fatalf("expected extra weak entry to match, got %v", v)
	}
}

func TestValidate_RejectsSequentialRuns(t *testing.T) {
	p := defaultPolicy()
	for _, pw := range []string{"Go!Secure1234X", "Go!SecureAbcdX9", "Go!Secure9876Xa"} {
		if v := p.Validate(pw); !containsSubstring(v, "sequential") {
			t.Fatalf("expected sequential-run violation for %q, got %v", pw, v)
		}
	}
	// Three in a row is under the threshold.
	if v := p.Validate("Go!Secure123Xkm"); containsSubstring(v, "sequential") {
		t.Fatalf("run of 3 should pass, got %v", v)
	}
}

func TestValidate_SymbolNeighborDoesNotExtendRun(t *testing.T) {
	p := defaultPolicy()
	// '/' precedes '0' and '`' precedes 'a' in the character table; a
	// symbol neighbor must not count toward a sequential run of three.
	for _, pw := range []string{"Go!Secure/012Xk", "Go!Secure`abcXk9"} {
		if v := p.Validate(pw); containsSubstring(v, "sequential") {
			t.Fatalf("symbol-extended run flagged for %q: %v", pw, v)
		}
	}
}

func TestValidate_RejectsRepeatedRuns(t *testing.T) {
	p := defaultPolicy()
	if v := p.Validate("Go!Secuuure19X"); !containsSubstring(v, "repeat") {
		t.Fatalf("expected repeat-run violation, got %v", v)
	}
	if v := p.Validate("Go!Secuure19Xm"); containsSubstring(v, "repeat") {
		t.Fatalf("double character should pass, got %v", v)
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	p := defaultPolicy()
	// Short, lowercase-only, no digit, no symbol, repeated run.
	v := p.Validate("aaab")
	if len(v) < 4 {
		t.Fatalf("expected every violation collected, got %d: %v", len(v), v)
	}
}

func TestScore_Labels(t *testing.T) {
	p := defaultPolicy()
	cases := []struct {
		password string
		want     StrengthLabel
	}{
		{"abc", LabelWeak},
		{"Tr!ckyHorse#9Blue", LabelStrong},
	}
	for _, tc := range cases {
		score, label := p.Score(tc.password)
		if label != tc.want {
			t.Fatalf("Score(%q) = %d %q, want label %q", tc.password, score, label, tc.want)
		}
	}

	// Scores are monotone with added character classes.
	lowScore, _ := p.Score("onlylowercaseletters")
	highScore, _ := p.Score("OnlyLower1!letters")
	if highScore <= lowScore {
		t.Fatalf("expected class coverage to raise score: %d <= %d", highScore, lowScore)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("P@ss Word!!"); got != "pssword" {
		t.Fatalf("Normalize = %q", got)
	}
}

func containsSubstring(violations []string, sub string) bool {
	for _, v := range violations {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}
