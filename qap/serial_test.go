package qap

import "testing"

func TestSerialMatcher(t *testing.T) {
	var m SerialMatcher

	tests := []struct {
		line   string
		serial string
		rest   string
		ok     bool
	}{
		{"1 Visual inspection", "1", "Visual inspection", true},
		{"1.1 Dimensional check", "1.1", "Dimensional check", true},
		{"2.10.3  Hydro test at 1.5x pressure", "2.10.3", "Hydro test at 1.5x pressure", true},
		{"a. Surface preparation", "a", "Surface preparation", true},
		{"B. Welding procedure", "B", "Welding procedure", true},
		{"(a) Material certificate", "(a)", "Material certificate", true},
		{"(12) Final acceptance", "(12)", "Final acceptance", true},
		// No trailing whitespace after the token.
		{"1.Visual inspection", "", "", false},
		// Decimal numbers mid-line must not match the rest.
		{"Pressure held at 1.5 bar", "", "", false},
		{"General notes on the plan", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		serial, rest, ok := m.Match(tt.line)
		if ok != tt.ok {
			t.Errorf("Match(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if serial != tt.serial || rest != tt.rest {
			t.Errorf("Match(%q) = (%q, %q), want (%q, %q)", tt.line, serial, rest, tt.serial, tt.rest)
		}
	}
}
