// sweep/record_test.go
package sweep

import "testing"

func TestParseLineValid(t *testing.T) {
	rec, ok := ParseLine(`{"n_prompt": 128, "n_gen": 0, "avg_ts": 55.2}`)
	if !ok {
		t.Fatal("ParseLine() rejected a valid result line")
	}
	if rec.PromptTokens() != 128 {
		t.Errorf("PromptTokens() = %d, want 128", rec.PromptTokens())
	}
	if rec.NGen != 0 {
		t.Errorf("NGen = %d, want 0", rec.NGen)
	}
	if rec.AvgTS != 55.2 {
		t.Errorf("AvgTS = %v, want 55.2", rec.AvgTS)
	}
}

func TestParseLineSurroundingWhitespace(t *testing.T) {
	rec, ok := ParseLine("  \t{\"n_prompt\": 64, \"n_gen\": 32}\r\n")
	if !ok {
		t.Fatal("ParseLine() should tolerate surrounding whitespace")
	}
	if rec.PromptTokens() != 64 || rec.NGen != 32 {
		t.Errorf("got %+v", rec)
	}
}

func TestParseLineRejects(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace only", "   \t  "},
		{"invalid JSON", "build: 4284 (abc123) with gcc"},
		{"truncated JSON", `{"n_prompt": 12`},
		{"missing n_prompt", `{"n_gen": 64, "avg_ts": 30.0}`},
		{"array not object", `[1, 2, 3]`},
		{"bare number", `42`},
	}
	for _, tc := range cases {
		if _, ok := ParseLine(tc.line); ok {
			t.Errorf("%s: ParseLine(%q) should have been rejected", tc.name, tc.line)
		}
	}
}
