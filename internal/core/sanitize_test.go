package core

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello", "hello"},
		{"empty", "", ""},
		{"surrounding quotes", `"hello"`, "hello"},
		{"doubled surrounding quotes", `""hello""`, "hello"},
		{"tripled quotes", `"""hello"""`, "hello"},
		{"inner doubled quote collapses", `say ""hi"" now`, `say "hi" now`},
		{"only leading quote", `"hello`, "hello"},
		{"only trailing quote", `hello"`, "hello"},
		{"single quote character", `"`, ""},
		{"quote run only", `""""`, ""},
		{"embedded json", `{""a"":""1""}`, `{"a":"1"}`},
		{"inner single quote kept", `a"b`, `a"b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "x", `"`, `""`, `"""`, `"a"`, `""a""`, `a""b`, `"a"b"`,
		`""x"`, `x""`, `" "`, `"{""k"":[""v""]}"`, `"""""a`,
	}

	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestSanitizeFields(t *testing.T) {
	rec := RecordFromPairs("a", `"x"`, "b", `y""z`)
	sanitizeFields(rec)

	if got := rec.Text("a"); got != "x" {
		t.Errorf("a = %q, want %q", got, "x")
	}
	if got := rec.Text("b"); got != `y"z` {
		t.Errorf("b = %q, want %q", got, `y"z`)
	}
}
