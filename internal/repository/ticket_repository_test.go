package repository

import "testing"

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":        "plain",
		"100%":         `100\%`,
		"in_progress":  `in\_progress`,
		`back\slash`:   `back\\slash`,
		"%":            `\%`,
		"TICK-1750_2%": `TICK-1750\_2\%`,
	}
	for input, want := range cases {
		if got := escapeLike(input); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", input, got, want)
		}
	}
}
