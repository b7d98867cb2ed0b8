package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeComponent(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"hello":              "hello",
		"a-b_c.d!e~f*g'h(i)": "a-b_c.d!e~f*g'h(i)",
		"rock&roll":          "rock%26roll",
		"a+b":                "a%2Bb",
		"x=y":                "x%3Dy",
		"e@mail":             "e%40mail",
		"a:b$c,d;e":          "a%3Ab%24c%2Cd%3Be",
		"good morning":       "good%20morning",
		"100%":               "100%25",
	}
	for in, want := range tests {
		assert.Equal(t, want, EscapeComponent(in), in)
	}
}
