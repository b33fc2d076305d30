package textfold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"":                    "",
		"CS 101":              "cs 101",
		"  Intro   to\tCS  ": "intro to cs",
		"ＣＳ１０１":               "cs101",
		"Straße":         "strasse",
		"zero​width":     "zerowidth",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), "input %q", in)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("CS 101: Intro to Computer Science", "cs 101"))
	assert.True(t, Contains("John Doe", "JOHN"))
	assert.True(t, Contains("Senin, 10.00-12.30", "senin,  10.00"))
	assert.True(t, Contains("anything", ""))
	assert.False(t, Contains("Jane Roe", "john"))
}
