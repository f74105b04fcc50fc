package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "accents and case", in: "CAFÉ", want: "cafe"},
		{name: "trailing spaces", in: "CAFÉ  ", want: "cafe"},
		{name: "inner whitespace collapsed", in: "  San   José\tde\n Costa  ", want: "san jose de costa"},
		{name: "tilde n", in: "Muñeca", want: "muneca"},
		{name: "already canonical", in: "rex", want: "rex"},
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \t ", want: ""},
		{name: "precomposed and combining agree", in: "élève", want: "eleve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestHash_EquivalentAnswers(t *testing.T) {
	assert.Equal(t, Hash("cafe"), Hash("CAFÉ  "))
	assert.Equal(t, Hash("Rex"), Hash(" rEx "))
	assert.NotEqual(t, Hash("rex"), Hash("rexy"))
	assert.Len(t, Hash("anything"), 64)
}

func TestMatches(t *testing.T) {
	stored := Hash("cafe")

	assert.True(t, Matches(stored, "Café"))
	assert.True(t, Matches(stored, "  CAFE "))
	assert.False(t, Matches(stored, "coffee"))
	assert.False(t, Matches("", "cafe"))
}
