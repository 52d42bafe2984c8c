package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCropKey(t *testing.T) {
	cases := map[string]string{
		"Corn":          "corn",
		"  RICE ":       "rice",
		"sweet   Maize": "sweet maize",
		"":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCropKey(in), in)
	}
}
