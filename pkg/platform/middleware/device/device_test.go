package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	cases := map[string]struct {
		ua   string
		want string
	}{
		"empty": {"", "unknown"},
		"desktop chrome": {
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.109 Safari/537.36",
			"Chrome 120 on Windows 10 (desktop)",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Describe(tc.ua))
		})
	}

	t.Run("mobile", func(t *testing.T) {
		got := Describe("Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Mobile Safari/537.36")
		assert.Contains(t, got, "(mobile)")
		assert.Contains(t, got, "Chrome 119")
	})
}
