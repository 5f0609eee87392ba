package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		allowed string
		origin  string
		want    bool
	}{
		{"*", "https://anything.example", true},
		{"https://app.example", "", true},
		{"https://app.example", "https://app.example", true},
		{"https://app.example", "HTTPS://APP.EXAMPLE", true},
		{"https://app.example", "https://evil.example", false},
		{"https://a.example, https://b.example", "https://b.example", true},
		{"https://a.example,https://b.example", "https://c.example", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, originAllowed(tt.allowed, tt.origin), "%s vs %s", tt.allowed, tt.origin)
	}
}
