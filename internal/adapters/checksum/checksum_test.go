package checksum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/wick/internal/adapters/checksum"
)

func TestDigest_Deterministic(t *testing.T) {
	h := checksum.New()

	d1 := h.Digest("def f():\n    return 1\n", "salt")
	d2 := h.Digest("def f():\n    return 1\n", "salt")

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 16)
}

func TestDigest_Sensitivity(t *testing.T) {
	h := checksum.New()
	base := h.Digest("abc", "salt")

	tests := []struct {
		name string
		text string
		salt string
	}{
		{"different text", "abd", "salt"},
		{"reordered text", "cba", "salt"},
		{"different salt", "abc", "pepper"},
		{"empty salt", "abc", ""},
		{"salt moved into text", "saltabc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, h.Digest(tt.text, tt.salt))
		})
	}
}

func TestDigest_EmptyInput(t *testing.T) {
	h := checksum.New()
	assert.Len(t, h.Digest("", ""), 16)
}
