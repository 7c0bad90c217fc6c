package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymize(t *testing.T) {
	got := Anonymize("12345")

	// sha256("12345")
	assert.Equal(t, "HASH_5994471abb01112afcc18159f6cc74b4f511b99806da59b3caf5a9c173cacfc5", got)
	assert.Equal(t, got, Anonymize("12345"))
	assert.NotEqual(t, got, Anonymize("12346"))
	assert.True(t, strings.HasPrefix(Anonymize(""), HashPrefix))
	assert.Len(t, Anonymize("anything"), len(HashPrefix)+64)
}

func TestHasher(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		keyed bool
	}{
		{"unkeyed", "", false},
		{"keyed", "a1b2c3d4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHasher(tt.key)
			assert.Equal(t, tt.keyed, h.Keyed())

			first := h.Anonymize("12345")
			assert.Equal(t, first, h.Anonymize("12345"))
			assert.True(t, strings.HasPrefix(first, HashPrefix))

			if tt.keyed {
				assert.NotEqual(t, Anonymize("12345"), first)
				assert.NotEqual(t, NewHasher("other").Anonymize("12345"), first)
			} else {
				assert.Equal(t, Anonymize("12345"), first)
			}
		})
	}
}

func TestNilHasher(t *testing.T) {
	var h *Hasher
	assert.False(t, h.Keyed())
	assert.Equal(t, Anonymize("x"), h.Anonymize("x"))
}
