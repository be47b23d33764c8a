package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSlug(t *testing.T) {
	cases := []struct {
		groom, bride, want string
	}{
		{"José", "María Paz", "jose-y-maria-paz"},
		{"Ana", "Luis", "ana-y-luis"},
		{"  Ñoño  ", "Zoe", "nono-y-zoe"},
		{"Jean-Luc", "Amélie", "jean-luc-y-amelie"},
		{"", "", "boda"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveSlug(tc.groom, tc.bride), "%s+%s", tc.groom, tc.bride)
	}
}
