package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNakshatraOf(t *testing.T) {
	cases := []struct {
		longitude float64
		name      string
		pada      int
	}{
		{0, "Ashwini", 1},
		{13.5, "Bharani", 1},
		{95.0, "Pushya", 1},
		{359.9, "Revati", 4},
		{-0.5, "Revati", 4},
	}
	for _, tc := range cases {
		name, pada := NakshatraOf(tc.longitude)
		assert.Equal(t, tc.name, name, tc.longitude)
		assert.Equal(t, tc.pada, pada, tc.longitude)
	}
}
