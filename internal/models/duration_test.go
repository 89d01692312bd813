package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurationMinutes(t *testing.T) {
	tests := map[string]int{
		"5 hr 30 min": 330,
		"1 hr":        60,
		"45 min":      45,
		"12 hr 5 min": 725,
		"2h 10m":      130,
		"N/A":         0,
		"":            0,
	}
	for in, want := range tests {
		assert.Equal(t, want, DurationMinutes(in), in)
	}
}
