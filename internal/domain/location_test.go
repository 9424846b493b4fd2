package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanLocation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "1400 BLOCK K ST NW", "1400 block k st nw"},
		{"strips punctuation", "14TH ST & K ST, N.W.", "14th st k st nw"},
		{"collapses spaces", "800   BLOCK   H  ST  NE", "800 block h st ne"},
		{"trims", "  900 BLOCK M ST SW  ", "900 block m st sw"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanLocation(tt.input))
		})
	}
}

func TestTrivialLocation(t *testing.T) {
	assert.True(t, TrivialLocation(""))
	assert.True(t, TrivialLocation("   "))
	assert.False(t, TrivialLocation("1400 BLOCK K ST NW"))
}

func TestCompatibleLocations(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{"identical", "1400 block k st nw", "1400 block k st nw", true},
		{"block marker optional", "1400 k st nw", "1400 block k st nw", true},
		{"blk abbreviation", "1400 blk k st nw", "1400 block k st nw", true},
		{"same leading two digits", "1410 block k st nw", "1475 block k st nw", true},
		{"trailing zero drift", "800 block h st ne", "8000 block h st ne", true},
		{"different quadrant", "1400 block k st nw", "1400 block k st se", false},
		{"different street", "1400 block k st nw", "1400 block m st nw", false},
		{"different block", "1400 block k st nw", "2600 block k st nw", false},
		{"ordinal street name", "900 block 14th st nw", "900 block 14th st nw", true},
		{"no block on one side", "k st nw", "1400 block k st nw", false},
		{"no quadrant", "1400 block k st", "1400 block k st", false},
		{"empty strings", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompatibleLocations(tt.a, tt.b))
		})
	}
}

func TestCompatibleBlocks(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{"equal", "800", "800", true},
		{"shared leading two digits", "1410", "1475", true},
		{"trailing zero a", "8000", "800", true},
		{"trailing zero b", "800", "8000", true},
		{"unrelated", "800", "2600", false},
		{"short blocks", "8", "8", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compatibleBlocks(tt.a, tt.b))
		})
	}
}
