package domain

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)
	spacesRe   = regexp.MustCompile(`\s+`)

	// blockRe matches a leading block number with an optional BLOCK/BLK
	// marker: "800 block", "1200 blk", or a bare "800".
	blockRe = regexp.MustCompile(`(?:^|\s)([0-9]+)(\s(?:block|blk))?(?:\s|$)`)

	// streetRe matches "<name> <street type>" where the name is either a
	// numbered ordinal ("14th") or a word ("k", "constitution").
	streetRe = regexp.MustCompile(`(?:^|\s)([0-9]+(?:st|nd|rd|th)|[a-z]+) ` +
		`(st|street|ave|avenue|pl|place|dr|drive|ct|court|blvd|boulevard` +
		`|ln|lane|rd|road|pkwy|parkway|cir|circle|ter|terrace|plz|plaza` +
		`|way|alley|row|roadway|walk|walkway|square|sq)(?:\s|$)`)

	// quadrantRe matches the DC quadrant suffix.
	quadrantRe = regexp.MustCompile(` (nw|ne|sw|se)(?:\s|$)`)
)

// CleanLocation lowercases a location string and strips everything except
// letters, digits, and single spaces. Used as the linkage key for
// coordinate fill.
func CleanLocation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRe.ReplaceAllString(s, "")
	return spacesRe.ReplaceAllString(s, " ")
}

// TrivialLocation reports whether a location string carries no linkage
// value (empty or whitespace only).
func TrivialLocation(s string) bool {
	return strings.TrimSpace(s) == ""
}

// CompatibleLocations reports whether two cleaned location strings
// describe the same street segment, used to accept or reject a fuzzy
// match. Both must expose a block, a street, and a quadrant; the street
// and quadrant must agree exactly, and the blocks must share their
// leading two digits or differ by one trailing zero (the extracts encode
// "800" and "8000" style block drift for the same segment).
func CompatibleLocations(a, b string) bool {
	aBlock, aStreet, aQuad, ok := locationParts(a)
	if !ok {
		return false
	}
	bBlock, bStreet, bQuad, ok := locationParts(b)
	if !ok {
		return false
	}

	if aStreet != bStreet || aQuad != bQuad {
		return false
	}
	return compatibleBlocks(aBlock, bBlock)
}

func locationParts(s string) (block, street, quadrant string, ok bool) {
	blockM := blockRe.FindStringSubmatch(s)
	streetM := streetRe.FindStringSubmatch(s)
	quadM := quadrantRe.FindStringSubmatch(s)
	if blockM == nil || streetM == nil || quadM == nil {
		return "", "", "", false
	}
	return blockM[1], streetM[1], quadM[1], true
}

func compatibleBlocks(a, b string) bool {
	if a == b {
		return true
	}
	d1 := leading2(a)
	d2 := leading2(b)
	if d1 == d2 {
		return true
	}
	return d1 == d2+"0" || d2 == d1+"0"
}

func leading2(s string) string {
	if len(s) > 2 {
		return s[:2]
	}
	return s
}
