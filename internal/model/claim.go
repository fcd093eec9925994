package model

import "strings"

// Claim is a factual statement submitted by the user for verification.
// It is immutable once submitted; a new submission replaces it.
type Claim string

// NewClaim trims surrounding whitespace. ok is false for blank input.
func NewClaim(text string) (claim Claim, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	return Claim(trimmed), true
}

// String returns the claim text
func (c Claim) String() string {
	return string(c)
}

// IsBlank reports whether text is empty after trimming surrounding whitespace.
// Blank claims and questions never reach the network.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
