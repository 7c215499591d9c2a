package election

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainFixture is the domain prefix for fixture content hashes.
// The version suffix leaves room for a future algorithm change.
const DomainFixture = "ballotfix/fixture/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the content-addressed identity of the fixture.
// Two fixtures with the same n, t and ro hash identically regardless of
// source format, key order or comments.
func (e *Election) ContentHash() (string, error) {
	canonical, err := e.Canonical()
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return hashWithDomain(DomainFixture, canonical), nil
}

// MustContentHash is like ContentHash but panics on error.
// Use only in tests or when the fixture is known to be valid.
func MustContentHash(e *Election) string {
	h, err := e.ContentHash()
	if err != nil {
		panic(err)
	}
	return h
}
