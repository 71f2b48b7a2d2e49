// Package id generates prefixed, URL-safe entity identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each persisted entity. The prefix makes IDs self-describing
// in logs and notification payloads.
const (
	PrefixUser         = "usr"
	PrefixBook         = "book"
	PrefixReview       = "rev"
	PrefixComment      = "cmt"
	PrefixLike         = "like"
	PrefixNotification = "ntf"
	PrefixList         = "list"
	PrefixStream       = "sse"
)

// Generate creates an ID of the form prefix-nanoid (e.g. "rev-V1StGXR8_Z5jdHi6B-myT").
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics on failure. Use only in seeding
// and tests.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// HasPrefix reports whether v was generated with prefix.
func HasPrefix(v, prefix string) bool {
	return len(v) > len(prefix)+1 && v[:len(prefix)] == prefix && v[len(prefix)] == '-'
}
