// Package cardid derives stable ids for imported decks and cards, so that a
// re-import of the same notes lands on the same rows and keeps their review
// history.
package cardid

import (
	"crypto/sha256"
	"fmt"
	"path"
	"strings"
)

// Normalize cleans each part and joins them. It trims whitespace,
// lowercases, and normalizes line endings for each part.
func Normalize(parts ...string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = normalizePart(p)
	}
	// Joined with a newline so that "ab"+"c" and "a"+"bc" differ.
	return strings.Join(out, "\n")
}

// Hash returns the SHA-256 of the normalized parts as a hex string.
func Hash(parts ...string) string {
	hashBytes := sha256.Sum256([]byte(Normalize(parts...)))
	return fmt.Sprintf("%x", hashBytes)
}

// Deck returns the id of the deck at relPath (slash separated, "." for the
// top directory) within the import source.
func Deck(source, relPath string) string {
	p := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	return "deck-" + Hash(source, p)[:24]
}

// Card returns the id of the card titled title in deckID. Editing a card's
// content keeps its id; renaming it does not.
func Card(deckID, title string) string {
	return "card-" + Hash(deckID, title)[:24]
}
