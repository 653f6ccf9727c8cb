// Package notes turns freeform care-note text into dated, attributed
// segments. It knows nothing about the record store; callers supply the
// caretaker roster and household members and receive segments through a
// flush callback.
package notes

import "strings"

// Tokenize splits notes on runs of whitespace. Punctuation is kept; the
// classifier strips it separately for date and name matching.
func Tokenize(notes string) []string {
	return strings.Fields(notes)
}

// nameListSeparators are the delimiters seen in caretaker name cells, e.g.
// "Amy Van Winkle & Bob Ross" or "Smith/Jones".
const nameListSeparators = ",&/\\:|"

// SplitNames splits a delimited name list into trimmed, non-empty names.
func SplitNames(list string) []string {
	parts := strings.FieldsFunc(list, func(r rune) bool {
		return strings.ContainsRune(nameListSeparators, r)
	})
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}
