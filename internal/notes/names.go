package notes

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/AveryRegier/actsix/internal/model"
)

// NameKeys are the lookup keys derived from a person's name.
type NameKeys struct {
	Last     string // lowercase letters of the last name
	First    string // lowercase letters of the first name
	Initials string // first-name initial plus each last-name word's initial
	Short    string // first-name initial plus last-name initial
	LastWord string // final word of a multi-word last name, else empty
}

// KeysFor derives lookup keys for p. "Amy Van Winkle" yields initials "AVW",
// short form "AV" and last word "winkle".
func KeysFor(p model.Person) NameKeys {
	k := NameKeys{
		Last:  NameKey(p.LastName),
		First: NameKey(p.FirstName),
	}
	if parts := strings.Fields(p.LastName); len(parts) > 1 {
		k.LastWord = NameKey(parts[len(parts)-1])
	}
	first := firstLetter(p.FirstName)
	if first == "" {
		return k
	}
	words := strings.FieldsFunc(fold(p.LastName), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	var b strings.Builder
	b.WriteString(first)
	for _, w := range words {
		b.WriteString(firstLetter(w))
	}
	if len(words) > 0 {
		k.Initials = b.String()
		k.Short = first + firstLetter(words[0])
	}
	return k
}

// NameKey normalizes a token for name lookup: letters only, lowercase,
// diacritics removed.
func NameKey(s string) string {
	return strings.ToLower(lettersOnly(s))
}

// InitialsKey normalizes a token for initials lookup: letters only,
// uppercase.
func InitialsKey(s string) string {
	return strings.ToUpper(lettersOnly(s))
}

// isUpperLetters reports whether every letter in s is uppercase and there is
// at least one.
func isUpperLetters(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			seen = true
		}
	}
	return seen
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, fold(s))
}

func firstLetter(s string) string {
	for _, r := range fold(s) {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return ""
}

// fold strips combining marks so "José" and "Jose" share keys. The
// transformer is stateful, so one is built per call.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
