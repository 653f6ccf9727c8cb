package notes

import (
	"time"

	"github.com/AveryRegier/actsix/internal/model"
)

// Kind is the classification of a single token.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindCaretaker
	KindMember
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindCaretaker:
		return "caretaker"
	case KindMember:
		return "member"
	default:
		return "text"
	}
}

// MatchedBy names the map a caretaker reference was found in.
type MatchedBy string

const (
	MatchedLastName  MatchedBy = "last_name"
	MatchedLastWord  MatchedBy = "last_word"
	MatchedFirstName MatchedBy = "first_name"
	MatchedInitials  MatchedBy = "initials"
)

// Token is a classified note token. Raw is always the original text.
type Token struct {
	Raw       string
	Kind      Kind
	Date      time.Time
	Caretaker model.Person
	MatchedBy MatchedBy
}

// Directory holds the per-row lookup maps. Roster entries keep the first
// person seen for a key; overrides replace whatever is there.
type Directory struct {
	roster         []model.Person
	lastNames      map[string]model.Person
	lastWords      map[string]model.Person // tails of multi-word last names
	firstNames     map[string]model.Person
	initials       map[string]model.Person
	memberNames    map[string]struct{}
	memberInitials map[string]struct{}
}

// NewDirectory indexes the caretaker roster. The roster slice is not
// retained or modified.
func NewDirectory(roster []model.Person) *Directory {
	d := &Directory{
		lastNames:      make(map[string]model.Person, len(roster)),
		lastWords:      make(map[string]model.Person),
		firstNames:     make(map[string]model.Person, len(roster)),
		initials:       make(map[string]model.Person, len(roster)*2),
		memberNames:    make(map[string]struct{}),
		memberInitials: make(map[string]struct{}),
	}
	for _, p := range roster {
		d.insert(p, false)
	}
	d.roster = append([]model.Person(nil), roster...)
	return d
}

// Override re-inserts people so they win key collisions for this directory
// only. Later entries win over earlier ones.
func (d *Directory) Override(people ...model.Person) {
	for _, p := range people {
		d.insert(p, true)
	}
}

// ExcludeMembers registers household members. Tokens matching a member's
// name or initials are never caretaker references.
func (d *Directory) ExcludeMembers(members ...model.Person) {
	for _, m := range members {
		k := KeysFor(m)
		for _, name := range []string{k.First, k.Last, k.LastWord} {
			if name != "" {
				d.memberNames[name] = struct{}{}
			}
		}
		for _, in := range []string{k.Initials, k.Short} {
			if in != "" {
				d.memberInitials[in] = struct{}{}
			}
		}
	}
}

func (d *Directory) insert(p model.Person, replace bool) {
	k := KeysFor(p)
	put(d.lastNames, k.Last, p, replace)
	put(d.lastWords, k.LastWord, p, replace)
	put(d.firstNames, k.First, p, replace)
	// The short form goes in first so a full initials key from another
	// person is not shadowed by it.
	put(d.initials, k.Short, p, replace)
	put(d.initials, k.Initials, p, replace)
}

func put(m map[string]model.Person, key string, p model.Person, replace bool) {
	if key == "" {
		return
	}
	if _, exists := m[key]; exists && !replace {
		return
	}
	m[key] = p
}

// Resolve finds a roster person by a name as written in a care-list cell:
// full name, then last name, first name, initials.
func (d *Directory) Resolve(name string) (model.Person, bool) {
	full := NameKey(name)
	if full == "" {
		return model.Person{}, false
	}
	for _, p := range d.roster {
		if NameKey(p.FirstName+p.LastName) == full {
			return p, true
		}
	}
	if p, ok := d.lastNames[full]; ok {
		return p, true
	}
	if p, ok := d.lastWords[full]; ok {
		return p, true
	}
	if p, ok := d.firstNames[full]; ok {
		return p, true
	}
	if p, ok := d.initials[InitialsKey(name)]; ok {
		return p, true
	}
	return model.Person{}, false
}

// Classifier assigns a Kind to each token.
type Classifier struct {
	dates *DateParser
	dir   *Directory

	// StrictInitials only accepts initials written in capitals, so "at"
	// never resolves to an "AT" caretaker.
	StrictInitials bool
}

// NewClassifier returns a classifier over the given parser and directory.
func NewClassifier(dates *DateParser, dir *Directory) *Classifier {
	if dir == nil {
		dir = NewDirectory(nil)
	}
	return &Classifier{dates: dates, dir: dir}
}

// Classify applies the fixed precedence: date, member exclusion, last name,
// first name, initials, text.
func (c *Classifier) Classify(raw string) Token {
	tok := Token{Raw: raw, Kind: KindText}
	if t, ok := c.dates.Parse(raw); ok {
		tok.Kind = KindDate
		tok.Date = t
		return tok
	}

	name := NameKey(raw)
	if name == "" {
		return tok
	}
	initials := InitialsKey(raw)
	if _, ok := c.dir.memberNames[name]; ok {
		tok.Kind = KindMember
		return tok
	}
	if _, ok := c.dir.memberInitials[initials]; ok {
		tok.Kind = KindMember
		return tok
	}

	if p, ok := c.dir.lastNames[name]; ok {
		return caretakerToken(tok, p, MatchedLastName)
	}
	if p, ok := c.dir.lastWords[name]; ok {
		return caretakerToken(tok, p, MatchedLastWord)
	}
	if p, ok := c.dir.firstNames[name]; ok {
		return caretakerToken(tok, p, MatchedFirstName)
	}
	if c.StrictInitials && !isUpperLetters(raw) {
		return tok
	}
	if p, ok := c.dir.initials[initials]; ok {
		return caretakerToken(tok, p, MatchedInitials)
	}
	return tok
}

func caretakerToken(tok Token, p model.Person, by MatchedBy) Token {
	tok.Kind = KindCaretaker
	tok.Caretaker = p
	tok.MatchedBy = by
	return tok
}
