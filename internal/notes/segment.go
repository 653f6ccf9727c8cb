package notes

import (
	"strings"
	"time"

	"github.com/AveryRegier/actsix/internal/model"
)

// Segment is the run of note text between two date tokens.
type Segment struct {
	Anchor     *time.Time     // date in effect for the segment; nil if none
	Lead       string         // raw date token that opened the segment
	Words      []string       // narrative tokens in order
	Caretakers []model.Person // caretakers referenced inside the segment
}

// Summary is the narrative joined by single spaces.
func (s Segment) Summary() string {
	return strings.Join(s.Words, " ")
}

// Empty reports whether the segment has no narrative.
func (s Segment) Empty() bool {
	return strings.TrimSpace(s.Summary()) == ""
}

func (s *Segment) addCaretaker(p model.Person) {
	for _, c := range s.Caretakers {
		if c.ID == p.ID {
			return
		}
	}
	s.Caretakers = append(s.Caretakers, p)
}

// State is the accumulator's state. There is only one; the machine ends
// when Close is called.
type State int

const StateAccumulating State = 0

// FlushFunc receives each completed, non-empty segment.
type FlushFunc func(Segment)

// Accumulator walks classified tokens and emits segments. Caretaker tokens
// are held back until the next token shows whether they sign the following
// date ("AVW 10/15 visited") or belong to the running narrative.
type Accumulator struct {
	classifier *Classifier
	flush      FlushFunc
	state      State
	current    Segment
	pending    []Token
	closed     bool
}

// NewAccumulator starts a segment anchored at anchor, which may be nil.
func NewAccumulator(c *Classifier, anchor *time.Time, flush FlushFunc) *Accumulator {
	return &Accumulator{
		classifier: c,
		flush:      flush,
		state:      StateAccumulating,
		current:    Segment{Anchor: anchor},
	}
}

// State returns the current state.
func (a *Accumulator) State() State { return a.state }

// Feed classifies one raw token and advances the machine.
func (a *Accumulator) Feed(raw string) Token {
	tok := a.classifier.Classify(raw)
	a.Step(tok)
	return tok
}

// Step advances the machine with an already classified token.
func (a *Accumulator) Step(tok Token) {
	if a.closed {
		return
	}
	switch tok.Kind {
	case KindDate:
		// An empty segment's caretakers can only be signers of its date,
		// so they carry over when another date follows straight away.
		var carried []model.Person
		if a.current.Empty() {
			carried = a.current.Caretakers
		}
		signers := a.pending
		a.pending = nil
		a.startSegment(tok)
		for _, p := range carried {
			a.current.addCaretaker(p)
		}
		for _, s := range signers {
			a.current.addCaretaker(s.Caretaker)
		}
	case KindCaretaker:
		a.pending = append(a.pending, tok)
	default:
		a.releasePending()
		a.current.Words = append(a.current.Words, tok.Raw)
	}
}

// Close releases held tokens and flushes the final segment. Further input
// is ignored.
func (a *Accumulator) Close() {
	if a.closed {
		return
	}
	a.releasePending()
	a.emit()
	a.closed = true
}

// startSegment flushes the running segment under its own anchor and opens a
// new one at the date token.
func (a *Accumulator) startSegment(date Token) {
	a.emit()
	d := date.Date
	a.current = Segment{Anchor: &d, Lead: date.Raw}
}

func (a *Accumulator) releasePending() {
	for _, p := range a.pending {
		a.current.Words = append(a.current.Words, p.Raw)
		a.current.addCaretaker(p.Caretaker)
	}
	a.pending = nil
}

func (a *Accumulator) emit() {
	if a.current.Empty() || a.flush == nil {
		return
	}
	a.flush(a.current)
}

// Split runs the whole note through a fresh accumulator and returns the
// segments it produced.
func Split(c *Classifier, notes string, anchor *time.Time) []Segment {
	var out []Segment
	acc := NewAccumulator(c, anchor, func(s Segment) { out = append(out, s) })
	for _, raw := range Tokenize(notes) {
		acc.Feed(raw)
	}
	acc.Close()
	return out
}
