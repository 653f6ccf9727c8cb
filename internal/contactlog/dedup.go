package contactlog

import (
	"strings"
	"time"

	"github.com/AveryRegier/actsix/internal/model"
)

// DayLayout is the granularity contacts are compared at.
const DayLayout = "2006-01-02"

type dedupEntry struct {
	day         string
	summary     string
	caretakerID string
}

// Match describes why a candidate was judged a duplicate.
type Match struct {
	Summary     string // normalized summary of the entry that matched
	CaretakerID string
	Exact       bool // summaries were equal, not merely contained
	InRun       bool // entry was emitted earlier in this run
}

// DedupIndex holds persisted contacts for a household plus the records
// emitted for it during the current row.
type DedupIndex struct {
	loc       *time.Location
	persisted []dedupEntry
	emitted   []dedupEntry
}

// NewDedupIndex flattens existing contacts into one entry per caretaker.
// Dates without a zone are taken as days in loc. Records with an
// unparseable date or empty summary are ignored.
func NewDedupIndex(existing []model.ContactRecord, loc *time.Location) *DedupIndex {
	if loc == nil {
		loc = time.UTC
	}
	idx := &DedupIndex{loc: loc}
	for _, rec := range existing {
		t, err := model.ParseContactDateIn(rec.ContactDate, loc)
		if err != nil {
			continue
		}
		summary := NormalizeSummary(rec.Summary)
		if summary == "" {
			continue
		}
		for _, id := range rec.CaretakerIDs {
			idx.persisted = append(idx.persisted, dedupEntry{
				day:         idx.DayKey(t),
				summary:     summary,
				caretakerID: id,
			})
		}
	}
	return idx
}

// Len returns the number of persisted entries.
func (idx *DedupIndex) Len() int { return len(idx.persisted) }

// DayKey renders t at day granularity in the index's location.
func (idx *DedupIndex) DayKey(t time.Time) string {
	return t.In(idx.loc).Format(DayLayout)
}

// NormalizeSummary lowercases, trims and collapses internal whitespace.
func NormalizeSummary(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Find reports whether a candidate on day t, written by any of
// caretakerIDs, duplicates a persisted or already emitted entry. Two
// summaries are related when either contains the other.
func (idx *DedupIndex) Find(t time.Time, summary string, caretakerIDs []string) (Match, bool) {
	day := idx.DayKey(t)
	norm := NormalizeSummary(summary)
	if m, ok := find(idx.persisted, day, norm, caretakerIDs); ok {
		return m, true
	}
	if m, ok := find(idx.emitted, day, norm, caretakerIDs); ok {
		m.InRun = true
		return m, true
	}
	return Match{}, false
}

// Record adds an emitted candidate so later segments in the run see it.
func (idx *DedupIndex) Record(t time.Time, summary string, caretakerIDs []string) {
	day := idx.DayKey(t)
	norm := NormalizeSummary(summary)
	for _, id := range caretakerIDs {
		idx.emitted = append(idx.emitted, dedupEntry{day: day, summary: norm, caretakerID: id})
	}
}

func find(entries []dedupEntry, day, summary string, caretakerIDs []string) (Match, bool) {
	if summary == "" {
		return Match{}, false
	}
	for _, e := range entries {
		if e.day != day || !contains(caretakerIDs, e.caretakerID) {
			continue
		}
		if strings.Contains(e.summary, summary) || strings.Contains(summary, e.summary) {
			return Match{Summary: e.summary, CaretakerID: e.caretakerID, Exact: e.summary == summary}, true
		}
	}
	return Match{}, false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
