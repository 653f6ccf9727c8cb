package contactlog

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/notes"
)

// ErrHouseholdNotFound is returned when a row's last name matches no
// household, or matches several that its member names cannot tell apart.
var ErrHouseholdNotFound = eris.New("contactlog: household not found")

// RowContext is everything needed to turn one row's notes into records.
type RowContext struct {
	Row            model.Row
	HouseholdID    string
	Classifier     *notes.Classifier
	Defaults       []model.Person // caretakers used when a segment names none
	PrimaryMembers []string       // member ids attached to every record
	Anchor         *time.Time     // date in effect before the first date token
	Index          *DedupIndex
}

// DefaultIDs returns the ids of the row's default caretakers.
func (rc *RowContext) DefaultIDs() []string {
	return personIDs(rc.Defaults)
}

// BuilderOptions tunes context building.
type BuilderOptions struct {
	CaretakerRoles []string // extra roster tags beyond deacon
	StrictInitials bool
}

// Builder assembles RowContexts. The roster and household list are read
// once per Builder and treated as read-only afterwards.
type Builder struct {
	store RecordStore
	dates *notes.DateParser
	opts  BuilderOptions

	roster       []model.Person
	rosterLoaded bool
	households   []model.Household
	hhLoaded     bool
}

// NewBuilder returns a Builder reading from store.
func NewBuilder(store RecordStore, dates *notes.DateParser, opts BuilderOptions) *Builder {
	return &Builder{store: store, dates: dates, opts: opts}
}

// Roster returns the caretaker roster, fetching it on first use. A fetch
// failure yields an empty roster.
func (b *Builder) Roster(ctx context.Context) []model.Person {
	if b.rosterLoaded {
		return b.roster
	}
	roster, err := b.store.ListCaretakers(ctx, b.opts.CaretakerRoles...)
	if err != nil {
		zap.L().Warn("contactlog: list caretakers failed, continuing without roster", zap.Error(err))
		roster = nil
	}
	b.roster = roster
	b.rosterLoaded = true
	return b.roster
}

// Build assembles the context for row. Only household resolution can fail;
// every other collaborator failure degrades to empty input.
func (b *Builder) Build(ctx context.Context, row model.Row) (*RowContext, error) {
	log := rowLogger(row)

	members, householdID, err := b.resolveHousehold(ctx, row)
	if err != nil {
		return nil, err
	}
	active := activeMembers(members)

	dir := notes.NewDirectory(b.Roster(ctx))
	assigned := b.resolveNames(dir, row.AssignedCaretaker, "assigned", log)
	lastContact := b.resolveNames(dir, row.LastContactCaretaker, "last_contact", log)
	dir.Override(assigned...)
	dir.Override(lastContact...)
	dir.ExcludeMembers(active...)

	classifier := notes.NewClassifier(b.dates, dir)
	classifier.StrictInitials = b.opts.StrictInitials

	defaults := lastContact
	if len(defaults) == 0 {
		defaults = assigned
	}

	existing, err := b.store.ListContacts(ctx, householdID)
	if err != nil {
		log.Warn("contactlog: list contacts failed, duplicates will not be detected",
			zap.String("household", householdID), zap.Error(err))
		existing = nil
	}

	return &RowContext{
		Row:            row,
		HouseholdID:    householdID,
		Classifier:     classifier,
		Defaults:       defaults,
		PrimaryMembers: primaryMembers(active, row.MemberNames),
		Anchor:         b.initialAnchor(row, log),
		Index:          NewDedupIndex(existing, b.dates.Location),
	}, nil
}

func (b *Builder) resolveNames(dir *notes.Directory, list, field string, log *zap.Logger) []model.Person {
	var out []model.Person
	for _, name := range notes.SplitNames(list) {
		p, ok := dir.Resolve(name)
		if !ok {
			log.Warn("contactlog: caretaker not on roster",
				zap.String("field", field), zap.String("name", name))
			continue
		}
		if !containsPerson(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func (b *Builder) initialAnchor(row model.Row, log *zap.Logger) *time.Time {
	if row.LastContactDate != "" {
		if t, ok := b.dates.ParseLastContact(row.LastContactDate); ok {
			return &t
		}
		log.Warn("contactlog: unparseable last contact date",
			zap.String("value", row.LastContactDate))
	}
	if !row.RecordedAt.IsZero() {
		t := row.RecordedAt
		return &t
	}
	return nil
}

// resolveHousehold finds the row's household and returns its members.
func (b *Builder) resolveHousehold(ctx context.Context, row model.Row) ([]model.Person, string, error) {
	if row.HouseholdID != "" {
		return b.listMembers(ctx, row, row.HouseholdID), row.HouseholdID, nil
	}

	if !b.hhLoaded {
		hh, err := b.store.ListHouseholds(ctx)
		if err != nil {
			return nil, "", eris.Wrap(err, "contactlog: list households")
		}
		b.households = hh
		b.hhLoaded = true
	}

	var candidates []model.Household
	for _, h := range b.households {
		if strings.EqualFold(strings.TrimSpace(h.LastName), strings.TrimSpace(row.LastName)) {
			candidates = append(candidates, h)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, "", eris.Wrapf(ErrHouseholdNotFound, "last name %q", row.LastName)
	case 1:
		return b.listMembers(ctx, row, candidates[0].ID), candidates[0].ID, nil
	}

	// Several households share the last name; pick the one whose members
	// match the row's care-list names.
	names := firstNameSet(row.MemberNames)
	var (
		matchID      string
		matchMembers []model.Person
		matches      int
	)
	for _, h := range candidates {
		members := b.listMembers(ctx, row, h.ID)
		for _, m := range activeMembers(members) {
			if _, ok := names[notes.NameKey(m.FirstName)]; ok {
				matchID, matchMembers = h.ID, members
				matches++
				break
			}
		}
	}
	if matches != 1 {
		return nil, "", eris.Wrapf(ErrHouseholdNotFound, "last name %q is ambiguous (%d households)", row.LastName, len(candidates))
	}
	return matchMembers, matchID, nil
}

func (b *Builder) listMembers(ctx context.Context, row model.Row, householdID string) []model.Person {
	members, err := b.store.ListMembers(ctx, householdID)
	if err != nil {
		rowLogger(row).Warn("contactlog: list members failed, member names will not be excluded",
			zap.String("household", householdID), zap.Error(err))
		return nil
	}
	return members
}

func activeMembers(members []model.Person) []model.Person {
	out := make([]model.Person, 0, len(members))
	for _, m := range members {
		if !m.Deleted() {
			out = append(out, m)
		}
	}
	return out
}

// primaryMembers returns the ids of members named on the care list, or all
// active members when the list names none of them.
func primaryMembers(active []model.Person, memberNames string) []string {
	names := firstNameSet(memberNames)
	var named []string
	for _, m := range active {
		if _, ok := names[notes.NameKey(m.FirstName)]; ok {
			named = append(named, m.ID)
		}
	}
	if len(named) > 0 {
		return named
	}
	return personIDs(active)
}

func firstNameSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range notes.SplitNames(list) {
		first := strings.Fields(name)[0]
		set[notes.NameKey(first)] = struct{}{}
	}
	return set
}

func personIDs(people []model.Person) []string {
	ids := make([]string, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	return ids
}

func containsPerson(people []model.Person, p model.Person) bool {
	for _, q := range people {
		if q.ID == p.ID {
			return true
		}
	}
	return false
}

func rowLogger(row model.Row) *zap.Logger {
	return zap.L().With(zap.Int("line", row.Line), zap.String("last_name", row.LastName))
}
