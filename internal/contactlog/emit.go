package contactlog

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/notes"
)

// ClassifyContact picks the contact type from the narrative.
func ClassifyContact(summary string) model.ContactType {
	if strings.Contains(strings.ToLower(summary), "visit") {
		return model.ContactTypeVisit
	}
	return model.ContactTypePhone
}

// BuildRecord renders a flushed segment as a contact record. The caller has
// already checked the segment has an anchor.
func BuildRecord(seg notes.Segment, memberIDs, caretakerIDs []string) model.ContactRecord {
	summary := strings.TrimSpace(seg.Summary())
	return model.ContactRecord{
		MemberIDs:        append([]string(nil), memberIDs...),
		CaretakerIDs:     append([]string(nil), caretakerIDs...),
		ContactType:      ClassifyContact(summary),
		Summary:          summary,
		ContactDate:      model.FormatContactDate(*seg.Anchor),
		FollowUpRequired: false,
	}
}

// ErrInvalidRecord is returned by Emit when a record fails validation and
// was never submitted.
var ErrInvalidRecord = eris.New("contactlog: invalid record")

// Emitter submits records to the store. With DryRun set nothing is
// written and records get no id.
type Emitter struct {
	store  RecordStore
	DryRun bool
}

// NewEmitter returns an Emitter writing to store.
func NewEmitter(store RecordStore, dryRun bool) *Emitter {
	return &Emitter{store: store, DryRun: dryRun}
}

// Emit submits rec and returns the stored id.
func (e *Emitter) Emit(ctx context.Context, rec model.ContactRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", eris.Wrapf(ErrInvalidRecord, "%v", err)
	}
	if e.DryRun {
		return "", nil
	}
	id, err := e.store.CreateContact(ctx, rec)
	if err != nil {
		return "", eris.Wrap(err, "contactlog: create contact")
	}
	return id, nil
}
