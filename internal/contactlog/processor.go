package contactlog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/notes"
)

// DropReason explains why a segment produced no record.
type DropReason string

const (
	DropNoDate      DropReason = "no_date"
	DropNoCaretaker DropReason = "no_caretaker"
	DropDuplicate   DropReason = "duplicate"
	DropNoMembers   DropReason = "no_members"
	DropInvalid     DropReason = "invalid"
	DropSubmit      DropReason = "submit_failed"
)

// Dropped is a segment that was not emitted.
type Dropped struct {
	Summary string     `json:"summary"`
	Reason  DropReason `json:"reason"`
}

// RowResult is the outcome of processing one row.
type RowResult struct {
	Line        int                   `json:"line"`
	LastName    string                `json:"lastName"`
	HouseholdID string                `json:"householdId,omitempty"`
	Created     []model.ContactRecord `json:"created"`
	Dropped     []Dropped             `json:"dropped,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Count returns how many segments were dropped for reason.
func (r RowResult) Count(reason DropReason) int {
	n := 0
	for _, d := range r.Dropped {
		if d.Reason == reason {
			n++
		}
	}
	return n
}

// Summary totals a run.
type Summary struct {
	Rows        int `json:"rows"`
	RowsFailed  int `json:"rowsFailed"`
	Created     int `json:"created"`
	Duplicates  int `json:"duplicates"`
	Unresolved  int `json:"unresolved"`
	SubmitFails int `json:"submitFailures"`
}

// Add folds a row result into the totals.
func (s *Summary) Add(r RowResult) {
	s.Rows++
	if r.Error != "" {
		s.RowsFailed++
	}
	s.Created += len(r.Created)
	s.Duplicates += r.Count(DropDuplicate)
	s.Unresolved += r.Count(DropNoDate) + r.Count(DropNoCaretaker) + r.Count(DropNoMembers)
	s.SubmitFails += r.Count(DropSubmit) + r.Count(DropInvalid)
}

// Processor runs rows through the pipeline, one at a time.
type Processor struct {
	builder *Builder
	emitter *Emitter
}

// NewProcessor wires a processor from its parts.
func NewProcessor(builder *Builder, emitter *Emitter) *Processor {
	return &Processor{builder: builder, emitter: emitter}
}

// Run processes rows sequentially. A failing row is recorded and the run
// moves on; only context cancellation stops it early.
func (p *Processor) Run(ctx context.Context, rows []model.Row) ([]RowResult, Summary) {
	var (
		results []RowResult
		sum     Summary
	)
	for _, row := range rows {
		if ctx.Err() != nil {
			zap.L().Warn("contactlog: run cancelled", zap.Int("remaining", len(rows)-sum.Rows))
			break
		}
		r := p.ProcessRow(ctx, row)
		results = append(results, r)
		sum.Add(r)
	}
	return results, sum
}

// ProcessRow converts one row's notes into contact records.
func (p *Processor) ProcessRow(ctx context.Context, row model.Row) RowResult {
	result := RowResult{Line: row.Line, LastName: row.LastName}
	log := rowLogger(row)

	rc, err := p.builder.Build(ctx, row)
	if err != nil {
		log.Warn("contactlog: row skipped", zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.HouseholdID = rc.HouseholdID
	log = log.With(zap.String("household", rc.HouseholdID))

	if row.Notes == "" {
		log.Debug("contactlog: row has no notes")
		return result
	}

	acc := notes.NewAccumulator(rc.Classifier, rc.Anchor, func(seg notes.Segment) {
		p.flush(ctx, rc, seg, &result, log)
	})
	for _, raw := range notes.Tokenize(row.Notes) {
		acc.Feed(raw)
	}
	acc.Close()

	log.Info("contactlog: row processed",
		zap.Int("created", len(result.Created)),
		zap.Int("dropped", len(result.Dropped)),
	)
	return result
}

// flush decides the fate of one completed segment.
func (p *Processor) flush(ctx context.Context, rc *RowContext, seg notes.Segment, result *RowResult, log *zap.Logger) {
	summary := seg.Summary()
	drop := func(reason DropReason) {
		result.Dropped = append(result.Dropped, Dropped{Summary: summary, Reason: reason})
	}

	caretakers := personIDs(seg.Caretakers)
	if len(caretakers) == 0 {
		caretakers = rc.DefaultIDs()
	}
	if seg.Anchor == nil {
		log.Warn("contactlog: segment has no date", zap.String("summary", summary), zap.String("reason", string(DropNoDate)))
		drop(DropNoDate)
		return
	}
	if len(caretakers) == 0 {
		log.Warn("contactlog: segment has no caretaker", zap.String("summary", summary), zap.String("lead", seg.Lead), zap.String("reason", string(DropNoCaretaker)))
		drop(DropNoCaretaker)
		return
	}
	if len(rc.PrimaryMembers) == 0 {
		log.Warn("contactlog: household has no active members", zap.String("summary", summary), zap.String("reason", string(DropNoMembers)))
		drop(DropNoMembers)
		return
	}

	if m, dup := rc.Index.Find(*seg.Anchor, summary, caretakers); dup {
		fields := []zap.Field{
			zap.String("summary", summary),
			zap.String("matched", m.Summary),
			zap.String("caretaker", m.CaretakerID),
			zap.Bool("in_run", m.InRun),
		}
		if m.Exact {
			log.Debug("contactlog: duplicate suppressed", fields...)
		} else {
			log.Info("contactlog: near-duplicate suppressed", fields...)
		}
		drop(DropDuplicate)
		return
	}

	rec := BuildRecord(seg, rc.PrimaryMembers, caretakers)
	id, err := p.emitter.Emit(ctx, rec)
	if err != nil {
		log.Error("contactlog: contact not created", zap.String("summary", summary), zap.Error(err))
		if errors.Is(err, ErrInvalidRecord) {
			drop(DropInvalid)
		} else {
			drop(DropSubmit)
		}
		return
	}
	rec.ID = id
	rc.Index.Record(*seg.Anchor, summary, caretakers)
	result.Created = append(result.Created, rec)
	log.Debug("contactlog: contact created",
		zap.String("id", id),
		zap.String("date", rec.ContactDate),
		zap.String("type", string(rec.ContactType)),
	)
}
