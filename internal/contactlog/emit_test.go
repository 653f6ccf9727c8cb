package contactlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/notes"
)

func TestClassifyContact(t *testing.T) {
	t.Parallel()

	tests := map[string]model.ContactType{
		"visited, stable.":     model.ContactTypeVisit,
		"Home VISIT":           model.ContactTypeVisit,
		"will visit next week": model.ContactTypeVisit,
		"called, ok":           model.ContactTypePhone,
		"left message":         model.ContactTypePhone,
	}
	for summary, want := range tests {
		assert.Equal(t, want, ClassifyContact(summary), summary)
	}
}

func TestBuildRecord(t *testing.T) {
	t.Parallel()

	d := time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC)
	rec := BuildRecord(notes.Segment{Anchor: &d, Words: []string{"visited,", "stable."}},
		[]string{"m1"}, []string{"d1", "d2"})

	assert.Equal(t, model.ContactRecord{
		MemberIDs:    []string{"m1"},
		CaretakerIDs: []string{"d1", "d2"},
		ContactType:  model.ContactTypeVisit,
		Summary:      "visited, stable.",
		ContactDate:  "2024-10-15T00:00:00.000Z",
	}, rec)
	require.NoError(t, rec.Validate())
}

func TestEmitter_Emit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec := model.ContactRecord{
		MemberIDs:    []string{"m1"},
		CaretakerIDs: []string{"d1"},
		ContactType:  model.ContactTypePhone,
		Summary:      "called",
		ContactDate:  "2024-10-15T00:00:00.000Z",
	}

	st := newFakeStore()
	id, err := NewEmitter(st, false).Emit(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)

	id, err = NewEmitter(st, true).Emit(ctx, rec)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Len(t, st.created, 1)

	st.createErr = eris.New("boom")
	_, err = NewEmitter(st, false).Emit(ctx, rec)
	assert.ErrorContains(t, err, "create contact")
	assert.False(t, errors.Is(err, ErrInvalidRecord))

	bad := rec
	bad.CaretakerIDs = nil
	_, err = NewEmitter(st, false).Emit(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.ErrorContains(t, err, "caretaker id")
}
