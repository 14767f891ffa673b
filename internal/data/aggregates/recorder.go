package aggregates

import (
	"time"

	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

// change describes one accepted mutation for the edit log and the change feed.
type change struct {
	Action  edit.Action
	Subject feed.EntityRef
	Op      feed.Op
	Before  map[string]any
	After   map[string]any
	// Related lists entities whose derived documents may be stale after this change.
	Related []feed.EntityRef
}

// record appends the Edit and the Change Feed entry inside the caller's transaction.
func record(dbc dbctx.Context, deps BaseDeps, author *uuid.UUID, at time.Time, c change) (domainagg.Receipt, error) {
	data, err := edit.Encode(edit.Change{
		Action:  c.Action,
		Subject: c.Subject,
		Before:  c.Before,
		After:   c.After,
	})
	if err != nil {
		return domainagg.Receipt{}, err
	}
	e := &edit.Edit{
		ID:            uuid.New(),
		SchemaVersion: edit.SchemaVersion,
		Data:          data,
		PerformedAt:   at,
		AuthorID:      author,
		SubjectKind:   c.Subject.Kind,
		SubjectKey:    c.Subject.Key,
	}
	if err := deps.Repos.Edits.Append(dbc, e); err != nil {
		return domainagg.Receipt{}, err
	}

	related, err := feed.EncodeRefs(c.Related)
	if err != nil {
		return domainagg.Receipt{}, err
	}
	op := c.Op
	if op == "" {
		op = feed.OpUpsert
	}
	seq, err := deps.Repos.Feed.Append(dbc, &feed.Entry{
		EntityKind: c.Subject.Kind,
		EntityKey:  c.Subject.Key,
		Op:         op,
		Related:    related,
		EditID:     e.ID,
		CreatedAt:  at,
	})
	if err != nil {
		return domainagg.Receipt{}, err
	}
	return domainagg.Receipt{EditID: e.ID, Seq: seq}, nil
}

func authorOf(caller auth.Caller) *uuid.UUID {
	if caller.UserID == nil {
		return nil
	}
	id := *caller.UserID
	return &id
}

func meaningRefs(ids []uuid.UUID) []feed.EntityRef {
	out := make([]feed.EntityRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, feed.Ref(feed.KindMeaning, id))
	}
	return out
}

func textOrNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
