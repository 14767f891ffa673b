package feed

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EntityKind string

const (
	KindWord        EntityKind = "word"
	KindMeaning     EntityKind = "meaning"
	KindCategory    EntityKind = "category"
	KindTranslation EntityKind = "translation"
	KindUser        EntityKind = "user"
)

type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// EntityRef names one entity by kind and key. Keys are UUID strings, except translations
// which use "<slovene meaning>:<english meaning>".
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	Key  string     `json:"key"`
}

func Ref(kind EntityKind, id uuid.UUID) EntityRef {
	return EntityRef{Kind: kind, Key: id.String()}
}

// Entry is one row of the change feed. Related lists other entities whose derived search
// documents may be stale because of this change; it is a dirty set, not data.
type Entry struct {
	Seq        int64          `gorm:"primaryKey;autoIncrement:false;column:seq" json:"seq"`
	EntityKind EntityKind     `gorm:"type:varchar(32);not null;index:idx_change_feed_entity,priority:1;column:entity_kind" json:"entity_kind"`
	EntityKey  string         `gorm:"type:varchar(80);not null;index:idx_change_feed_entity,priority:2;column:entity_key" json:"entity_key"`
	Op         Op             `gorm:"type:varchar(16);not null;column:op" json:"op"`
	Related    datatypes.JSON `gorm:"column:related" json:"related,omitempty"`
	EditID     uuid.UUID      `gorm:"type:uuid;not null;index;column:edit_id" json:"edit_id"`
	CreatedAt  time.Time      `gorm:"not null;column:created_at" json:"created_at"`
}

func (Entry) TableName() string { return "change_feed" }

func (e *Entry) Subject() EntityRef {
	return EntityRef{Kind: e.EntityKind, Key: e.EntityKey}
}

func (e *Entry) RelatedRefs() ([]EntityRef, error) {
	if len(e.Related) == 0 {
		return nil, nil
	}
	var refs []EntityRef
	if err := json.Unmarshal(e.Related, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// DirtySet returns the subject followed by the related refs, without duplicates.
func (e *Entry) DirtySet() ([]EntityRef, error) {
	related, err := e.RelatedRefs()
	if err != nil {
		return nil, err
	}
	return DedupRefs(append([]EntityRef{e.Subject()}, related...)), nil
}

func EncodeRefs(refs []EntityRef) (datatypes.JSON, error) {
	refs = DedupRefs(refs)
	if len(refs) == 0 {
		return datatypes.JSON([]byte("[]")), nil
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func DedupRefs(refs []EntityRef) []EntityRef {
	seen := make(map[EntityRef]struct{}, len(refs))
	out := make([]EntityRef, 0, len(refs))
	for _, r := range refs {
		if r.Key == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
