package edit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
)

// Edit is the append-only audit record of one accepted mutation. Rows are never updated,
// except that AuthorID is cleared when the author is deleted.
type Edit struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SchemaVersion int             `gorm:"not null;column:schema_version" json:"schema_version"`
	Data          datatypes.JSON  `gorm:"not null;column:data" json:"data"`
	PerformedAt   time.Time       `gorm:"not null;index;column:performed_at" json:"performed_at"`
	AuthorID      *uuid.UUID      `gorm:"type:uuid;index;column:author_id" json:"author_id,omitempty"`
	Author        *user.User      `gorm:"constraint:OnDelete:SET NULL;foreignKey:AuthorID;references:ID" json:"-"`
	SubjectKind   feed.EntityKind `gorm:"type:varchar(32);not null;index:idx_edit_subject,priority:1;column:subject_kind" json:"subject_kind"`
	SubjectKey    string          `gorm:"type:varchar(80);not null;index:idx_edit_subject,priority:2;column:subject_key" json:"subject_key"`
}

func (Edit) TableName() string { return "edit" }

// DeletedAuthorLabel is shown for edits whose author was removed or that the system made.
const DeletedAuthorLabel = "(deleted or system user)"
