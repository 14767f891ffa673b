package edit

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
)

// SchemaVersion is the payload version written by this build.
const SchemaVersion = 1

type Action string

const (
	ActionCreatedWord        Action = "created_word"
	ActionUpdatedWord        Action = "updated_word"
	ActionDeletedWord        Action = "deleted_word"
	ActionCreatedMeaning     Action = "created_meaning"
	ActionUpdatedMeaning     Action = "updated_meaning"
	ActionDeletedMeaning     Action = "deleted_meaning"
	ActionLinkedCategory     Action = "linked_category"
	ActionUnlinkedCategory   Action = "unlinked_category"
	ActionCreatedCategory    Action = "created_category"
	ActionUpdatedCategory    Action = "updated_category"
	ActionDeletedCategory    Action = "deleted_category"
	ActionCreatedTranslation Action = "created_translation"
	ActionUpdatedTranslation Action = "updated_translation"
	ActionDeletedTranslation Action = "deleted_translation"
	ActionCreatedUser        Action = "created_user"
	ActionUpdatedUser        Action = "updated_user"
	ActionDeletedUser        Action = "deleted_user"
	ActionAssignedRole       Action = "assigned_role"
	ActionRevokedRole        Action = "revoked_role"
)

// Change is the version 1 payload body: what happened to which entity, with the
// relevant attributes before and after.
type Change struct {
	Action  Action         `json:"action"`
	Subject feed.EntityRef `json:"subject"`
	Before  map[string]any `json:"before,omitempty"`
	After   map[string]any `json:"after,omitempty"`
}

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

func Encode(c Change) (datatypes.JSON, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode edit data: %w", err)
	}
	raw, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode edit envelope: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func Decode(raw []byte) (Change, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Change{}, fmt.Errorf("decode edit envelope: %w", err)
	}
	switch env.SchemaVersion {
	case 1:
		var c Change
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return Change{}, fmt.Errorf("decode edit data: %w", err)
		}
		return c, nil
	default:
		return Change{}, fmt.Errorf("unsupported edit schema_version %d (known: 1)", env.SchemaVersion)
	}
}
