package entities

import (
	"encoding/json"
	"maps"
)

// Key names below are read by storefront UI components; they must not change.
const (
	StageDataKeyStageName   = "stage_name"
	StageDataKeyImageGroups = "image_groups"
	StageDataKeyDraftIDs    = "draft_ids"
	StageDataKeyProductIDs  = "product_ids"
)

const (
	StageVisionComplete      = "vision_complete"
	StageDraftsGenerated     = "drafts_generated"
	StagePersistenceComplete = "persistence_complete"
)

// StageData accumulates free-form annotations across stage advances.
type StageData map[string]any

// Merge returns a new map holding d overlaid with patch. Keys already in d
// survive unless patch sets them again.
func (d StageData) Merge(patch map[string]any) StageData {
	out := make(StageData, len(d)+len(patch))
	maps.Copy(out, d)
	maps.Copy(out, patch)
	return out
}

func (d StageData) Clone() StageData {
	if d == nil {
		return StageData{}
	}
	return maps.Clone(d)
}

// StagePayload is one of the known stage shapes. Unknown keys still travel in
// StageData untouched.
type StagePayload interface {
	StageName() string
	Fields() map[string]any
}

type ImageGroup struct {
	GroupID   string   `json:"group_id"`
	Label     string   `json:"label,omitempty"`
	ImageURLs []string `json:"image_urls"`
}

type VisionComplete struct {
	ImageGroups []ImageGroup `json:"image_groups"`
}

func (VisionComplete) StageName() string { return StageVisionComplete }

func (p VisionComplete) Fields() map[string]any {
	return map[string]any{StageDataKeyImageGroups: p.ImageGroups}
}

type DraftsGenerated struct {
	DraftIDs []string `json:"draft_ids"`
}

func (DraftsGenerated) StageName() string { return StageDraftsGenerated }

func (p DraftsGenerated) Fields() map[string]any {
	return map[string]any{StageDataKeyDraftIDs: p.DraftIDs}
}

type PersistenceComplete struct {
	ProductIDs []string `json:"product_ids"`
}

func (PersistenceComplete) StageName() string { return StagePersistenceComplete }

func (p PersistenceComplete) Fields() map[string]any {
	return map[string]any{StageDataKeyProductIDs: p.ProductIDs}
}

// StageUpdate flattens a typed payload plus extra pass-through fields into the
// {stage_name, ...fields} shape consumed by an advance.
func StageUpdate(payload StagePayload, extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+2)
	maps.Copy(out, extra)
	if payload == nil {
		return out
	}
	maps.Copy(out, payload.Fields())
	out[StageDataKeyStageName] = payload.StageName()
	return out
}

func (d StageData) VisionComplete() (VisionComplete, bool) {
	var out VisionComplete
	ok := decodeKey(d, StageDataKeyImageGroups, &out.ImageGroups)
	return out, ok
}

func (d StageData) DraftsGenerated() (DraftsGenerated, bool) {
	var out DraftsGenerated
	ok := decodeKey(d, StageDataKeyDraftIDs, &out.DraftIDs)
	return out, ok
}

func (d StageData) PersistenceComplete() (PersistenceComplete, bool) {
	var out PersistenceComplete
	ok := decodeKey(d, StageDataKeyProductIDs, &out.ProductIDs)
	return out, ok
}

// decodeKey goes through JSON so it reads both freshly built Go values and
// values that came back from a JSONB column as []any/map[string]any.
func decodeKey(d StageData, key string, target any) bool {
	value, ok := d[key]
	if !ok || value == nil {
		return false
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}
