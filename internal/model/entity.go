package model

// EntityType is the small, fixed taxonomy of entity categories.
type EntityType string

// Entity categories. Labels outside the taxonomy map to EntityOther.
const (
	EntityPerson EntityType = "person"
	EntityOrg    EntityType = "org"
	EntityPlace  EntityType = "place"
	EntityOther  EntityType = "other"
)

// Mention is one entity occurrence inside a chunk.
// Start and End are code point offsets into the chunk text.
// Canonical is the normalized form the entity is stored under.
type Mention struct {
	Text      string     `json:"text"`
	Canonical string     `json:"canonical"`
	Start     int        `json:"start"`
	End       int        `json:"end"`
	Type      EntityType `json:"type"`
}
