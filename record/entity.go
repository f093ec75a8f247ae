package record

import "strings"

// Entity is a record addressed under a collection root, e.g. "tests" or
// "tests/1". It is the default syncache.Model.
type Entity struct {
	Root   string
	Record Record
}

// NewEntity returns an entity for rec under root. Trailing slashes are trimmed
// from root.
func NewEntity(root string, rec Record) *Entity {
	return &Entity{Root: strings.TrimRight(root, "/"), Record: rec}
}

// URL is the collection root for new records and root/id otherwise.
func (e *Entity) URL() string {
	if e.Record.IsNew() {
		return e.Root
	}
	return e.Root + "/" + e.Record.ID
}

// Attributes returns the entity record.
func (e *Entity) Attributes() Record { return e.Record }

// Apply replaces the entity record with a copy of rec. It is what a caller
// does with a successful sync result.
func (e *Entity) Apply(rec Record) { e.Record = rec.Clone() }
