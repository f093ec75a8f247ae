// Package record holds the record model synced through syncache.
//
// A Record is an identified, open set of named fields. Records are owned by
// the caller; anything the cache keeps or hands out is an independent copy.
package record

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Record is an identified set of fields. An empty ID means the record has not
// been persisted yet.
type Record struct {
	ID     string         `json:"id,omitempty" msgpack:"id,omitempty" cbor:"id,omitempty"`
	Fields map[string]any `json:"fields,omitempty" msgpack:"fields,omitempty" cbor:"fields,omitempty"`
}

// New returns a record with the given id and fields. fields is not copied.
func New(id string, fields map[string]any) Record {
	return Record{ID: id, Fields: fields}
}

// Identity reports the record identifier and whether it is present.
func (r Record) Identity() (string, bool) {
	return r.ID, r.ID != ""
}

// IsNew reports whether the record has no identifier yet.
func (r Record) IsNew() bool { return r.ID == "" }

// Get returns a single field.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Set assigns a field, allocating the field map on first use.
func (r *Record) Set(name string, v any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = v
}

// Copy returns a deep copy of r, or the error copystructure reported for a
// field value it cannot walk.
func (r Record) Copy() (Record, error) {
	out := Record{ID: r.ID}
	if r.Fields == nil {
		return out, nil
	}
	cp, err := copystructure.Copy(r.Fields)
	if err != nil {
		return Record{}, fmt.Errorf("record %q: copy fields: %w", r.ID, err)
	}
	out.Fields = cp.(map[string]any)
	return out, nil
}

// Clone is Copy without the error. If copystructure fails, nested
// map[string]any and []any values are still copied; any other value that
// could not be walked is kept by reference.
func (r Record) Clone() Record {
	out, err := r.Copy()
	if err == nil {
		return out
	}
	return Record{ID: r.ID, Fields: copyMap(r.Fields)}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyMap(x)
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
