package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/syncache/record"
)

// Protobuf encodes records as a google.protobuf.Struct:
//
//	{"id": <string>, "fields": {<field>: <value>, ...}}
//
// Field values are limited to what structpb supports (nil, bool, numbers,
// strings, []any, map[string]any). Numbers decode as float64.
type Protobuf struct{}

var _ Codec[record.Record] = Protobuf{}

func (Protobuf) Encode(r record.Record) ([]byte, error) {
	m := map[string]any{"id": r.ID}
	if r.Fields != nil {
		m["fields"] = r.Fields
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("protobuf encode record %q: %w", r.ID, err)
	}
	return proto.Marshal(s)
}

func (Protobuf) Decode(b []byte) (record.Record, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return record.Record{}, err
	}
	var r record.Record
	if v, ok := s.Fields["id"]; ok {
		r.ID = v.GetStringValue()
	}
	if v, ok := s.Fields["fields"]; ok && v.GetStructValue() != nil {
		r.Fields = v.GetStructValue().AsMap()
	}
	return r, nil
}
