package codec

import "encoding/json"

// JSON encodes values with encoding/json. Numbers held in untyped fields come
// back as float64.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
