// Package codec converts cached values to and from bytes.
//
// The cache store never keeps a caller's value: it keeps the encoding and
// decodes a fresh value on every read, so a Codec round-trip is also the
// store's deep copy.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
