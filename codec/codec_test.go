package codec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/syncache/codec"
	"github.com/unkn0wn-root/syncache/record"
)

func sample() record.Record {
	return record.New("1", map[string]any{
		"title":  "testtitle",
		"public": true,
		"author": map[string]any{"name": "ada"},
	})
}

// Every record codec must hand back a value equal to the input with the same
// nested shape, since the store relies on it as a deep copy.
func TestRecordCodecsPreserveShape(t *testing.T) {
	t.Parallel()

	codecs := map[string]codec.Codec[record.Record]{
		"json":     codec.JSON[record.Record]{},
		"cbor":     codec.MustCBOR[record.Record](false),
		"cbor-det": codec.MustCBOR[record.Record](true),
		"msgpack":  codec.Msgpack[record.Record]{},
		"protobuf": codec.Protobuf{},
	}

	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := sample()
			b, err := c.Encode(in)
			require.NoError(t, err)

			out, err := c.Decode(b)
			require.NoError(t, err)
			require.Equal(t, in, out)

			out.Fields["author"].(map[string]any)["name"] = "bob"
			require.Equal(t, "ada", in.Fields["author"].(map[string]any)["name"])
		})
	}
}

// Typed values may change shape on the first round trip (JSON turns an int
// into float64). The store normalizes through one round trip, so a second one
// must not change anything.
func TestRecordCodecsAreStableAfterOneRoundTrip(t *testing.T) {
	t.Parallel()

	codecs := map[string]codec.Codec[record.Record]{
		"json":     codec.JSON[record.Record]{},
		"cbor":     codec.MustCBOR[record.Record](false),
		"cbor-det": codec.MustCBOR[record.Record](true),
		"msgpack":  codec.Msgpack[record.Record]{},
	}

	roundTrip := func(t *testing.T, c codec.Codec[record.Record], in record.Record) record.Record {
		t.Helper()
		b, err := c.Encode(in)
		require.NoError(t, err)
		out, err := c.Decode(b)
		require.NoError(t, err)
		return out
	}

	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := record.New("1", map[string]any{
				"count": 3,
				"at":    time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
				"tags":  []any{1, "x"},
			})
			once := roundTrip(t, c, in)
			twice := roundTrip(t, c, once)
			require.Equal(t, once, twice)
		})
	}
}

func TestJSONDecodesNumbersAsFloat64(t *testing.T) {
	t.Parallel()

	c := codec.JSON[record.Record]{}
	b, err := c.Encode(record.New("1", map[string]any{"count": 3}))
	require.NoError(t, err)
	out, err := c.Decode(b)
	require.NoError(t, err)
	require.Equal(t, float64(3), out.Fields["count"])
}

func TestProtobufRejectsUnsupportedField(t *testing.T) {
	t.Parallel()

	_, err := codec.Protobuf{}.Encode(record.New("1", map[string]any{"ch": make(chan int)}))
	require.Error(t, err)
}

func TestLimitCodec(t *testing.T) {
	t.Parallel()

	c := codec.LimitCodec[record.Record]{Inner: codec.JSON[record.Record]{}, MaxDecode: 64}

	small, err := c.Encode(record.New("1", nil))
	require.NoError(t, err)
	_, err = c.Decode(small)
	require.NoError(t, err)

	big, err := c.Encode(record.New("1", map[string]any{"body": strings.Repeat("x", 128)}))
	require.NoError(t, err)
	_, err = c.Decode(big)
	require.ErrorContains(t, err, "payload too large")
}
