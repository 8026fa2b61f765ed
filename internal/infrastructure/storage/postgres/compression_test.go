package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCodec(t *testing.T) {
	codec, err := NewPayloadCodec(64)
	require.NoError(t, err)

	t.Run("small payload stays plain", func(t *testing.T) {
		payload := []byte(`[{"difference":-2}]`)
		plain, compressed, algo := codec.Encode(payload)
		assert.Equal(t, CompressionNone, algo)
		assert.Nil(t, compressed)

		out, err := codec.Decode(plain, compressed, algo)
		require.NoError(t, err)
		assert.Equal(t, payload, out)
	})

	t.Run("large payload is compressed", func(t *testing.T) {
		payload := bytes.Repeat([]byte(`{"systemQuantity":10,"actualQuantity":8},`), 100)
		plain, compressed, algo := codec.Encode(payload)
		assert.Equal(t, CompressionZstd, algo)
		assert.Nil(t, plain)
		assert.Less(t, len(compressed), len(payload))

		out, err := codec.Decode(plain, compressed, algo)
		require.NoError(t, err)
		assert.Equal(t, payload, out)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := codec.Decode(nil, nil, "lz4")
		assert.Error(t, err)
	})
}
